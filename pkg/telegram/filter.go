package telegram

import (
	"encoding/json"
	"os"
	"time"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
)

// MeasurementInterval. a manually recorded ride: vehicle (line, run) observed between Start and Stop.
type MeasurementInterval struct {
	Start time.Time
	Stop  time.Time
	Line  *int32
	Run   *int32
}

type measurementIntervalJSON struct {
	Start string `json:"start"`
	Stop  string `json:"stop"`
	Line  *int32 `json:"line"`
	Run   *int32 `json:"run"`
}

func (mi *MeasurementInterval) UnmarshalJSON(data []byte) error {
	var raw measurementIntervalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := ParseTime(raw.Start)
	if err != nil {
		return err
	}
	stop, err := ParseTime(raw.Stop)
	if err != nil {
		return err
	}
	*mi = MeasurementInterval{Start: start, Stop: stop, Line: raw.Line, Run: raw.Run}
	return nil
}

// Fits. telegram was sent inside the interval by the measured vehicle run.
func (mi *MeasurementInterval) Fits(tg *da.Telegram) bool {
	if tg.Time.Before(mi.Start) || tg.Time.After(mi.Stop) {
		return false
	}
	probe := da.Telegram{Line: mi.Line, RunNumber: mi.Run}
	return probe.SameRun(tg)
}

type MeasurementIntervals []MeasurementInterval

func (mis MeasurementIntervals) Fits(tg *da.Telegram) bool {
	for i := range mis {
		if mis[i].Fits(tg) {
			return true
		}
	}
	return false
}

// ReadMeasurementIntervals loads and concatenates the interval lists of all files.
func ReadMeasurementIntervals(paths []string) (MeasurementIntervals, error) {
	intervals := make(MeasurementIntervals, 0)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrMalformedInput, "open measurement file %s", p)
		}
		var fileIntervals MeasurementIntervals
		if err := json.Unmarshal(data, &fileIntervals); err != nil {
			return nil, util.WrapErrorf(err, util.ErrMalformedInput, "decode measurement file %s", p)
		}
		intervals = append(intervals, fileIntervals...)
	}
	return intervals, nil
}

type filteredSource struct {
	src       Source
	intervals MeasurementIntervals
}

// Filter keeps only telegrams fitting at least one interval.
func Filter(src Source, intervals MeasurementIntervals) Source {
	return &filteredSource{src: src, intervals: intervals}
}

func (f *filteredSource) Next() (*da.Telegram, error) {
	for {
		tg, err := f.src.Next()
		if err != nil {
			return nil, err
		}
		if f.intervals.Fits(tg) {
			return tg, nil
		}
	}
}
