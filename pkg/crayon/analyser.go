package crayon

import (
	"io"
	"time"

	"github.com/dump-dvb/lofi/pkg"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/telegram"
	"go.uber.org/zap"
)

// Analyser collects run-sequence edges of one region, day by day.
type Analyser struct {
	region       int64
	accumulators da.EdgeAccumulators
	days         int
	log          *zap.Logger
}

func NewAnalyser(region int64, log *zap.Logger) *Analyser {
	return &Analyser{
		region:       region,
		accumulators: make(da.EdgeAccumulators),
		log:          log,
	}
}

func (a *Analyser) Region() int64 {
	return a.region
}

func (a *Analyser) Accumulators() da.EdgeAccumulators {
	return a.accumulators
}

// Days. number of days analysed so far
func (a *Analyser) Days() int {
	return a.days
}

// Consume reads src until io.EOF. Telegrams of other regions are ignored, door-closed
// telegrams are dropped, and a new day starts whenever the calendar date changes.
// The last day is analysed once src is exhausted.
func (a *Analyser) Consume(src telegram.Source) error {
	var (
		day     []da.Telegram
		current date
		started bool
	)
	for {
		tg, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if tg.Region != a.region {
			continue
		}

		d := dateOf(tg.Time)
		if started && d != current {
			a.AnalyseDay(day)
			day = day[:0]
		}
		current, started = d, true

		if tg.DoorClosed() {
			continue
		}
		day = append(day, *tg)
	}

	if started {
		a.AnalyseDay(day)
	}
	return nil
}

// AnalyseDay. for every telegram scan forward to the next telegram of the same run and
// record that transition. The scan stops without an edge at the first telegram more
// than ten minutes later, or when the next occurrence repeats the reporting point.
// telegrams must be ordered by time.
func (a *Analyser) AnalyseDay(telegrams []da.Telegram) {
	a.days++
	edges := 0
	threshold := pkg.RUN_SCAN_TIME_THRESHOLD

	for i := range telegrams {
		from := &telegrams[i]
		for j := i + 1; j < len(telegrams); j++ {
			to := &telegrams[j]
			delta := to.Time.Sub(from.Time)
			if delta > threshold {
				break
			}
			if from.SameRun(to) {
				// a repeat at the same point consumes the occurrence without an edge
				if from.ReportingPoint == to.ReportingPoint {
					break
				}
				a.accumulators.Observe(da.NewEdgeKey(from.ReportingPoint, to.ReportingPoint),
					delta.Milliseconds(), from.Line)
				edges++
				break
			}
		}
	}

	a.log.Info("analysing day", zap.Int64("region", a.region), zap.Int("day", a.days),
		zap.Int("telegrams", len(telegrams)), zap.Int("transitions", edges),
		zap.Int("edges_total", len(a.accumulators)))
}

// Finalise applies the statistical edge filter to everything collected so far.
func (a *Analyser) Finalise() da.AdjacencyGraph {
	return Finalise(a.accumulators, a.log)
}

type date struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) date {
	y, m, d := t.Date()
	return date{year: y, month: m, day: d}
}
