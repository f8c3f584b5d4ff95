package telegram

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
)

var writerHeader = []string{colTime, colRegion, colReportingPoint, colLine, colRunNumber, colRequestStatus}

// Writer. csv in the column layout Reader understands.
type Writer struct {
	w       *csv.Writer
	started bool
	count   int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

func (wr *Writer) Write(tg *da.Telegram) error {
	if !wr.started {
		if err := wr.w.Write(writerHeader); err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "write csv header")
		}
		wr.started = true
	}
	record := []string{
		tg.Time.UTC().Format(time.RFC3339Nano),
		strconv.FormatInt(tg.Region, 10),
		strconv.FormatInt(int64(tg.ReportingPoint), 10),
		optionalString(tg.Line),
		optionalString(tg.RunNumber),
		strconv.FormatInt(int64(tg.RequestStatus), 10),
	}
	if err := wr.w.Write(record); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "write telegram")
	}
	wr.count++
	return nil
}

// Copy drains src into wr and returns the number of telegrams written.
func (wr *Writer) Copy(src Source) (int, error) {
	n := 0
	for {
		tg, err := src.Next()
		if err == io.EOF {
			return n, wr.Flush()
		}
		if err != nil {
			return n, err
		}
		if err := wr.Write(tg); err != nil {
			return n, err
		}
		n++
	}
}

func (wr *Writer) Flush() error {
	if !wr.started {
		if err := wr.w.Write(writerHeader); err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "write csv header")
		}
		wr.started = true
	}
	wr.w.Flush()
	return wr.w.Error()
}

func (wr *Writer) Count() int {
	return wr.count
}

func optionalString(v *int32) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(int64(*v), 10)
}
