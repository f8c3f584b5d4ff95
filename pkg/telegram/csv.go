package telegram

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
)

const (
	colTime           = "time"
	colRegion         = "region"
	colReportingPoint = "reporting_point"
	colLine           = "line"
	colRunNumber      = "run_number"
	colRequestStatus  = "request_status"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// Reader. telegram Source over a csv with a header row. Columns are found by name,
// extra columns are ignored and kept in Record.
type Reader struct {
	r       *csv.Reader
	name    string
	header  []string
	columns map[string]int
	record  []string
	line    int
	closers []io.Closer
}

func NewReader(r io.Reader, name string) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false
	header, err := cr.Read()
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "%s: read csv header", name)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{colTime, colRegion, colReportingPoint, colRequestStatus} {
		if _, ok := columns[required]; !ok {
			return nil, util.WrapErrorf(nil, util.ErrMalformedInput, "%s: missing column %q", name, required)
		}
	}

	return &Reader{
		r:       cr,
		name:    name,
		header:  header,
		columns: columns,
		line:    1,
	}, nil
}

// Open. Reader over a csv file, bzip2 compressed when the name ends in .bz2
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "open telegram file %s", path)
	}

	closers := []io.Closer{f}
	var in io.Reader = f
	if strings.HasSuffix(path, ".bz2") {
		bz, err := bzip2.NewReader(f, &bzip2.ReaderConfig{})
		if err != nil {
			f.Close()
			return nil, util.WrapErrorf(err, util.ErrMalformedInput, "open bzip2 stream %s", path)
		}
		closers = append([]io.Closer{bz}, closers...)
		in = bz
	}

	rd, err := NewReader(in, path)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	rd.closers = closers
	return rd, nil
}

func (rd *Reader) Header() []string {
	return rd.header
}

// Record. raw row of the telegram last returned by Next
func (rd *Reader) Record() []string {
	return rd.record
}

func (rd *Reader) Close() error {
	return closeAll(rd.closers)
}

func (rd *Reader) Next() (*da.Telegram, error) {
	record, err := rd.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	rd.line++
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "%s:%d: read csv", rd.name, rd.line)
	}
	rd.record = record

	tg, err := rd.parse(record)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "%s:%d", rd.name, rd.line)
	}
	return tg, nil
}

func (rd *Reader) parse(record []string) (*da.Telegram, error) {
	t, err := ParseTime(rd.field(record, colTime))
	if err != nil {
		return nil, err
	}
	region, err := strconv.ParseInt(rd.field(record, colRegion), 10, 64)
	if err != nil {
		return nil, err
	}
	rp, err := strconv.ParseInt(rd.field(record, colReportingPoint), 10, 32)
	if err != nil {
		return nil, err
	}
	status, err := strconv.ParseInt(rd.field(record, colRequestStatus), 10, 16)
	if err != nil {
		return nil, err
	}
	line, err := rd.optionalInt32(record, colLine)
	if err != nil {
		return nil, err
	}
	run, err := rd.optionalInt32(record, colRunNumber)
	if err != nil {
		return nil, err
	}

	tg := da.NewTelegram(t, region, int32(rp), line, run, int16(status))
	return &tg, nil
}

func (rd *Reader) field(record []string, col string) string {
	idx, ok := rd.columns[col]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (rd *Reader) optionalInt32(record []string, col string) (*int32, error) {
	raw := rd.field(record, col)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	return da.Int32Ptr(int32(v)), nil
}

// ParseTime accepts RFC3339 and the naive "date time" layouts the capture tooling writes.
// Naive timestamps are read as UTC.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognised timestamp " + strconv.Quote(raw))
}

func closeAll(closers []io.Closer) error {
	var firstErr error
	for _, c := range closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenAll opens every path and chains them into one Source. The returned func closes all files.
func OpenAll(paths []string) (Source, func(), error) {
	readers := make([]*Reader, 0, len(paths))
	cleanup := func() {
		for _, rd := range readers {
			rd.Close()
		}
	}
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		rd, err := Open(p)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		readers = append(readers, rd)
		sources = append(sources, rd)
	}
	return Concat(sources...), cleanup, nil
}
