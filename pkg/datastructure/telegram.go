package datastructure

import "time"

// RequestStatusDoorClosed. request status of a "door closed" telegram, it carries no
// information about the run sequence.
const RequestStatusDoorClosed int16 = 3

// Telegram. one R09 telegram captured when a vehicle passed a reporting point.
type Telegram struct {
	Time           time.Time
	Region         int64
	ReportingPoint int32
	Line           *int32
	RunNumber      *int32
	RequestStatus  int16
}

func NewTelegram(t time.Time, region int64, reportingPoint int32, line, runNumber *int32,
	requestStatus int16) Telegram {
	return Telegram{
		Time:           t,
		Region:         region,
		ReportingPoint: reportingPoint,
		Line:           line,
		RunNumber:      runNumber,
		RequestStatus:  requestStatus,
	}
}

// Timestamp. unix seconds of the capture time
func (t *Telegram) Timestamp() int64 {
	return t.Time.Unix()
}

// SameRun. true if both telegrams carry the same (line, run) pair; two absent values are equal.
func (t *Telegram) SameRun(o *Telegram) bool {
	return optionalEqual(t.Line, o.Line) && optionalEqual(t.RunNumber, o.RunNumber)
}

func (t *Telegram) DoorClosed() bool {
	return t.RequestStatus == RequestStatusDoorClosed
}

func optionalEqual(a, b *int32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func Int32Ptr(v int32) *int32 {
	return &v
}
