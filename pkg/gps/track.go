package gps

import (
	da "github.com/dump-dvb/lofi/pkg/datastructure"
)

// TrackIndex. timestamp (unix seconds) -> at most one gps fix.
type TrackIndex interface {
	Lookup(timestamp int64) (da.GPSFix, bool)
}

// Track. in-memory TrackIndex, merged from any number of recordings.
type Track struct {
	fixes map[int64]da.GPSFix
}

func NewTrack() *Track {
	return &Track{
		fixes: make(map[int64]da.GPSFix),
	}
}

func (t *Track) Lookup(timestamp int64) (da.GPSFix, bool) {
	fix, ok := t.fixes[timestamp]
	return fix, ok
}

// Insert adds fix unless its second is already taken; the first fix of a second wins.
func (t *Track) Insert(fix da.GPSFix) bool {
	if _, ok := t.fixes[fix.Timestamp()]; ok {
		return false
	}
	t.fixes[fix.Timestamp()] = fix
	return true
}

// Merge inserts every fix of other, returns how many seconds were already occupied.
func (t *Track) Merge(other *Track) int {
	duplicates := 0
	for _, fix := range other.fixes {
		if !t.Insert(fix) {
			duplicates++
		}
	}
	return duplicates
}

func (t *Track) Len() int {
	return len(t.fixes)
}
