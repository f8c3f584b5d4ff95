package correlate

import (
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/gps"
)

// Correlator pairs a telegram with the gps fixes bracketing it in time.
type Correlator struct {
	index  gps.TrackIndex
	window int64 // seconds
}

func NewCorrelator(index gps.TrackIndex, window int64) *Correlator {
	return &Correlator{
		index:  index,
		window: window,
	}
}

func (c *Correlator) Window() int64 {
	return c.window
}

// CorrelateTelegram. scans offsets 1..window after and -1..-window before the telegram
// timestamp, nearest first, and takes the first fix found on each side. A fix at the
// telegram's own second is never used. false if either side has no fix in the window.
func (c *Correlator) CorrelateTelegram(tg *da.Telegram) (da.CorrelatedTelegram, bool) {
	ts := tg.Timestamp()

	after, ok := c.scan(ts, 1)
	if !ok {
		return da.CorrelatedTelegram{}, false
	}
	before, ok := c.scan(ts, -1)
	if !ok {
		return da.CorrelatedTelegram{}, false
	}

	return da.NewCorrelatedTelegram(tg, before, after), true
}

func (c *Correlator) scan(ts int64, direction int64) (da.GPSFix, bool) {
	for offset := int64(1); offset <= c.window; offset++ {
		if fix, ok := c.index.Lookup(ts + direction*offset); ok {
			return fix, true
		}
	}
	return da.GPSFix{}, false
}
