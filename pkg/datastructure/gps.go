package datastructure

import "github.com/dump-dvb/lofi/pkg/geo"

// GPSFix. one gps track point, second resolution.
type GPSFix struct {
	timestamp int64
	lat       float64
	lon       float64
}

func NewGPSFix(timestamp int64, lat, lon float64) GPSFix {
	return GPSFix{
		timestamp: timestamp,
		lat:       lat,
		lon:       lon,
	}
}

func (gf GPSFix) Timestamp() int64 {
	return gf.timestamp
}

func (gf GPSFix) Lat() float64 {
	return gf.lat
}

func (gf GPSFix) Lon() float64 {
	return gf.lon
}

func (gf GPSFix) Coordinate() geo.Coordinate {
	return geo.NewCoordinate(gf.lat, gf.lon)
}

// CorrelatedTelegram. telegram paired with the closest gps fixes strictly before and after it.
type CorrelatedTelegram struct {
	region         int64
	reportingPoint int32
	timestamp      int64
	before         GPSFix
	after          GPSFix
}

func NewCorrelatedTelegram(tg *Telegram, before, after GPSFix) CorrelatedTelegram {
	return CorrelatedTelegram{
		region:         tg.Region,
		reportingPoint: tg.ReportingPoint,
		timestamp:      tg.Timestamp(),
		before:         before,
		after:          after,
	}
}

func (ct CorrelatedTelegram) Region() int64 {
	return ct.region
}

func (ct CorrelatedTelegram) ReportingPoint() int32 {
	return ct.reportingPoint
}

func (ct CorrelatedTelegram) Timestamp() int64 {
	return ct.timestamp
}

func (ct CorrelatedTelegram) Before() GPSFix {
	return ct.before
}

func (ct CorrelatedTelegram) After() GPSFix {
	return ct.after
}
