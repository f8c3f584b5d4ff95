package correlate

import (
	da "github.com/dump-dvb/lofi/pkg/datastructure"
)

// FractionFunc. position of t between the bracketing fixes, as used by Interpolate.
// false when the fraction is undefined.
type FractionFunc func(t, before, after int64) (float64, bool)

// SumDenominatorFraction. (t - before) / (after + before). This is the formula the
// historical stops datasets were produced with; it is not the elapsed fraction.
func SumDenominatorFraction(t, before, after int64) (float64, bool) {
	denom := after + before
	if denom == 0 {
		return 0, false
	}
	return float64(t-before) / float64(denom), true
}

// ElapsedFraction. (t - before) / (after - before)
func ElapsedFraction(t, before, after int64) (float64, bool) {
	denom := after - before
	if denom == 0 {
		return 0, false
	}
	return float64(t-before) / float64(denom), true
}

// FractionByName maps the config names "sum" and "difference".
func FractionByName(name string) (FractionFunc, bool) {
	switch name {
	case "", "sum":
		return SumDenominatorFraction, true
	case "difference":
		return ElapsedFraction, true
	default:
		return nil, false
	}
}

// Interpolate. linear interpolation of the telegram position between its bracketing fixes.
func Interpolate(ct da.CorrelatedTelegram, fraction FractionFunc) (da.LocationKey, da.LocationEstimate, bool) {
	before, after := ct.Before(), ct.After()
	frac, ok := fraction(ct.Timestamp(), before.Timestamp(), after.Timestamp())
	if !ok {
		return da.LocationKey{}, da.LocationEstimate{}, false
	}

	lat := before.Lat() + frac*(after.Lat()-before.Lat())
	lon := before.Lon() + frac*(after.Lon()-before.Lon())

	key := da.LocationKey{Region: ct.Region(), ReportingPoint: ct.ReportingPoint()}
	return key, da.NewLocationEstimate(lat, lon), true
}
