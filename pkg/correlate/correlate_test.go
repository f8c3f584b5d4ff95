package correlate

import (
	"testing"
	"time"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/gps"
	"github.com/dump-dvb/lofi/pkg/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTrack(fixes ...da.GPSFix) *gps.Track {
	track := gps.NewTrack()
	for _, f := range fixes {
		track.Insert(f)
	}
	return track
}

func telegramAt(ts int64, region int64, rp int32) *da.Telegram {
	tg := da.NewTelegram(time.Unix(ts, 0).UTC(), region, rp, nil, nil, 0)
	return &tg
}

func TestCorrelateTelegram(t *testing.T) {
	testCases := []struct {
		name       string
		fixes      []da.GPSFix
		window     int64
		ts         int64
		wantOK     bool
		wantBefore int64
		wantAfter  int64
	}{
		{
			name:       "adjacent seconds",
			fixes:      []da.GPSFix{da.NewGPSFix(99, 1, 1), da.NewGPSFix(101, 2, 2)},
			window:     1,
			ts:         100,
			wantOK:     true,
			wantBefore: 99,
			wantAfter:  101,
		},
		{
			name: "closest on each side",
			fixes: []da.GPSFix{da.NewGPSFix(95, 0, 0), da.NewGPSFix(97, 1, 1),
				da.NewGPSFix(102, 2, 2), da.NewGPSFix(104, 3, 3)},
			window:     5,
			ts:         100,
			wantOK:     true,
			wantBefore: 97,
			wantAfter:  102,
		},
		{
			name:   "fix at own second is excluded",
			fixes:  []da.GPSFix{da.NewGPSFix(100, 1, 1), da.NewGPSFix(101, 2, 2)},
			window: 3,
			ts:     100,
			wantOK: false,
		},
		{
			name:   "after side outside window",
			fixes:  []da.GPSFix{da.NewGPSFix(99, 1, 1), da.NewGPSFix(106, 2, 2)},
			window: 5,
			ts:     100,
			wantOK: false,
		},
		{
			name:       "fix exactly at window edge",
			fixes:      []da.GPSFix{da.NewGPSFix(95, 1, 1), da.NewGPSFix(105, 2, 2)},
			window:     5,
			ts:         100,
			wantOK:     true,
			wantBefore: 95,
			wantAfter:  105,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCorrelator(newTrack(tt.fixes...), tt.window)
			ct, ok := c.CorrelateTelegram(telegramAt(tt.ts, 0, 7))
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantBefore, ct.Before().Timestamp())
			assert.Equal(t, tt.wantAfter, ct.After().Timestamp())
			assert.Equal(t, int32(7), ct.ReportingPoint())
		})
	}
}

func TestInterpolateSumDenominator(t *testing.T) {
	before := da.NewGPSFix(100, 10, 20)
	after := da.NewGPSFix(200, 20, 40)
	ct := da.NewCorrelatedTelegram(telegramAt(150, 3, 42), before, after)

	// (150-100)/(200+100): the historical formula, not the elapsed fraction
	key, est, ok := Interpolate(ct, SumDenominatorFraction)
	require.True(t, ok)
	assert.Equal(t, da.LocationKey{Region: 3, ReportingPoint: 42}, key)
	assert.InDelta(t, 10+10.0/6.0, est.Lat, 1e-12)
	assert.InDelta(t, 20+20.0/6.0, est.Lon, 1e-12)
	assert.Nil(t, est.Properties.Epsg3857)

	_, est, ok = Interpolate(ct, ElapsedFraction)
	require.True(t, ok)
	assert.InDelta(t, 15.0, est.Lat, 1e-12)
	assert.InDelta(t, 30.0, est.Lon, 1e-12)
}

func TestInterpolateDegenerate(t *testing.T) {
	ct := da.NewCorrelatedTelegram(telegramAt(0, 0, 1), da.NewGPSFix(0, 1, 1), da.NewGPSFix(0, 2, 2))
	_, _, ok := Interpolate(ct, SumDenominatorFraction)
	assert.False(t, ok)
	_, _, ok = Interpolate(ct, ElapsedFraction)
	assert.False(t, ok)
}

func TestPairwiseDeduplication(t *testing.T) {
	table := NewLocationTable(PairwiseAverage{})
	key := da.LocationKey{Region: 0, ReportingPoint: 1}

	table.Add(key, da.NewLocationEstimate(10, 10))
	table.Add(key, da.NewLocationEstimate(20, 20))
	got, ok := table.Get(key)
	require.True(t, ok)
	assert.Equal(t, 15.0, got.Lat)
	assert.Equal(t, 15.0, got.Lon)

	table.Add(key, da.NewLocationEstimate(0, 0))
	got, _ = table.Get(key)
	assert.Equal(t, 7.5, got.Lat)
	assert.Equal(t, 7.5, got.Lon)
	assert.Equal(t, 3, got.Samples)
	assert.Equal(t, 1, table.Len())
}

func TestIncrementalMeanDeduplication(t *testing.T) {
	table := NewLocationTable(IncrementalMean{})
	key := da.LocationKey{Region: 0, ReportingPoint: 1}
	for _, v := range []float64{10, 20, 0} {
		table.Add(key, da.NewLocationEstimate(v, v))
	}
	got, _ := table.Get(key)
	assert.InDelta(t, 10.0, got.Lat, 1e-12)
	assert.InDelta(t, 10.0, got.Lon, 1e-12)
}

func pipelineFixtures() ([]da.Telegram, *gps.Track) {
	track := newTrack(
		da.NewGPSFix(99, 51.0, 13.0), da.NewGPSFix(101, 51.2, 13.2),
		da.NewGPSFix(199, 52.0, 14.0), da.NewGPSFix(201, 52.2, 14.2),
	)
	tgs := []da.Telegram{
		*telegramAt(100, 0, 10),
		*telegramAt(100, 0, 10),
		*telegramAt(200, 5, 20),
		*telegramAt(500, 0, 30), // no gps around
	}
	return tgs, track
}

func TestPipelineRun(t *testing.T) {
	tgs, track := pipelineFixtures()
	core, logs := observer.New(zapcore.WarnLevel)
	city := "Dresden"
	meta := MapRegionMetaSource{0: {CityName: &city}}

	p := NewPipeline(NewCorrelator(track, 5), SumDenominatorFraction, PairwiseAverage{}, meta, zap.New(core))
	doc, err := p.Run(telegram.FromSlice(tgs))
	require.NoError(t, err)

	require.Len(t, doc.Data, 2)
	require.Contains(t, doc.Data[0], int32(10))
	assert.NotContains(t, doc.Data[0], int32(30))
	loc := doc.Data[0][10]
	assert.InDelta(t, 51.0+1.0/200.0*0.2, loc.Lat, 1e-12)
	require.NotNil(t, loc.Properties.Epsg3857)

	assert.Equal(t, "Dresden", *doc.Meta[0].CityName)
	assert.True(t, doc.Meta[5].IsEmpty())

	warnings := logs.FilterMessage("could not find region metadata, filling with null values").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(5), warnings[0].ContextMap()["region"])
}

func TestPipelineIdempotent(t *testing.T) {
	tgs, track := pipelineFixtures()
	p := NewPipeline(NewCorrelator(track, 5), SumDenominatorFraction, PairwiseAverage{},
		MapRegionMetaSource{}, zap.NewNop())

	first, err := p.Run(telegram.FromSlice(tgs))
	require.NoError(t, err)
	second, err := p.Run(telegram.FromSlice(tgs))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMergeDocuments(t *testing.T) {
	city := "Chemnitz"
	a := da.NewLocationsDocument()
	a.Data[1] = da.RegionReportLocations{5: da.NewLocationEstimate(10, 10)}
	a.Meta[1] = da.RegionMeta{}
	b := da.NewLocationsDocument()
	b.Data[1] = da.RegionReportLocations{5: da.NewLocationEstimate(20, 30), 6: da.NewLocationEstimate(1, 1)}
	b.Meta[1] = da.RegionMeta{CityName: &city}

	merged := MergeDocuments([]*da.LocationsDocument{a, b}, PairwiseAverage{})
	require.Len(t, merged.Data[1], 2)
	assert.Equal(t, 15.0, merged.Data[1][5].Lat)
	assert.Equal(t, 20.0, merged.Data[1][5].Lon)
	assert.Equal(t, "Chemnitz", *merged.Meta[1].CityName)
}
