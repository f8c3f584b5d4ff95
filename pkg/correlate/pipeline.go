package correlate

import (
	"io"

	"github.com/dump-dvb/lofi/pkg"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/telegram"
	"go.uber.org/zap"
)

// Pipeline. telegrams + gps track -> stops document.
type Pipeline struct {
	correlator *Correlator
	fraction   FractionFunc
	policy     AveragingPolicy
	regionMeta RegionMetaSource
	log        *zap.Logger
}

func NewPipeline(correlator *Correlator, fraction FractionFunc, policy AveragingPolicy,
	regionMeta RegionMetaSource, log *zap.Logger) *Pipeline {
	return &Pipeline{
		correlator: correlator,
		fraction:   fraction,
		policy:     policy,
		regionMeta: regionMeta,
		log:        log,
	}
}

// Locate runs correlation, interpolation and deduplication over every telegram of src.
// Only errors of src itself are returned.
func (p *Pipeline) Locate(src telegram.Source) (*LocationTable, error) {
	table := NewLocationTable(p.policy)
	var (
		total   int
		matched int
	)
	for {
		tg, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		total++

		ct, ok := p.correlator.CorrelateTelegram(tg)
		if !ok {
			continue
		}
		key, est, ok := Interpolate(ct, p.fraction)
		if !ok {
			p.log.Debug("degenerate interpolation, telegram dropped",
				zap.Int64("region", ct.Region()), zap.Int32("reporting_point", ct.ReportingPoint()))
			continue
		}
		matched++
		table.Add(key, est)
	}

	p.log.Info("Matched telegrams", zap.Int("matched", matched), zap.Int("total", total),
		zap.Int("reporting_points", table.Len()))
	table.Finalize()
	return table, nil
}

// Run. Locate + BuildDocument
func (p *Pipeline) Run(src telegram.Source) (*da.LocationsDocument, error) {
	table, err := p.Locate(src)
	if err != nil {
		return nil, err
	}
	return p.BuildDocument(table), nil
}

// BuildDocument groups the table per region and attaches region metadata. A region
// missing from the metadata source gets an all-absent record and a warning.
func (p *Pipeline) BuildDocument(table *LocationTable) *da.LocationsDocument {
	doc := da.NewLocationsDocument()
	generator, version := pkg.GENERATOR, pkg.GENERATOR_VERSION
	doc.Generator = &generator
	doc.GeneratorVersion = &version

	for _, region := range table.Regions() {
		doc.Data[region] = table.Region(region)

		meta, ok := p.regionMeta.Lookup(region)
		if !ok {
			p.log.Warn("could not find region metadata, filling with null values",
				zap.Int64("region", region))
			meta = da.RegionMeta{}
		}
		doc.Meta[region] = meta
	}
	return doc
}
