package crayon

import (
	"math"

	"github.com/dump-dvb/lofi/pkg"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"go.uber.org/zap"
)

// Rate. 50 * e^-|mean - 120s| + 0.01 * count, mean transit time in seconds.
func Rate(acc *da.EdgeAccumulator) float64 {
	if len(acc.Times()) == 0 {
		return 0.01 * float64(acc.Count())
	}
	meanSeconds := acc.MeanTime() / 1000
	deviation := math.Abs(meanSeconds - pkg.NOMINAL_TRANSIT_TIME.Seconds())
	return 50*math.Exp(-deviation) + 0.01*float64(acc.Count())
}

// Ratings of every edge, in the order of accumulators.SortedKeys().
func Ratings(accumulators da.EdgeAccumulators) ([]da.EdgeKey, []float64) {
	keys := accumulators.SortedKeys()
	ratings := make([]float64, len(keys))
	for i, k := range keys {
		ratings[i] = Rate(accumulators[k])
	}
	return keys, ratings
}

// MeanStdDev. population mean and standard deviation (divide by n).
func MeanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// Finalise keeps edges whose rating exceeds 2 sigma of all ratings and groups them by
// source reporting point.
func Finalise(accumulators da.EdgeAccumulators, log *zap.Logger) da.AdjacencyGraph {
	graph := make(da.AdjacencyGraph)
	keys, ratings := Ratings(accumulators)
	mean, sigma := MeanStdDev(ratings)
	threshold := pkg.SIGNIFICANCE_MULTIPLIER * sigma

	for i, k := range keys {
		if ratings[i] > threshold {
			graph.AddEdge(k.From, k.To)
			continue
		}
		log.Debug("edge dropped", zap.Int32("from", k.From), zap.Int32("to", k.To),
			zap.Float64("rating", ratings[i]))
	}

	log.Info("finalised graph", zap.Int("edges_total", len(keys)), zap.Int("edges_kept", graph.NumberOfEdges()),
		zap.Float64("rating_mean", mean), zap.Float64("rating_sigma", sigma))
	return graph
}
