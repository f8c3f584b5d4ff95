package datastructure

import (
	"sort"

	"github.com/dump-dvb/lofi/pkg/util"
)

// EdgeKey. ordered (from, to) pair of reporting points.
type EdgeKey struct {
	From int32
	To   int32
}

func NewEdgeKey(from, to int32) EdgeKey {
	return EdgeKey{From: from, To: to}
}

// EdgeAccumulator. evidence collected for one directed transition.
type EdgeAccumulator struct {
	count int
	times []int64 // transit time samples in ms
	lines map[int32]struct{}
}

func NewEdgeAccumulator() *EdgeAccumulator {
	return &EdgeAccumulator{
		times: make([]int64, 0, 1),
		lines: make(map[int32]struct{}),
	}
}

// Observe records one transition; a telegram without a line id adds no line.
func (ea *EdgeAccumulator) Observe(deltaMs int64, line *int32) {
	ea.count++
	ea.times = append(ea.times, deltaMs)
	if line != nil {
		ea.lines[*line] = struct{}{}
	}
}

func (ea *EdgeAccumulator) Count() int {
	return ea.count
}

func (ea *EdgeAccumulator) Times() []int64 {
	return ea.times
}

// MeanTime. arithmetic mean of the samples in ms, NaN when there are none.
func (ea *EdgeAccumulator) MeanTime() float64 {
	var sum int64
	for _, t := range ea.times {
		sum += t
	}
	return float64(sum) / float64(len(ea.times))
}

// Lines. line ids seen on this edge, ascending.
func (ea *EdgeAccumulator) Lines() []int32 {
	return util.SortedKeys(ea.lines)
}

// EdgeAccumulators. at most one accumulator per ordered pair, shared across days.
type EdgeAccumulators map[EdgeKey]*EdgeAccumulator

func (ea EdgeAccumulators) Observe(key EdgeKey, deltaMs int64, line *int32) {
	acc, ok := ea[key]
	if !ok {
		acc = NewEdgeAccumulator()
		ea[key] = acc
	}
	acc.Observe(deltaMs, line)
}

// SortedKeys. edge keys ordered by (From, To).
func (ea EdgeAccumulators) SortedKeys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(ea))
	for k := range ea {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		return keys[i].To < keys[j].To
	})
	return keys
}

// AdjacencyGraph. reporting point -> reporting points reachable by a retained edge.
type AdjacencyGraph map[int32][]int32

func (g AdjacencyGraph) AddEdge(from, to int32) {
	for _, v := range g[from] {
		if v == to {
			return
		}
	}
	g[from] = append(g[from], to)
}

func (g AdjacencyGraph) HasEdge(from, to int32) bool {
	for _, v := range g[from] {
		if v == to {
			return true
		}
	}
	return false
}

func (g AdjacencyGraph) NumberOfEdges() int {
	n := 0
	for _, nexts := range g {
		n += len(nexts)
	}
	return n
}

// ForEdges visits every edge ordered by source then destination.
func (g AdjacencyGraph) ForEdges(handle func(from, to int32)) {
	for _, from := range util.SortedKeys(g) {
		nexts := append([]int32(nil), g[from]...)
		sort.Slice(nexts, func(i, j int) bool { return nexts[i] < nexts[j] })
		for _, to := range nexts {
			handle(from, to)
		}
	}
}
