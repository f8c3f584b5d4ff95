package osmparser

import (
	"bytes"
	"context"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/geo"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"
)

// scannerOpener. fresh scanner over the same input for every pass.
type scannerOpener func() (osm.Scanner, io.Closer, error)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// LineParser builds line geometries from public transport route relations. Every
// relation tagged type=route with a numeric ref contributes its way members in
// relation order; stop and platform members are ignored.
type LineParser struct {
	routeWays map[int32][][]osm.WayID
	wayNodes  map[osm.WayID][]osm.NodeID
	nodes     map[osm.NodeID]geo.Coordinate
	log       *zap.Logger
}

func NewLineParser(log *zap.Logger) *LineParser {
	return &LineParser{
		routeWays: make(map[int32][][]osm.WayID),
		wayNodes:  make(map[osm.WayID][]osm.NodeID),
		nodes:     make(map[osm.NodeID]geo.Coordinate),
		log:       log,
	}
}

// ParseFile reads a .pbf, .osm/.xml or .osm.bz2 file.
func (p *LineParser) ParseFile(path string) (da.LineGeometries, error) {
	open := func() (osm.Scanner, io.Closer, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, util.WrapErrorf(err, util.ErrNotFound, "open %s", path)
		}
		switch {
		case strings.HasSuffix(path, ".pbf"):
			return osmpbf.New(context.Background(), f, runtime.GOMAXPROCS(-1)), f, nil
		case strings.HasSuffix(path, ".bz2"):
			bz, err := bzip2.NewReader(f, nil)
			if err != nil {
				f.Close()
				return nil, nil, util.WrapErrorf(err, util.ErrMalformedInput, "bzip2 %s", path)
			}
			return osmxml.New(context.Background(), bz), f, nil
		default:
			return osmxml.New(context.Background(), f), f, nil
		}
	}
	return p.parse(open)
}

// ParseXML. same as ParseFile for an in-memory osm xml document.
func (p *LineParser) ParseXML(data []byte) (da.LineGeometries, error) {
	open := func() (osm.Scanner, io.Closer, error) {
		return osmxml.New(context.Background(), bytes.NewReader(data)), nopCloser{}, nil
	}
	return p.parse(open)
}

func (p *LineParser) parse(open scannerOpener) (da.LineGeometries, error) {
	passes := []struct {
		name   string
		handle func(o osm.Object)
	}{
		{name: "relations", handle: p.handleRelation},
		{name: "ways", handle: p.handleWay},
		{name: "nodes", handle: p.handleNode},
	}

	for _, pass := range passes {
		scanner, closer, err := open()
		if err != nil {
			return nil, err
		}
		for scanner.Scan() {
			pass.handle(scanner.Object())
		}
		err = scanner.Err()
		scanner.Close()
		closer.Close()
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrMalformedInput, "scanning openstreetmap %s", pass.name)
		}
	}

	lines := p.assemble()
	p.log.Info("extracted line geometries", zap.Int("lines", len(lines)),
		zap.Int("ways", len(p.wayNodes)), zap.Int("nodes", len(p.nodes)))
	return lines, nil
}

func (p *LineParser) handleRelation(o osm.Object) {
	relation, ok := o.(*osm.Relation)
	if !ok || relation.Tags.Find("type") != "route" {
		return
	}
	ref, err := strconv.ParseInt(strings.TrimSpace(relation.Tags.Find("ref")), 10, 32)
	if err != nil {
		return
	}

	ways := make([]osm.WayID, 0, len(relation.Members))
	for _, member := range relation.Members {
		if member.Type != osm.TypeWay || isStopRole(member.Role) {
			continue
		}
		id := osm.WayID(member.Ref)
		ways = append(ways, id)
		p.wayNodes[id] = nil
	}
	if len(ways) == 0 {
		return
	}
	line := int32(ref)
	p.routeWays[line] = append(p.routeWays[line], ways)
}

func (p *LineParser) handleWay(o osm.Object) {
	way, ok := o.(*osm.Way)
	if !ok {
		return
	}
	if _, wanted := p.wayNodes[way.ID]; !wanted {
		return
	}
	nodes := make([]osm.NodeID, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		nodes = append(nodes, n.ID)
		p.nodes[n.ID] = geo.Coordinate{}
	}
	p.wayNodes[way.ID] = nodes
}

func (p *LineParser) handleNode(o osm.Object) {
	node, ok := o.(*osm.Node)
	if !ok {
		return
	}
	if _, wanted := p.nodes[node.ID]; !wanted {
		return
	}
	p.nodes[node.ID] = geo.NewCoordinate(node.Lat, node.Lon)
}

func isStopRole(role string) bool {
	return strings.HasPrefix(role, "stop") || strings.HasPrefix(role, "platform")
}

// assemble chains the ways of every route into vertex sequences in travel direction.
// Ways are flipped when they connect by their last node; a gap starts a new segment.
func (p *LineParser) assemble() da.LineGeometries {
	lines := make(da.LineGeometries)
	for _, line := range util.SortedKeys(p.routeWays) {
		for _, route := range p.routeWays[line] {
			for _, chain := range p.chain(route) {
				segment := make([]geo.Coordinate, 0, len(chain))
				for _, id := range chain {
					segment = append(segment, p.nodes[id])
				}
				if len(segment) >= 2 {
					lines.AddSegment(line, segment)
				}
			}
		}
	}
	return lines
}

func (p *LineParser) chain(route []osm.WayID) [][]osm.NodeID {
	chains := make([][]osm.NodeID, 0, 1)
	var (
		cur       []osm.NodeID
		singleWay bool
	)
	flush := func() {
		if len(cur) > 0 {
			chains = append(chains, cur)
		}
		cur = nil
	}

	for _, id := range route {
		nodes := p.wayNodes[id]
		if len(nodes) == 0 {
			continue
		}
		if len(cur) == 0 {
			cur = append([]osm.NodeID(nil), nodes...)
			singleWay = true
			continue
		}

		first, last := nodes[0], nodes[len(nodes)-1]
		tail := cur[len(cur)-1]
		switch {
		case first == tail:
			cur = append(cur, nodes[1:]...)
		case last == tail:
			cur = append(cur, reversed(nodes)[1:]...)
		case singleWay && (first == cur[0] || last == cur[0]):
			// the first way of the chain runs against travel direction
			cur = reversed(cur)
			if last == cur[len(cur)-1] {
				nodes = reversed(nodes)
			}
			cur = append(cur, nodes[1:]...)
		default:
			flush()
			cur = append([]osm.NodeID(nil), nodes...)
			singleWay = true
			continue
		}
		singleWay = false
	}
	flush()
	return chains
}

func reversed(nodes []osm.NodeID) []osm.NodeID {
	out := make([]osm.NodeID, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}
