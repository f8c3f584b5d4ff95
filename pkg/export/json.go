package export

import (
	"encoding/json"
	"io"
	"os"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/util"
)

// RegionGraphs. region -> snapped path graph, the persisted graph document.
type RegionGraphs map[int64]da.RegionGraph

func ReadLocations(r io.Reader) (*da.LocationsDocument, error) {
	doc := da.NewLocationsDocument()
	if err := json.NewDecoder(r).Decode(doc); err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "decode stops document")
	}
	if doc.Data == nil {
		doc.Data = make(map[int64]da.RegionReportLocations)
	}
	if doc.Meta == nil {
		doc.Meta = make(map[int64]da.RegionMeta)
	}
	return doc, nil
}

func ReadLocationsFile(path string) (*da.LocationsDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "open %s", path)
	}
	defer f.Close()
	return ReadLocations(f)
}

func WriteLocations(w io.Writer, doc *da.LocationsDocument) error {
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "encode stops document")
	}
	return nil
}

func WriteLocationsFile(path string, doc *da.LocationsDocument) error {
	return writeFile(path, func(w io.Writer) error { return WriteLocations(w, doc) })
}

func ReadRegionGraphs(r io.Reader) (RegionGraphs, error) {
	graphs := make(RegionGraphs)
	if err := json.NewDecoder(r).Decode(&graphs); err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "decode graph document")
	}
	return graphs, nil
}

func ReadRegionGraphsFile(path string) (RegionGraphs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "open %s", path)
	}
	defer f.Close()
	return ReadRegionGraphs(f)
}

func WriteRegionGraphs(w io.Writer, graphs RegionGraphs) error {
	if err := json.NewEncoder(w).Encode(graphs); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "encode graph document")
	}
	return nil
}

func WriteRegionGraphsFile(path string, graphs RegionGraphs) error {
	return writeFile(path, func(w io.Writer) error { return WriteRegionGraphs(w, graphs) })
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "close %s", path)
	}
	return nil
}
