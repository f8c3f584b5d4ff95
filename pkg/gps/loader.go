package gps

import (
	"runtime"

	"github.com/dump-dvb/lofi/pkg/concurrent"
	"go.uber.org/zap"
)

type loadResult struct {
	path  string
	track *Track
	err   error
}

// LoadTracks parses all gpx files in parallel and merges them into one Track.
// Merging happens in path order so the first-fix-wins rule stays deterministic.
func LoadTracks(paths []string, log *zap.Logger) (*Track, error) {
	numWorkers := runtime.NumCPU()
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}
	if numWorkers == 0 {
		return NewTrack(), nil
	}

	wp := concurrent.NewWorkerPool[string, loadResult](numWorkers, len(paths))
	wp.Start(func(path string) loadResult {
		track, err := ReadGPXFile(path)
		return loadResult{path: path, track: track, err: err}
	})
	for _, p := range paths {
		wp.AddJob(p)
	}
	wp.Close()
	wp.Wait()

	byPath := make(map[string]*Track, len(paths))
	for res := range wp.CollectResults() {
		if res.err != nil {
			return nil, res.err
		}
		byPath[res.path] = res.track
	}

	track := NewTrack()
	for _, p := range paths {
		dup := track.Merge(byPath[p])
		log.Info("loaded gps track", zap.String("file", p), zap.Int("fixes", byPath[p].Len()),
			zap.Int("duplicate_seconds", dup))
	}
	return track, nil
}
