package telegram

import (
	"io"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
)

// Source. lazy, finite, non-restartable sequence of telegrams. Next returns io.EOF
// once exhausted.
type Source interface {
	Next() (*da.Telegram, error)
}

type sliceSource struct {
	telegrams []da.Telegram
	pos       int
}

// FromSlice. Source over in-memory telegrams
func FromSlice(telegrams []da.Telegram) Source {
	return &sliceSource{telegrams: telegrams}
}

func (s *sliceSource) Next() (*da.Telegram, error) {
	if s.pos >= len(s.telegrams) {
		return nil, io.EOF
	}
	tg := s.telegrams[s.pos]
	s.pos++
	return &tg, nil
}

type concatSource struct {
	sources []Source
}

// Concat drains sources one after the other.
func Concat(sources ...Source) Source {
	return &concatSource{sources: sources}
}

func (c *concatSource) Next() (*da.Telegram, error) {
	for len(c.sources) > 0 {
		tg, err := c.sources[0].Next()
		if err == io.EOF {
			c.sources = c.sources[1:]
			continue
		}
		return tg, err
	}
	return nil, io.EOF
}

// Collect drains src into a slice.
func Collect(src Source) ([]da.Telegram, error) {
	telegrams := make([]da.Telegram, 0)
	for {
		tg, err := src.Next()
		if err == io.EOF {
			return telegrams, nil
		}
		if err != nil {
			return nil, err
		}
		telegrams = append(telegrams, *tg)
	}
}
