package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("unexpected EOF")
	err := WrapErrorf(orig, ErrMalformedInput, "read %s", "telegrams.csv")

	assert.Equal(t, "read telegrams.csv: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, orig)
	assert.Equal(t, ErrMalformedInput, ErrorCode(err))

	wrapped := fmt.Errorf("correlate: %w", err)
	assert.Equal(t, ErrMalformedInput, ErrorCode(wrapped))

	assert.Equal(t, "no run", WrapErrorf(nil, ErrNotFound, "no run").Error())
	assert.Nil(t, ErrorCode(orig))
}

func TestSortedKeys(t *testing.T) {
	m := map[int32]string{300: "c", 100: "a", 200: "b"}
	assert.Equal(t, []int32{100, 200, 300}, SortedKeys(m))
	assert.Empty(t, SortedKeys(map[int64]bool{}))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"a.csv", []string{"a.csv"}},
		{"a.csv, b.csv,,c.csv ", []string{"a.csv", "b.csv", "c.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.in))
		})
	}
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 0.1235, RoundFloat(0.123456, 4))
	assert.Equal(t, 51.0, RoundFloat(50.99999, 2))
}

func TestValidateStruct(t *testing.T) {
	type params struct {
		Lat    float64 `validate:"min=-90,max=90"`
		Radius float64 `validate:"gt=0"`
	}

	require.NoError(t, ValidateStruct(params{Lat: 51, Radius: 1}))

	err := ValidateStruct(params{Lat: 91, Radius: 0})
	require.Error(t, err)
	assert.Equal(t, ErrBadParamInput, ErrorCode(err))
	assert.Contains(t, err.Error(), "Lat")
	assert.Contains(t, err.Error(), "Radius")
}
