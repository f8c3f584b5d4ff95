package pkg

import "time"

const (
	GENERATOR         = "lofi"
	GENERATOR_VERSION = "0.3.0"
)

const (
	// maximum distance between a telegram and a bracketing gps fix
	DEFAULT_CORRELATION_WINDOW_SECOND int64 = 5

	// same-run scan of the graph builder gives up after this much time
	RUN_SCAN_TIME_THRESHOLD = 10 * time.Minute

	// expected transit time between two reporting points
	NOMINAL_TRANSIT_TIME = 120 * time.Second

	// retained edges need rating > SIGNIFICANCE_MULTIPLIER * sigma
	SIGNIFICANCE_MULTIPLIER = 2.0

	// historical time written for an edge without transit samples (ms)
	DEFAULT_HISTORICAL_TIME_MS uint32 = 120
)
