package descriptive

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnsupportedType        = errors.New("unsupported dataset type")
	ErrEmptyDataset           = errors.New("dataset is empty")
	ErrDivisionByZero         = errors.New("total frequency is zero")
	ErrMalformedInterval      = errors.New("malformed interval")
	ErrMalformedSample        = errors.New("malformed sample value")
	ErrNonContiguousIntervals = errors.New("intervals are not contiguous")
	ErrNonFiniteResult        = errors.New("result overflows float64")
)

// checkFinite rejects results that overflowed to Inf or collapsed to NaN.
func checkFinite(name string, xs ...float64) error {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s is %v", ErrNonFiniteResult, name, x)
		}
	}
	return nil
}
