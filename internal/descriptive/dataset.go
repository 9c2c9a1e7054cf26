package descriptive

import (
	"fmt"
	"math"
)

// Kind is the external tag of a dataset document.
type Kind string

const (
	KindArray     Kind = "ARRAY"
	KindIntervals Kind = "INTERVALS"
)

// ParseKind accepts only the two known tags.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindArray, KindIntervals:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// Dataset is either a Sample or a GroupedIntervals. The unexported method
// closes the set of implementations to this package.
type Dataset interface {
	Kind() Kind
	Len() int
	isDataset()
}

// Sample is an ordered list of raw observations. Duplicates are kept.
type Sample struct {
	values []float64
}

// NewSample copies values so later changes by the caller cannot leak in.
func NewSample(values []float64) (Sample, error) {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, fmt.Errorf("%w: value %d is %v", ErrMalformedSample, i, v)
		}
	}
	return Sample{values: append([]float64(nil), values...)}, nil
}

func (Sample) Kind() Kind { return KindArray }
func (s Sample) Len() int { return len(s.values) }
func (Sample) isDataset() {}

// Values returns a copy of the observations in input order.
func (s Sample) Values() []float64 { return append([]float64(nil), s.values...) }

// Interval is one bin of grouped data.
type Interval struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Frequency float64 `json:"frequency"`
}

func (iv Interval) validate() error {
	switch {
	case math.IsNaN(iv.Start) || math.IsInf(iv.Start, 0) || math.IsNaN(iv.End) || math.IsInf(iv.End, 0):
		return fmt.Errorf("non-finite endpoint [%v, %v]", iv.Start, iv.End)
	case iv.Start >= iv.End:
		return fmt.Errorf("start %v is not below end %v", iv.Start, iv.End)
	case math.IsNaN(iv.Frequency) || math.IsInf(iv.Frequency, 0):
		return fmt.Errorf("non-finite frequency %v", iv.Frequency)
	case iv.Frequency < 0:
		return fmt.Errorf("negative frequency %v", iv.Frequency)
	}
	return nil
}

// GroupedIntervals is binned data; interval order is authoritative.
type GroupedIntervals struct {
	intervals []Interval
}

// NewGroupedIntervals validates every interval and copies the slice.
// A zero total frequency is not rejected here; the computers report it.
func NewGroupedIntervals(intervals []Interval) (GroupedIntervals, error) {
	for i, iv := range intervals {
		if err := iv.validate(); err != nil {
			return GroupedIntervals{}, fmt.Errorf("%w: interval %d: %v", ErrMalformedInterval, i, err)
		}
	}
	return GroupedIntervals{intervals: append([]Interval(nil), intervals...)}, nil
}

func (GroupedIntervals) Kind() Kind { return KindIntervals }
func (g GroupedIntervals) Len() int { return len(g.intervals) }
func (GroupedIntervals) isDataset() {}

// Intervals returns a copy of the intervals in input order.
func (g GroupedIntervals) Intervals() []Interval {
	return append([]Interval(nil), g.intervals...)
}

func (g GroupedIntervals) frequencies() []float64 {
	out := make([]float64, len(g.intervals))
	for i, iv := range g.intervals {
		out[i] = iv.Frequency
	}
	return out
}

// ValidateContiguous reports whether each interval ends exactly where the
// next one starts. Midpoint-based characteristics are only exact under this.
func ValidateContiguous(g GroupedIntervals) error {
	for i := 1; i < len(g.intervals); i++ {
		prev, cur := g.intervals[i-1], g.intervals[i]
		if prev.End != cur.Start {
			return fmt.Errorf("%w: interval %d ends at %v, interval %d starts at %v",
				ErrNonContiguousIntervals, i-1, prev.End, i, cur.Start)
		}
	}
	return nil
}

// checkDataset rejects nil and foreign implementations, then empty data.
func checkDataset(ds Dataset) error {
	switch ds.(type) {
	case Sample, GroupedIntervals:
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, ds)
	}
	if ds.Len() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyDataset, ds.Kind())
	}
	return nil
}
