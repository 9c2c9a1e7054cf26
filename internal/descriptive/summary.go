package descriptive

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Quartiles are nearest-rank order statistics of a Sample.
type Quartiles struct {
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
}

// Summary describes the range of a dataset. Count is the number of samples,
// or the total frequency for grouped data. Quartiles are nil for grouped data.
type Summary struct {
	Count     float64    `json:"count"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Quartiles *Quartiles `json:"quartiles,omitempty"`
}

func Summarize(ds Dataset) (Summary, error) {
	if err := checkDataset(ds); err != nil {
		return Summary{}, err
	}
	switch d := ds.(type) {
	case Sample:
		return summarizeSample(d.values), nil
	case GroupedIntervals:
		s := Summary{Count: floats.Sum(d.frequencies()), Min: math.Inf(1), Max: math.Inf(-1)}
		if err := checkFinite("total frequency", s.Count); err != nil {
			return Summary{}, err
		}
		for _, iv := range d.intervals {
			s.Min = math.Min(s.Min, iv.Start)
			s.Max = math.Max(s.Max, iv.End)
		}
		return s, nil
	}
	return Summary{}, fmt.Errorf("%w: %T", ErrUnsupportedType, ds)
}

func summarizeSample(samples []float64) Summary {
	s := append([]float64(nil), samples...)
	sort.Float64s(s)
	n := len(s)

	var median float64
	if n%2 == 1 {
		median = s[n/2]
	} else {
		median = (s[n/2-1] + s[n/2]) / 2.0
	}

	idx := func(f float64) int {
		i := int(math.Ceil(f) - 1)
		if i < 0 {
			i = 0
		}
		if i >= n {
			i = n - 1
		}
		return i
	}
	return Summary{
		Count: float64(n),
		Min:   s[0],
		Max:   s[n-1],
		Quartiles: &Quartiles{
			Q1:     s[idx(float64(n)/4.0)],
			Median: median,
			Q3:     s[idx(float64(3*n)/4.0)],
		},
	}
}
