package descriptive

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// FrequencyDistribution keeps three position-aligned sequences.
type FrequencyDistribution struct {
	Series   VariationSeries `json:"series"`
	Absolute []float64       `json:"absolute"`
	Relative []float64       `json:"relative"`
}

// ComputeFrequencyDistribution counts occurrences per distinct value for a
// Sample (relative to the sample size) and takes the stored frequencies for
// GroupedIntervals (relative to their sum).
func ComputeFrequencyDistribution(ds Dataset) (FrequencyDistribution, error) {
	series, err := ComputeVariationSeries(ds)
	if err != nil {
		return FrequencyDistribution{}, err
	}

	var absolute []float64
	var total float64
	switch d := ds.(type) {
	case Sample:
		_, absolute = distinctCounts(d.values)
		total = float64(len(d.values))
	case GroupedIntervals:
		absolute = d.frequencies()
		total = floats.Sum(absolute)
	default:
		return FrequencyDistribution{}, fmt.Errorf("%w: %T", ErrUnsupportedType, ds)
	}

	if err := checkFinite("total frequency", total); err != nil {
		return FrequencyDistribution{}, err
	}
	relative, err := divideAll(absolute, total)
	if err != nil {
		return FrequencyDistribution{}, err
	}
	return FrequencyDistribution{Series: series, Absolute: absolute, Relative: relative}, nil
}

func divideAll(xs []float64, denominator float64) ([]float64, error) {
	if denominator == 0 {
		return nil, ErrDivisionByZero
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x / denominator
	}
	return out, nil
}
