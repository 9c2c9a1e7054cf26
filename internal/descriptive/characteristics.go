package descriptive

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// NumericalCharacteristics are population moments; variance divides by N.
type NumericalCharacteristics struct {
	Mean         float64 `json:"mean"`
	Variance     float64 `json:"variance"`
	StdDeviation float64 `json:"std_deviation"`
}

// ComputeNumericalCharacteristics uses the plain formulas for a Sample and
// frequency-weighted midpoints for GroupedIntervals.
func ComputeNumericalCharacteristics(ds Dataset) (NumericalCharacteristics, error) {
	if err := checkDataset(ds); err != nil {
		return NumericalCharacteristics{}, err
	}
	switch d := ds.(type) {
	case Sample:
		return sampleCharacteristics(d.values)
	case GroupedIntervals:
		return groupedCharacteristics(Midpoints(d), d.frequencies())
	}
	return NumericalCharacteristics{}, fmt.Errorf("%w: %T", ErrUnsupportedType, ds)
}

func sampleCharacteristics(values []float64) (NumericalCharacteristics, error) {
	mean, err := stats.Mean(values)
	if err != nil {
		return NumericalCharacteristics{}, fmt.Errorf("mean: %w", err)
	}
	variance, err := stats.PopulationVariance(values)
	if err != nil {
		return NumericalCharacteristics{}, fmt.Errorf("variance: %w", err)
	}
	return finiteCharacteristics(mean, variance)
}

// groupedCharacteristics pairs midpoints with frequencies by position up to
// the shorter of the two, but always divides by the sum of every frequency.
func groupedCharacteristics(midpoints, weights []float64) (NumericalCharacteristics, error) {
	total := floats.Sum(weights)
	if err := checkFinite("total frequency", total); err != nil {
		return NumericalCharacteristics{}, err
	}
	if total == 0 {
		return NumericalCharacteristics{}, ErrDivisionByZero
	}
	k := min(len(midpoints), len(weights))
	x, w := midpoints[:k], weights[:k]

	mean := floats.Dot(x, w) / total
	var sumsq float64
	for i := range x {
		d := x[i] - mean
		sumsq += w[i] * d * d
	}
	return finiteCharacteristics(mean, sumsq/total)
}

func finiteCharacteristics(mean, variance float64) (NumericalCharacteristics, error) {
	if err := checkFinite("mean", mean); err != nil {
		return NumericalCharacteristics{}, err
	}
	if err := checkFinite("variance", variance); err != nil {
		return NumericalCharacteristics{}, err
	}
	return NumericalCharacteristics{Mean: mean, Variance: variance, StdDeviation: math.Sqrt(variance)}, nil
}

// Midpoints averages each adjacent pair of the distinct, ascending interval
// endpoints. This yields one midpoint per interval only when the intervals
// are contiguous; see ValidateContiguous.
func Midpoints(g GroupedIntervals) []float64 {
	seen := make(map[float64]struct{}, 2*len(g.intervals))
	var endpoints []float64
	for _, iv := range g.intervals {
		for _, v := range [2]float64{iv.Start, iv.End} {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			endpoints = append(endpoints, v)
		}
	}
	sort.Float64s(endpoints)

	if len(endpoints) < 2 {
		return nil
	}
	mid := make([]float64, len(endpoints)-1)
	for i := range mid {
		mid[i] = (endpoints[i] + endpoints[i+1]) / 2
	}
	return mid
}
