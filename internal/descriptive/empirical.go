package descriptive

import "gonum.org/v1/gonum/floats"

// EmpiricalDistribution is the probability and running cumulative
// probability per variation-series position.
type EmpiricalDistribution struct {
	Series      VariationSeries `json:"series"`
	Probability []float64       `json:"probability"`
	Cumulative  []float64       `json:"cumulative"`
}

// ComputeEmpiricalDistribution divides by the element count of the dataset:
// the number of raw samples, or the number of intervals. For grouped data
// this differs from the frequency-sum denominator used by
// ComputeFrequencyDistribution, so the cumulative tail only reaches 1 when
// the frequencies sum to the interval count.
func ComputeEmpiricalDistribution(ds Dataset) (EmpiricalDistribution, error) {
	freq, err := ComputeFrequencyDistribution(ds)
	if err != nil {
		return EmpiricalDistribution{}, err
	}
	n := float64(ds.Len())

	probability, err := divideAll(freq.Absolute, n)
	if err != nil {
		return EmpiricalDistribution{}, err
	}
	running := floats.CumSum(make([]float64, len(freq.Absolute)), freq.Absolute)
	if err := checkFinite("cumulative frequency", running...); err != nil {
		return EmpiricalDistribution{}, err
	}
	cumulative, err := divideAll(running, n)
	if err != nil {
		return EmpiricalDistribution{}, err
	}
	return EmpiricalDistribution{Series: freq.Series, Probability: probability, Cumulative: cumulative}, nil
}
