package descriptive

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// VariationSeries holds either the sorted distinct sample values or one
// "start ; end" label per interval, depending on Kind.
type VariationSeries struct {
	Kind   Kind
	Values []float64
	Labels []string
}

func (s VariationSeries) Len() int {
	if s.Kind == KindIntervals {
		return len(s.Labels)
	}
	return len(s.Values)
}

// Label renders position i the way it appears in the series.
func (s VariationSeries) Label(i int) string {
	if s.Kind == KindIntervals {
		return s.Labels[i]
	}
	return formatNumber(s.Values[i])
}

// MarshalJSON emits the series as a plain array of numbers or labels.
func (s VariationSeries) MarshalJSON() ([]byte, error) {
	if s.Kind == KindIntervals {
		return json.Marshal(nonNilStrings(s.Labels))
	}
	return json.Marshal(nonNilFloats(s.Values))
}

// FormatInterval renders an interval label using the shortest decimal form
// of each endpoint.
func FormatInterval(start, end float64) string {
	return fmt.Sprintf("%s ; %s", formatNumber(start), formatNumber(end))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ComputeVariationSeries derives the variation series of ds.
func ComputeVariationSeries(ds Dataset) (VariationSeries, error) {
	if err := checkDataset(ds); err != nil {
		return VariationSeries{}, err
	}
	switch d := ds.(type) {
	case Sample:
		values, _ := distinctCounts(d.values)
		return VariationSeries{Kind: KindArray, Values: values}, nil
	case GroupedIntervals:
		labels := make([]string, len(d.intervals))
		for i, iv := range d.intervals {
			labels[i] = FormatInterval(iv.Start, iv.End)
		}
		return VariationSeries{Kind: KindIntervals, Labels: labels}, nil
	}
	return VariationSeries{}, fmt.Errorf("%w: %T", ErrUnsupportedType, ds)
}

// distinctCounts returns the ascending distinct values of xs and how often
// each occurs. Equality is exact.
func distinctCounts(xs []float64) ([]float64, []float64) {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	var values, counts []float64
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			counts[len(counts)-1]++
			continue
		}
		values = append(values, v)
		counts = append(counts, 1)
	}
	return values, counts
}

func nonNilFloats(xs []float64) []float64 {
	if xs == nil {
		return []float64{}
	}
	return xs
}

func nonNilStrings(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
