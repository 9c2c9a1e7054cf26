package descriptive

// Report bundles every derived view of one dataset.
type Report struct {
	Kind            Kind                     `json:"type"`
	Summary         Summary                  `json:"summary"`
	VariationSeries VariationSeries          `json:"variation_series"`
	Frequencies     FrequencyDistribution    `json:"frequency_distribution"`
	Empirical       EmpiricalDistribution    `json:"empirical_distribution"`
	Characteristics NumericalCharacteristics `json:"numerical_characteristics"`
}

// Describe runs every computer over ds. The first failure aborts the report.
func Describe(ds Dataset) (Report, error) {
	var (
		r   Report
		err error
	)
	if r.Summary, err = Summarize(ds); err != nil {
		return Report{}, err
	}
	if r.VariationSeries, err = ComputeVariationSeries(ds); err != nil {
		return Report{}, err
	}
	if r.Frequencies, err = ComputeFrequencyDistribution(ds); err != nil {
		return Report{}, err
	}
	if r.Empirical, err = ComputeEmpiricalDistribution(ds); err != nil {
		return Report{}, err
	}
	if r.Characteristics, err = ComputeNumericalCharacteristics(ds); err != nil {
		return Report{}, err
	}
	r.Kind = ds.Kind()
	return r, nil
}
