package battery

import (
	"fmt"
	"math"

	"gopower/domain/experiment"

	"github.com/montanaflynn/stats"
)

// NullDistributionSummary describes a reference distribution for inspection
type NullDistributionSummary struct {
	Observed       float64 `json:"observed"`
	PValue         float64 `json:"p_value"`
	Size           int     `json:"size"`
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"std_dev"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Percentile95   float64 `json:"percentile_95"`
	Percentile99   float64 `json:"percentile_99"`
	NullPercentile float64 `json:"null_percentile"`
}

// Diagnose summarizes the reference distribution of one randomization test
func Diagnose(ref *experiment.ReferenceDistribution) (*NullDistributionSummary, error) {
	if ref == nil || len(ref.Permuted) == 0 {
		return nil, fmt.Errorf("diagnose: empty reference distribution")
	}
	data := stats.Float64Data(ref.Permuted)

	mean, err := data.Mean()
	if err != nil {
		return nil, fmt.Errorf("diagnose mean: %w", err)
	}
	// A single permutation has no sample deviation; report zero spread
	stdDev, _ := data.StandardDeviationSample()
	if math.IsNaN(stdDev) {
		stdDev = 0
	}
	lo, _ := data.Min()
	hi, _ := data.Max()
	p95, _ := data.Percentile(95)
	p99, _ := data.Percentile(99)

	return &NullDistributionSummary{
		Observed:       ref.Observed,
		PValue:         ref.PValue(),
		Size:           len(ref.Permuted),
		Mean:           mean,
		StdDev:         stdDev,
		Min:            lo,
		Max:            hi,
		Percentile95:   p95,
		Percentile99:   p99,
		NullPercentile: nullPercentile(ref),
	}, nil
}

// nullPercentile is the share of permuted statistics no more extreme than the
// observed one
func nullPercentile(ref *experiment.ReferenceDistribution) float64 {
	absObserved := math.Abs(ref.Observed)
	count := 0
	for _, nullEffect := range ref.Permuted {
		if math.Abs(nullEffect) <= absObserved {
			count++
		}
	}
	return float64(count) / float64(len(ref.Permuted))
}

// PValueSummary condenses a run's p-values for reports
type PValueSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Q05    float64 `json:"q05"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// SummarizePValues condenses p-values; an empty slice yields a zero summary
func SummarizePValues(pValues []float64) PValueSummary {
	if len(pValues) == 0 {
		return PValueSummary{}
	}
	data := stats.Float64Data(pValues)
	mean, _ := data.Mean()
	median, _ := data.Median()
	q05, _ := data.Percentile(5)
	q25, _ := data.Percentile(25)
	q75, _ := data.Percentile(75)
	return PValueSummary{
		Count:  len(pValues),
		Mean:   mean,
		Median: median,
		Q05:    q05,
		Q25:    q25,
		Q75:    q75,
	}
}
