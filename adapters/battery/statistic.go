package battery

import (
	"fmt"
	"math"

	"gopower/domain/core"
	"gopower/domain/experiment"
)

// Statistic computes a scalar contrast from outcomes under a labelling
type Statistic interface {
	Name() string
	Compute(outcomes []float64, labels experiment.Assignment) (float64, error)
}

// StatisticFunc adapts a plain function to Statistic
type StatisticFunc struct {
	Label string
	Fn    func(outcomes []float64, labels experiment.Assignment) (float64, error)
}

func (s StatisticFunc) Name() string { return s.Label }

func (s StatisticFunc) Compute(outcomes []float64, labels experiment.Assignment) (float64, error) {
	return s.Fn(outcomes, labels)
}

// DifferenceInMeans is mean(Treatment) - mean(Control)
type DifferenceInMeans struct {
	Treatment experiment.ArmID
	Control   experiment.ArmID
}

// DefaultStatistic compares arm 1 against arm 0
func DefaultStatistic() DifferenceInMeans {
	return DifferenceInMeans{Treatment: experiment.Treatment, Control: experiment.Control}
}

func (d DifferenceInMeans) Name() string { return "difference_in_means" }

func (d DifferenceInMeans) Compute(outcomes []float64, labels experiment.Assignment) (float64, error) {
	if len(outcomes) != len(labels) {
		return 0, fmt.Errorf("%w: %d outcomes for %d labels", core.ErrDegenerateSample, len(outcomes), len(labels))
	}

	var sumT, sumC float64
	var nT, nC int
	for i, label := range labels {
		switch label {
		case d.Treatment:
			sumT += outcomes[i]
			nT++
		case d.Control:
			sumC += outcomes[i]
			nC++
		}
	}
	if nT == 0 {
		return 0, fmt.Errorf("%w: arm %d has no observations", core.ErrDegenerateSample, d.Treatment)
	}
	if nC == 0 {
		return 0, fmt.Errorf("%w: arm %d has no observations", core.ErrDegenerateSample, d.Control)
	}
	return sumT/float64(nT) - sumC/float64(nC), nil
}

// RangeOfMeans is the spread between the highest and lowest arm means, an
// omnibus contrast for designs with more than two arms.
type RangeOfMeans struct{}

func (RangeOfMeans) Name() string { return "range_of_means" }

func (RangeOfMeans) Compute(outcomes []float64, labels experiment.Assignment) (float64, error) {
	if len(outcomes) != len(labels) {
		return 0, fmt.Errorf("%w: %d outcomes for %d labels", core.ErrDegenerateSample, len(outcomes), len(labels))
	}

	counts := labels.Counts()
	sums := make([]float64, len(counts))
	for i, label := range labels {
		sums[label] += outcomes[i]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	present := 0
	for arm, n := range counts {
		if n == 0 {
			continue
		}
		present++
		m := sums[arm] / float64(n)
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}
	if present < 2 {
		return 0, fmt.Errorf("%w: need at least 2 observed arms, got %d", core.ErrDegenerateSample, present)
	}
	return hi - lo, nil
}

// StatisticByName resolves a configured statistic
func StatisticByName(name string) (Statistic, error) {
	switch name {
	case "", "difference_in_means":
		return DefaultStatistic(), nil
	case "range_of_means":
		return RangeOfMeans{}, nil
	default:
		return nil, core.NewRequestError("statistic", fmt.Sprintf("unknown statistic %q", name))
	}
}
