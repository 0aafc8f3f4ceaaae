package battery

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/ports"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// WelchReferee is the analytic stand-in for randomization inference: a
// two-sample t-test with unequal variances between two arms.
type WelchReferee struct {
	Treatment experiment.ArmID
	Control   experiment.ArmID
}

// NewWelchReferee compares arm 1 against arm 0
func NewWelchReferee() *WelchReferee {
	return &WelchReferee{Treatment: experiment.Treatment, Control: experiment.Control}
}

// Name returns the test name
func (w *WelchReferee) Name() string {
	return "welch_ttest"
}

// WelchResult holds the pieces of one Welch test
type WelchResult struct {
	TStatistic float64
	DF         float64
	PValue     float64
	MeanDiff   float64
}

// Test runs Welch's t-test on one experiment. The random source is unused.
func (w *WelchReferee) Test(ctx context.Context, exp *experiment.Experiment, _ *rand.Rand) (*ports.TestResult, error) {
	if exp == nil {
		return nil, fmt.Errorf("%w: nil experiment", core.ErrDegenerateSample)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Every realized arm needs a variance, not just the two compared
	for arm, n := range exp.Assignment.Counts() {
		if n > 0 && n < experiment.MinArmSize {
			return nil, core.NewDegenerateSampleError(arm, n)
		}
	}

	treatment := experiment.ArmOutcomes(exp.Outcomes, exp.Assignment, w.Treatment)
	control := experiment.ArmOutcomes(exp.Outcomes, exp.Assignment, w.Control)

	res, err := ComputeWelchTTest(treatment, control)
	if err != nil {
		return nil, err
	}

	return &ports.TestResult{
		TestUsed:  w.Name(),
		Statistic: res.MeanDiff,
		PValue:    res.PValue,
	}, nil
}

// ComputeWelchTTest performs Welch's t-test of group1 against group2
func ComputeWelchTTest(group1, group2 []float64) (WelchResult, error) {
	if len(group1) < experiment.MinArmSize {
		return WelchResult{}, core.NewDegenerateSampleError(1, len(group1))
	}
	if len(group2) < experiment.MinArmSize {
		return WelchResult{}, core.NewDegenerateSampleError(0, len(group2))
	}

	n1 := float64(len(group1))
	n2 := float64(len(group2))

	mean1, var1 := stat.MeanVariance(group1, nil)
	mean2, var2 := stat.MeanVariance(group2, nil)
	diff := mean1 - mean2

	// Welch's t-statistic: t = (mean1 - mean2) / sqrt(var1/n1 + var2/n2)
	a, b := var1/n1, var2/n2
	se := math.Sqrt(a + b)
	if se == 0 {
		// Both arms constant: the difference is either exactly zero or certain
		p := 0.0
		if diff == 0 {
			p = 1
		}
		return WelchResult{MeanDiff: diff, PValue: p, DF: n1 + n2 - 2}, nil
	}
	tStat := diff / se

	// Degrees of freedom using Welch-Satterthwaite equation
	df := (a + b) * (a + b) / (a*a/(n1-1) + b*b/(n2-1))

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue := 2 * tDist.Survival(math.Abs(tStat))
	pValue = math.Min(1, math.Max(0, pValue))

	return WelchResult{
		TStatistic: tStat,
		DF:         df,
		PValue:     pValue,
		MeanDiff:   diff,
	}, nil
}
