package ports

import (
	"context"
	"math/rand/v2"

	"gopower/domain/experiment"
	"gopower/domain/power"
)

// TestPort decides one experiment. Randomization tests draw their permutations
// from rng; analytic tests ignore it.
type TestPort interface {
	Name() string
	Test(ctx context.Context, exp *experiment.Experiment, rng *rand.Rand) (*TestResult, error)
}

// TestResult contains the outcome of testing one experiment
type TestResult struct {
	TestUsed  string
	Statistic float64
	PValue    float64

	// Reference is populated by randomization tests only
	Reference *experiment.ReferenceDistribution
}

// TestFactory builds the decision rule a request asks for
type TestFactory func(req power.Request) (TestPort, error)
