package generator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gopower/domain/experiment"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalGenerator draws fixed-margin experiments with normally distributed
// outcomes. Labels come from the exact per-arm multiset, shuffled, so every
// experiment has the configured arm sizes.
type NormalGenerator struct{}

// NewNormalGenerator creates a generator
func NewNormalGenerator() *NormalGenerator {
	return &NormalGenerator{}
}

// Generate produces one experiment of params.TotalSize() units
func (g *NormalGenerator) Generate(params experiment.Parameters, rng *rand.Rand) (*experiment.Experiment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("generate: nil random source")
	}

	labels := params.Labels()
	rng.Shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})

	unit := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	rho := params.CovariateCorrelation
	residual := math.Sqrt(1 - rho*rho)

	outcomes := make([]float64, len(labels))
	var covariates []float64
	if rho != 0 {
		covariates = make([]float64, len(labels))
	}

	for i, label := range labels {
		arm := params.Arms[label]
		if covariates == nil {
			outcomes[i] = distuv.Normal{Mu: arm.Mean, Sigma: arm.Spread, Src: rng}.Rand()
			continue
		}
		x := unit.Rand()
		e := unit.Rand()
		covariates[i] = x
		outcomes[i] = arm.Mean + arm.Spread*(rho*x+residual*e)
	}

	exp, err := experiment.New(labels, outcomes)
	if err != nil {
		return nil, err
	}
	exp.Covariates = covariates
	return exp, nil
}
