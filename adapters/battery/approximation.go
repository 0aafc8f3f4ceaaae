package battery

import (
	"fmt"
	"math"

	"gopower/domain/core"
	"gopower/domain/experiment"

	"gonum.org/v1/gonum/stat/distuv"
)

// ApproximatePower is the closed-form normal approximation to the power of a
// two-sided test of arm treatment against arm control. It ignores the
// t-distribution's heavier tails, so it runs slightly high at small n.
func ApproximatePower(params experiment.Parameters, alpha float64, treatment, control experiment.ArmID) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	if alpha <= 0 || alpha >= 1 {
		return 0, core.NewRequestError("alpha", fmt.Sprintf("must lie in (0, 1), got %v", alpha))
	}
	if int(treatment) >= len(params.Arms) || int(control) >= len(params.Arms) || treatment < 0 || control < 0 {
		return 0, core.NewParameterError("arms", fmt.Sprintf("arms %d/%d not configured", treatment, control))
	}

	t := params.Arms[treatment]
	c := params.Arms[control]

	se := math.Sqrt(t.Spread*t.Spread/float64(t.Size) + c.Spread*c.Spread/float64(c.Size))
	delta := math.Abs(t.Mean-c.Mean) / se

	unit := distuv.Normal{Mu: 0, Sigma: 1}
	zAlpha := unit.Quantile(1 - alpha/2)

	return unit.CDF(delta-zAlpha) + unit.CDF(-delta-zAlpha), nil
}
