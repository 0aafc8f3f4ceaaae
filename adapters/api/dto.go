package api

import (
	"time"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"
)

// ArmRequest is one arm of a JSON request
type ArmRequest struct {
	Size   int     `json:"size" validate:"gte=2"`
	Mean   float64 `json:"mean"`
	Spread float64 `json:"spread" validate:"gt=0"`
}

// PowerRequest is the body of POST /v1/power
type PowerRequest struct {
	Arms                 []ArmRequest `json:"arms" validate:"min=2,dive"`
	CovariateCorrelation float64      `json:"covariate_correlation" validate:"gt=-1,lt=1"`

	Strategy     string  `json:"strategy" validate:"omitempty,oneof=randomization analytic permutation ri welch ttest"`
	Alpha        float64 `json:"alpha" validate:"gte=0,lt=1"`
	Repetitions  int     `json:"repetitions" validate:"gte=0,lte=1000000"`
	Permutations int     `json:"permutations" validate:"lte=100000"`
	Statistic    string  `json:"statistic" validate:"omitempty,oneof=difference_in_means range_of_means"`
	Seed         *uint64 `json:"seed"`
	Workers      int     `json:"workers" validate:"gte=0,lte=256"`
	MaxDuration  string  `json:"max_duration"`

	IncludeOutcomes bool `json:"include_outcomes"`
}

// CurveRequest is the body of POST /v1/curve
type CurveRequest struct {
	PowerRequest
	Shifts []float64 `json:"shifts" validate:"required_without=Sizes"`
	Sizes  []int     `json:"sizes" validate:"required_without=Shifts,dive,gte=2"`
}

// Parameters converts the arms to generation parameters
func (r PowerRequest) Parameters() experiment.Parameters {
	arms := make([]experiment.Arm, len(r.Arms))
	for i, a := range r.Arms {
		arms[i] = experiment.Arm{Size: a.Size, Mean: a.Mean, Spread: a.Spread}
	}
	return experiment.Parameters{Arms: arms, CovariateCorrelation: r.CovariateCorrelation}
}

// Request converts the body to an estimation request
func (r PowerRequest) Request() (power.Request, error) {
	req := power.Request{
		Alpha:        r.Alpha,
		Repetitions:  r.Repetitions,
		Permutations: r.Permutations,
		Statistic:    r.Statistic,
		Seed:         r.Seed,
		Workers:      r.Workers,
	}
	if r.Strategy != "" {
		strategy, err := power.ParseStrategy(r.Strategy)
		if err != nil {
			return power.Request{}, err
		}
		req.Strategy = strategy
	}
	if r.MaxDuration != "" {
		d, err := time.ParseDuration(r.MaxDuration)
		if err != nil {
			return power.Request{}, core.NewRequestError("max_duration", err.Error())
		}
		req.MaxDuration = d
	}
	return req, nil
}

// Variations lists the curve points: shifts first, then sizes
func (r CurveRequest) Variations(base experiment.Parameters) []power.Variation {
	return append(power.MeanShifts(base, r.Shifts), power.ArmSizes(r.Sizes)...)
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
