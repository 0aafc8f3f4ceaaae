package experiment

import (
	"fmt"
	"math"

	"gopower/domain/core"
)

// ArmID tags an arm by its position in Parameters.Arms. Arm 0 is the control.
type ArmID int

const (
	Control   ArmID = 0
	Treatment ArmID = 1
)

// String returns a stable label for logs and reports
func (a ArmID) String() string {
	switch a {
	case Control:
		return "control"
	case Treatment:
		return "treatment"
	default:
		return fmt.Sprintf("arm_%d", int(a))
	}
}

// Arm describes one treatment condition: its fixed sample size and the normal
// outcome distribution its units are drawn from.
type Arm struct {
	Size   int     `json:"size" yaml:"size"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Spread float64 `json:"spread" yaml:"spread"`
}

// Parameters is the hypothesized data-generating process. It is read-only
// once handed to the engine and is shared across all repetitions.
type Parameters struct {
	Arms []Arm `json:"arms" yaml:"arms"`

	// CovariateCorrelation, when non-zero, gives every unit a standard-normal
	// baseline covariate correlated with its outcome at this level.
	CovariateCorrelation float64 `json:"covariate_correlation,omitempty" yaml:"covariate_correlation,omitempty"`
}

// MinArmSize is the smallest arm that still has a within-arm variance.
const MinArmSize = 2

// Validate checks the invariants every component relies on
func (p Parameters) Validate() error {
	if len(p.Arms) < 2 {
		return core.NewParameterError("arms", fmt.Sprintf("need at least 2 arms, got %d", len(p.Arms)))
	}
	for i, arm := range p.Arms {
		field := fmt.Sprintf("arms[%d]", i)
		if arm.Size < MinArmSize {
			return core.NewParameterError(field+".size", fmt.Sprintf("must be >= %d, got %d", MinArmSize, arm.Size))
		}
		if math.IsNaN(arm.Mean) || math.IsInf(arm.Mean, 0) {
			return core.NewParameterError(field+".mean", "must be finite")
		}
		if !(arm.Spread > 0) || math.IsInf(arm.Spread, 0) {
			return core.NewParameterError(field+".spread", fmt.Sprintf("must be a finite value > 0, got %v", arm.Spread))
		}
	}
	rho := p.CovariateCorrelation
	if math.IsNaN(rho) || rho <= -1 || rho >= 1 {
		return core.NewParameterError("covariate_correlation", fmt.Sprintf("must lie in (-1, 1), got %v", rho))
	}
	return nil
}

// TotalSize is the number of units in one experiment
func (p Parameters) TotalSize() int {
	total := 0
	for _, arm := range p.Arms {
		total += arm.Size
	}
	return total
}

// Labels returns the fixed label multiset in arm order, before any shuffling
func (p Parameters) Labels() Assignment {
	labels := make(Assignment, 0, p.TotalSize())
	for i, arm := range p.Arms {
		for j := 0; j < arm.Size; j++ {
			labels = append(labels, ArmID(i))
		}
	}
	return labels
}

// WithTreatmentMean returns a copy with the treatment arm's mean replaced
func (p Parameters) WithTreatmentMean(mean float64) Parameters {
	out := p.Clone()
	if len(out.Arms) > int(Treatment) {
		out.Arms[Treatment].Mean = mean
	}
	return out
}

// WithArmSize returns a copy with every arm resized to n
func (p Parameters) WithArmSize(n int) Parameters {
	out := p.Clone()
	for i := range out.Arms {
		out.Arms[i].Size = n
	}
	return out
}

// Clone deep-copies the arm slice so variations never alias the caller's value
func (p Parameters) Clone() Parameters {
	out := p
	out.Arms = append([]Arm(nil), p.Arms...)
	return out
}

// Hash folds the parameters into h
func (p Parameters) Hash(h *core.Hasher) *core.Hasher {
	h.Int(len(p.Arms))
	for _, arm := range p.Arms {
		h.Int(arm.Size).Float64(arm.Mean).Float64(arm.Spread)
	}
	return h.Float64(p.CovariateCorrelation)
}
