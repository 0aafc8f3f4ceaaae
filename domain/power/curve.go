package power

import (
	"fmt"
	"strconv"

	"gopower/domain/core"
	"gopower/domain/experiment"
)

// Variation describes one point of a power curve as a change to the base
// parameters. Unset fields keep the base value.
type Variation struct {
	Label         string   `json:"label,omitempty" yaml:"label,omitempty"`
	TreatmentMean *float64 `json:"treatment_mean,omitempty" yaml:"treatment_mean,omitempty"`
	ArmSize       *int     `json:"arm_size,omitempty" yaml:"arm_size,omitempty"`
}

// MeanShifts builds one variation per treatment-mean shift from the control mean
func MeanShifts(base experiment.Parameters, shifts []float64) []Variation {
	control := 0.0
	if len(base.Arms) > 0 {
		control = base.Arms[experiment.Control].Mean
	}
	out := make([]Variation, len(shifts))
	for i, shift := range shifts {
		mean := control + shift
		out[i] = Variation{
			Label:         "shift=" + strconv.FormatFloat(shift, 'g', -1, 64),
			TreatmentMean: &mean,
		}
	}
	return out
}

// ArmSizes builds one variation per common arm size
func ArmSizes(sizes []int) []Variation {
	out := make([]Variation, len(sizes))
	for i, n := range sizes {
		size := n
		out[i] = Variation{Label: fmt.Sprintf("n=%d", n), ArmSize: &size}
	}
	return out
}

// Apply returns the varied parameters; base is left untouched
func (v Variation) Apply(base experiment.Parameters) experiment.Parameters {
	out := base.Clone()
	if v.TreatmentMean != nil {
		out = out.WithTreatmentMean(*v.TreatmentMean)
	}
	if v.ArmSize != nil {
		out = out.WithArmSize(*v.ArmSize)
	}
	return out
}

// CurvePoint is one simulated scenario with its closed-form approximation
type CurvePoint struct {
	Label       string                `json:"label"`
	Parameters  experiment.Parameters `json:"parameters"`
	Estimate    *Estimate             `json:"estimate"`
	Approximate float64               `json:"approximate_power"`
}

// Curve is power evaluated over a list of variations. Every point shares
// the curve's seed, so points differ only through the varied parameters.
type Curve struct {
	CurveID   core.CurveID   `json:"curve_id"`
	Strategy  Strategy       `json:"strategy"`
	Seed      uint64         `json:"seed"`
	Points    []CurvePoint   `json:"points"`
	Partial   bool           `json:"partial"`
	CreatedAt core.Timestamp `json:"created_at"`
}

// Powers returns the simulated power of every point in order
func (c *Curve) Powers() []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		if p.Estimate != nil {
			out[i] = p.Estimate.Power
		}
	}
	return out
}
