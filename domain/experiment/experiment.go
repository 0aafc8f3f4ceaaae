package experiment

import (
	"fmt"
	"math"

	"gopower/domain/core"
)

// Assignment maps unit index to arm label
type Assignment []ArmID

// Counts returns the number of units per arm. The slice is indexed by ArmID
// and sized to the largest label present.
func (a Assignment) Counts() []int {
	max := -1
	for _, label := range a {
		if int(label) > max {
			max = int(label)
		}
	}
	counts := make([]int, max+1)
	for _, label := range a {
		counts[label]++
	}
	return counts
}

// Clone returns an independent copy
func (a Assignment) Clone() Assignment {
	return append(Assignment(nil), a...)
}

// SameMargins reports whether b has exactly the same per-arm counts as a
func (a Assignment) SameMargins(b Assignment) bool {
	if len(a) != len(b) {
		return false
	}
	ca, cb := a.Counts(), b.Counts()
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}

// Experiment is one realized draw: unit i received Assignment[i] and produced
// Outcomes[i]. It is owned by the repetition that generated it.
type Experiment struct {
	Assignment Assignment `json:"assignment"`
	Outcomes   []float64  `json:"outcomes"`
	Covariates []float64  `json:"covariates,omitempty"`
}

// New builds an experiment, checking that labels and outcomes line up
func New(assignment Assignment, outcomes []float64) (*Experiment, error) {
	if len(assignment) != len(outcomes) {
		return nil, fmt.Errorf("%w: %d labels for %d outcomes", core.ErrDegenerateSample, len(assignment), len(outcomes))
	}
	return &Experiment{Assignment: assignment, Outcomes: outcomes}, nil
}

// Size returns the number of units
func (e *Experiment) Size() int {
	return len(e.Outcomes)
}

// ArmOutcomes returns the outcomes observed in arm id under labels
func ArmOutcomes(outcomes []float64, labels Assignment, id ArmID) []float64 {
	var out []float64
	for i, label := range labels {
		if label == id {
			out = append(out, outcomes[i])
		}
	}
	return out
}

// ReferenceDistribution pairs an observed statistic with the statistics
// obtained by re-randomizing labels over the same outcomes.
type ReferenceDistribution struct {
	Observed float64   `json:"observed"`
	Permuted []float64 `json:"permuted"`
}

// Extreme counts permuted statistics at least as extreme as the observed one
func (r ReferenceDistribution) Extreme() int {
	threshold := math.Abs(r.Observed)
	count := 0
	for _, t := range r.Permuted {
		if math.Abs(t) >= threshold {
			count++
		}
	}
	return count
}

// PValue is the two-sided Monte-Carlo p-value with the observed statistic
// counted as a member of its own reference set: (1 + extreme) / (1 + k).
func (r ReferenceDistribution) PValue() float64 {
	return float64(1+r.Extreme()) / float64(1+len(r.Permuted))
}
