package power

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gopower/domain/core"
	"gopower/domain/experiment"
)

// Strategy selects the inner decision rule
type Strategy string

const (
	StrategyRandomization Strategy = "randomization"
	StrategyAnalytic      Strategy = "analytic"
)

// ParseStrategy parses a case-insensitive strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyRandomization, "permutation", "ri":
		return StrategyRandomization, nil
	case StrategyAnalytic, "welch", "ttest":
		return StrategyAnalytic, nil
	default:
		return "", core.NewRequestError("strategy", fmt.Sprintf("unknown strategy %q (want randomization|analytic)", s))
	}
}

// Defaults
const (
	DefaultAlpha        = 0.05
	DefaultRepetitions  = 1000
	DefaultPermutations = 500
)

// Request carries everything besides the generation parameters that shapes
// one power estimation.
type Request struct {
	Strategy     Strategy `json:"strategy" yaml:"strategy"`
	Alpha        float64  `json:"alpha" yaml:"alpha"`
	Repetitions  int      `json:"repetitions" yaml:"repetitions"`
	Permutations int      `json:"permutations,omitempty" yaml:"permutations,omitempty"`

	// Statistic names the randomization test statistic; empty means the
	// difference in means between arm 1 and arm 0.
	Statistic string `json:"statistic,omitempty" yaml:"statistic,omitempty"`

	// Seed makes the run reproducible. Nil draws a fresh seed, which is then
	// reported on the estimate.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Workers bounds concurrent repetitions; PermutationWorkers bounds the
	// fan-out inside one randomization test. Neither affects results.
	Workers            int `json:"workers,omitempty" yaml:"workers,omitempty"`
	PermutationWorkers int `json:"permutation_workers,omitempty" yaml:"permutation_workers,omitempty"`

	// MaxDuration stops the outer loop early and yields a partial estimate.
	MaxDuration time.Duration `json:"max_duration,omitempty" yaml:"max_duration,omitempty"`
}

// WithDefaults fills zero values with package defaults
func (r Request) WithDefaults() Request {
	if r.Strategy == "" {
		r.Strategy = StrategyRandomization
	}
	if r.Alpha == 0 {
		r.Alpha = DefaultAlpha
	}
	if r.Repetitions == 0 {
		r.Repetitions = DefaultRepetitions
	}
	if r.Strategy == StrategyRandomization && r.Permutations == 0 {
		r.Permutations = DefaultPermutations
	}
	return r
}

// Validate checks the request. Permutation count is checked here so a bad
// value fails before any simulation starts.
func (r Request) Validate() error {
	switch r.Strategy {
	case StrategyRandomization:
		if r.Permutations < 1 {
			return fmt.Errorf("%w: permutation count must be >= 1, got %d", core.ErrInsufficientPermutations, r.Permutations)
		}
	case StrategyAnalytic:
	default:
		return core.NewRequestError("strategy", fmt.Sprintf("unknown strategy %q", r.Strategy))
	}
	if math.IsNaN(r.Alpha) || r.Alpha <= 0 || r.Alpha >= 1 {
		return core.NewRequestError("alpha", fmt.Sprintf("must lie in (0, 1), got %v", r.Alpha))
	}
	if r.Repetitions < 1 {
		return core.NewRequestError("repetitions", fmt.Sprintf("must be >= 1, got %d", r.Repetitions))
	}
	if r.Workers < 0 || r.PermutationWorkers < 0 {
		return core.NewRequestError("workers", "must not be negative")
	}
	if r.MaxDuration < 0 {
		return core.NewRequestError("max_duration", "must not be negative")
	}
	return nil
}

// Outcome is the per-repetition diagnostic
type Outcome struct {
	Repetition int     `json:"repetition"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Rejected   bool    `json:"rejected"`
}

// Estimate is the result of one power estimation
type Estimate struct {
	RunID        core.RunID            `json:"run_id"`
	Strategy     Strategy              `json:"strategy"`
	Alpha        float64               `json:"alpha"`
	Seed         uint64                `json:"seed"`
	Permutations int                   `json:"permutations,omitempty"`
	Statistic    string                `json:"statistic,omitempty"`
	Parameters   experiment.Parameters `json:"parameters"`

	Requested  int       `json:"requested"`
	Completed  int       `json:"completed"`
	Rejections int       `json:"rejections"`
	Power      float64   `json:"power"`
	Outcomes   []Outcome `json:"outcomes"`

	// Partial is set when the run stopped before all repetitions finished
	Partial bool `json:"partial"`

	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
	Elapsed     time.Duration  `json:"elapsed"`
}

// PValues returns the per-repetition p-values in repetition order
func (e *Estimate) PValues() []float64 {
	out := make([]float64, len(e.Outcomes))
	for i, o := range e.Outcomes {
		out[i] = o.PValue
	}
	return out
}

// NewEstimate assembles an estimate from completed outcomes. Outcomes may
// arrive in any order; they are sorted by repetition index.
func NewEstimate(runID core.RunID, params experiment.Parameters, req Request, seed uint64, outcomes []Outcome) *Estimate {
	sorted := append([]Outcome(nil), outcomes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Repetition < sorted[j].Repetition })

	tally := TallyOf(sorted)

	est := &Estimate{
		RunID:      runID,
		Strategy:   req.Strategy,
		Alpha:      req.Alpha,
		Seed:       seed,
		Parameters: params,
		Requested:  req.Repetitions,
		Completed:  tally.Completed,
		Rejections: tally.Rejections,
		Power:      tally.Rate(),
		Outcomes:   sorted,
		Partial:    len(sorted) < req.Repetitions,
		CreatedAt:  core.Now(),
	}
	if req.Strategy == StrategyRandomization {
		est.Permutations = req.Permutations
		est.Statistic = req.Statistic
	}
	est.Fingerprint = est.ComputeFingerprint()
	return est
}

// ComputeFingerprint hashes every field that must be bit-identical across
// runs with the same seed. Run IDs and timings are excluded.
func (e *Estimate) ComputeFingerprint() core.Hash {
	h := core.NewHasher().
		String(string(e.Strategy)).
		Float64(e.Alpha).
		Uint64(e.Seed).
		Int(e.Permutations).
		String(e.Statistic).
		Int(e.Requested)
	e.Parameters.Hash(h)
	for _, o := range e.Outcomes {
		h.Int(o.Repetition).Float64(o.Statistic).Float64(o.PValue).Bool(o.Rejected)
	}
	return h.Sum()
}
