package power

import (
	"testing"

	"gopower/domain/core"
	"gopower/domain/experiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"randomization": StrategyRandomization,
		" Permutation ": StrategyRandomization,
		"analytic":      StrategyAnalytic,
		"WELCH":         StrategyAnalytic,
	} {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStrategy("bootstrap")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestRequest_Defaults(t *testing.T) {
	req := Request{}.WithDefaults()
	assert.Equal(t, StrategyRandomization, req.Strategy)
	assert.Equal(t, DefaultAlpha, req.Alpha)
	assert.Equal(t, DefaultRepetitions, req.Repetitions)
	assert.Equal(t, DefaultPermutations, req.Permutations)
	require.NoError(t, req.Validate())

	analytic := Request{Strategy: StrategyAnalytic}.WithDefaults()
	assert.Zero(t, analytic.Permutations)
	require.NoError(t, analytic.Validate())
}

func TestRequest_Validate(t *testing.T) {
	base := Request{Strategy: StrategyRandomization, Alpha: 0.05, Repetitions: 10, Permutations: 10}

	tests := []struct {
		name   string
		mutate func(r *Request)
		want   error
	}{
		{"no permutations", func(r *Request) { r.Permutations = 0 }, core.ErrInsufficientPermutations},
		{"negative permutations", func(r *Request) { r.Permutations = -5 }, core.ErrInsufficientPermutations},
		{"alpha zero", func(r *Request) { r.Alpha = 0 }, core.ErrInvalidRequest},
		{"alpha one", func(r *Request) { r.Alpha = 1 }, core.ErrInvalidRequest},
		{"no repetitions", func(r *Request) { r.Repetitions = 0 }, core.ErrInvalidRequest},
		{"negative workers", func(r *Request) { r.Workers = -1 }, core.ErrInvalidRequest},
		{"unknown strategy", func(r *Request) { r.Strategy = "bayes" }, core.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), tt.want)
		})
	}

	analytic := base
	analytic.Strategy = StrategyAnalytic
	analytic.Permutations = 0
	assert.NoError(t, analytic.Validate(), "analytic runs ignore the permutation count")
}

func TestNewEstimate(t *testing.T) {
	params := experiment.Parameters{Arms: []experiment.Arm{{Size: 5, Mean: 0, Spread: 1}, {Size: 5, Mean: 1, Spread: 1}}}
	req := Request{Strategy: StrategyRandomization, Alpha: 0.05, Repetitions: 4, Permutations: 99}
	outcomes := []Outcome{
		{Repetition: 2, PValue: 0.01, Rejected: true},
		{Repetition: 0, PValue: 0.20},
		{Repetition: 1, PValue: 0.03, Rejected: true},
	}

	est := NewEstimate(core.NewRunID(), params, req, 42, outcomes)

	assert.Equal(t, 3, est.Completed)
	assert.Equal(t, 2, est.Rejections)
	assert.InDelta(t, 2.0/3, est.Power, 1e-12)
	assert.True(t, est.Partial)
	assert.Equal(t, []float64{0.20, 0.03, 0.01}, est.PValues())
	assert.Equal(t, 99, est.Permutations)

	again := NewEstimate(core.NewRunID(), params, req, 42, outcomes)
	assert.True(t, est.Fingerprint.Equals(again.Fingerprint), "run IDs must not enter the fingerprint")

	other := NewEstimate(core.NewRunID(), params, req, 43, outcomes)
	assert.False(t, est.Fingerprint.Equals(other.Fingerprint))
}

func TestTally_MergeAnySplit(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		decisions := rapid.SliceOf(rapid.Bool()).Draw(rt, "decisions")
		cut := rapid.IntRange(0, len(decisions)).Draw(rt, "cut")

		var whole, left, right Tally
		for i, d := range decisions {
			whole = whole.Observe(d)
			if i < cut {
				left = left.Observe(d)
			} else {
				right = right.Observe(d)
			}
		}

		require.Equal(rt, whole, left.Merge(right))
		require.Equal(rt, whole, right.Merge(left))
		require.Equal(rt, whole, whole.Merge(Tally{}))
	})
}

func TestTally_Rate(t *testing.T) {
	assert.Zero(t, Tally{}.Rate())
	assert.Equal(t, 0.25, Tally{Completed: 4, Rejections: 1}.Rate())
}
