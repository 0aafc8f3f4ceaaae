package battery

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"gopower/domain/core"
	"gopower/domain/experiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedExperiment(t *testing.T, labels experiment.Assignment, outcomes []float64) *experiment.Experiment {
	t.Helper()
	exp, err := experiment.New(labels, outcomes)
	require.NoError(t, err)
	return exp
}

// exactPValue enumerates every distinct placement of the treated units and
// returns the exact two-sided permutation p-value.
func exactPValue(t *testing.T, exp *experiment.Experiment, statistic Statistic) float64 {
	t.Helper()
	observed, err := statistic.Compute(exp.Outcomes, exp.Assignment)
	require.NoError(t, err)

	n := len(exp.Assignment)
	k := exp.Assignment.Counts()[experiment.Treatment]
	labels := make(experiment.Assignment, n)

	total, extreme := 0, 0
	var place func(start, remaining int)
	place = func(start, remaining int) {
		if remaining == 0 {
			stat, err := statistic.Compute(exp.Outcomes, labels)
			require.NoError(t, err)
			total++
			if math.Abs(stat) >= math.Abs(observed) {
				extreme++
			}
			return
		}
		for i := start; i <= n-remaining; i++ {
			labels[i] = experiment.Treatment
			place(i+1, remaining-1)
			labels[i] = experiment.Control
		}
	}
	place(0, k)
	return float64(extreme) / float64(total)
}

func TestPermutationReferee_InsufficientPermutations(t *testing.T) {
	for _, k := range []int{0, -1, -100} {
		referee, err := NewPermutationReferee(nil, k)
		assert.Nil(t, referee)
		assert.ErrorIs(t, err, core.ErrInsufficientPermutations)
	}
}

func TestPermutationReferee_ConvergesToExactPValue(t *testing.T) {
	exp := fixedExperiment(t,
		experiment.Assignment{0, 1, 0, 1, 1, 0, 0, 1},
		[]float64{9.1, 12.4, 10.2, 11.0, 13.7, 8.8, 10.9, 10.1},
	)
	exact := exactPValue(t, exp, DefaultStatistic())

	referee, err := NewPermutationReferee(nil, 20000)
	require.NoError(t, err)

	res, err := referee.Test(context.Background(), exp, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	assert.InDelta(t, exact, res.PValue, 0.015, "exact=%.4f monte-carlo=%.4f", exact, res.PValue)
	assert.Len(t, res.Reference.Permuted, 20000)
}

func TestPermutationReferee_PValueBounds(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []float64
		k        int
	}{
		{"separated arms", []float64{1, 2, 3, 4, 100, 101, 102, 103}, 50},
		{"identical outcomes", []float64{5, 5, 5, 5, 5, 5, 5, 5}, 50},
		{"single permutation", []float64{1, 9, 3, 7, 2, 8, 4, 6}, 1},
	}
	labels := experiment.Assignment{0, 0, 0, 0, 1, 1, 1, 1}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			referee, err := NewPermutationReferee(nil, tt.k)
			require.NoError(t, err)

			res, err := referee.Test(context.Background(), fixedExperiment(t, labels, tt.outcomes), rand.New(rand.NewPCG(3, 4)))
			require.NoError(t, err)

			assert.GreaterOrEqual(t, res.PValue, 1.0/float64(tt.k+1))
			assert.LessOrEqual(t, res.PValue, 1.0)
		})
	}
}

func TestPermutationReferee_IdenticalOutcomesNeverReject(t *testing.T) {
	referee, err := NewPermutationReferee(nil, 200)
	require.NoError(t, err)

	exp := fixedExperiment(t, experiment.Assignment{0, 1, 0, 1}, []float64{2, 2, 2, 2})
	res, err := referee.Test(context.Background(), exp, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.PValue)
}

func TestPermutationReferee_WorkerCountDoesNotChangeResult(t *testing.T) {
	exp := fixedExperiment(t,
		experiment.Assignment{0, 1, 0, 1, 1, 0, 0, 1, 0, 1},
		[]float64{3.2, 4.8, 2.9, 5.1, 4.4, 3.0, 3.7, 6.0, 2.5, 4.1},
	)

	run := func(workers int) *experiment.ReferenceDistribution {
		referee, err := NewPermutationReferee(nil, 1000)
		require.NoError(t, err)
		referee.SetWorkers(workers)
		res, err := referee.Test(context.Background(), exp, rand.New(rand.NewPCG(77, 78)))
		require.NoError(t, err)
		return res.Reference
	}

	serial := run(1)
	assert.Equal(t, serial, run(4))
	assert.Equal(t, serial, run(16))
}

func TestPermutationReferee_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	referee, err := NewPermutationReferee(nil, 500)
	require.NoError(t, err)
	referee.SetWorkers(4)

	exp := fixedExperiment(t, experiment.Assignment{0, 1, 0, 1}, []float64{1, 2, 3, 4})
	_, err = referee.Test(ctx, exp, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPermutationReferee_DegenerateStatistic(t *testing.T) {
	referee, err := NewPermutationReferee(nil, 10)
	require.NoError(t, err)

	// No treated units: the default contrast is undefined
	exp := fixedExperiment(t, experiment.Assignment{0, 0, 0}, []float64{1, 2, 3})
	_, err = referee.Test(context.Background(), exp, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, core.ErrDegenerateSample)
}

func TestPermutationReferee_CustomStatistic(t *testing.T) {
	calls := 0
	statistic := StatisticFunc{
		Label: "treated_sum",
		Fn: func(outcomes []float64, labels experiment.Assignment) (float64, error) {
			calls++
			sum := 0.0
			for i, l := range labels {
				if l == experiment.Treatment {
					sum += outcomes[i]
				}
			}
			return sum, nil
		},
	}

	referee, err := NewPermutationReferee(statistic, 25)
	require.NoError(t, err)
	assert.Equal(t, "permutation(treated_sum,k=25)", referee.Name())

	exp := fixedExperiment(t, experiment.Assignment{0, 1, 0, 1}, []float64{1, 2, 3, 4})
	res, err := referee.Test(context.Background(), exp, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)

	assert.Equal(t, 26, calls, "one observed plus one per permutation")
	assert.Equal(t, 6.0, res.Statistic)
}

func TestDiagnose(t *testing.T) {
	ref := &experiment.ReferenceDistribution{
		Observed: 2.5,
		Permuted: []float64{-3, -1, 0, 1, 2, 3},
	}

	summary, err := Diagnose(ref)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Size)
	assert.InDelta(t, 1.0/3, summary.Mean, 1e-12)
	assert.Equal(t, -3.0, summary.Min)
	assert.Equal(t, 3.0, summary.Max)
	// |-3| and |3| are at least as extreme as 2.5
	assert.InDelta(t, 3.0/7, summary.PValue, 1e-12)
	assert.InDelta(t, 4.0/6, summary.NullPercentile, 1e-12)

	_, err = Diagnose(&experiment.ReferenceDistribution{})
	assert.Error(t, err)
}
