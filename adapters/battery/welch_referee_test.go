package battery

import (
	"context"
	"testing"

	"gopower/domain/core"
	"gopower/domain/experiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWelchTTest_ReferenceValues(t *testing.T) {
	// group1 = 1..5, group2 = 2,4,..,10
	// t = -3/sqrt(2.5/5 + 10/5), df = 6.25/(0.0625 + 1)
	res, err := ComputeWelchTTest([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
	require.NoError(t, err)

	assert.InDelta(t, -1.8973666, res.TStatistic, 1e-6)
	assert.InDelta(t, 5.8823529, res.DF, 1e-6)
	assert.InDelta(t, 0.1075312, res.PValue, 1e-4)
	assert.Equal(t, -3.0, res.MeanDiff)
}

func TestComputeWelchTTest_ConstantArms(t *testing.T) {
	same, err := ComputeWelchTTest([]float64{4, 4, 4}, []float64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, 1.0, same.PValue)

	shifted, err := ComputeWelchTTest([]float64{5, 5, 5}, []float64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, 0.0, shifted.PValue)
}

func TestWelchReferee_DegenerateSample(t *testing.T) {
	tests := []struct {
		name   string
		labels experiment.Assignment
	}{
		{"single treated unit", experiment.Assignment{0, 0, 0, 1}},
		{"no treated units", experiment.Assignment{0, 0, 0, 0}},
		{"third arm of one", experiment.Assignment{0, 0, 1, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcomes := make([]float64, len(tt.labels))
			for i := range outcomes {
				outcomes[i] = float64(i)
			}
			exp, err := experiment.New(tt.labels, outcomes)
			require.NoError(t, err)

			_, err = NewWelchReferee().Test(context.Background(), exp, nil)
			assert.ErrorIs(t, err, core.ErrDegenerateSample)
		})
	}
}

func TestWelchReferee_PValueInUnitInterval(t *testing.T) {
	exp, err := experiment.New(
		experiment.Assignment{0, 1, 0, 1, 0, 1, 0, 1},
		[]float64{10.2, 11.9, 9.7, 12.3, 10.5, 11.1, 9.9, 12.8},
	)
	require.NoError(t, err)

	res, err := NewWelchReferee().Test(context.Background(), exp, nil)
	require.NoError(t, err)

	assert.Equal(t, "welch_ttest", res.TestUsed)
	assert.Greater(t, res.Statistic, 0.0)
	assert.GreaterOrEqual(t, res.PValue, 0.0)
	assert.LessOrEqual(t, res.PValue, 1.0)
	assert.Less(t, res.PValue, 0.05)
	assert.Nil(t, res.Reference)
}

func TestDifferenceInMeans(t *testing.T) {
	labels := experiment.Assignment{0, 1, 2, 1, 0}
	outcomes := []float64{1, 10, 100, 20, 3}

	d, err := DefaultStatistic().Compute(outcomes, labels)
	require.NoError(t, err)
	assert.Equal(t, 13.0, d)

	d, err = DifferenceInMeans{Treatment: 2, Control: 0}.Compute(outcomes, labels)
	require.NoError(t, err)
	assert.Equal(t, 98.0, d)

	_, err = DefaultStatistic().Compute(outcomes[:2], labels)
	assert.ErrorIs(t, err, core.ErrDegenerateSample)
}

func TestRangeOfMeans(t *testing.T) {
	labels := experiment.Assignment{0, 1, 2, 1, 0, 2}
	outcomes := []float64{1, 10, 100, 20, 3, 50}

	r, err := RangeOfMeans{}.Compute(outcomes, labels)
	require.NoError(t, err)
	assert.Equal(t, 73.0, r)

	_, err = RangeOfMeans{}.Compute([]float64{1, 2}, experiment.Assignment{0, 0})
	assert.ErrorIs(t, err, core.ErrDegenerateSample)
}

func TestStatisticByName(t *testing.T) {
	s, err := StatisticByName("")
	require.NoError(t, err)
	assert.Equal(t, "difference_in_means", s.Name())

	s, err = StatisticByName("range_of_means")
	require.NoError(t, err)
	assert.Equal(t, "range_of_means", s.Name())

	_, err = StatisticByName("median")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestApproximatePower(t *testing.T) {
	params := experiment.Parameters{Arms: []experiment.Arm{
		{Size: 40, Mean: 10, Spread: 3},
		{Size: 40, Mean: 11.5, Spread: 3.5},
	}}

	p, err := ApproximatePower(params, 0.05, experiment.Treatment, experiment.Control)
	require.NoError(t, err)
	assert.InDelta(t, 0.5391, p, 1e-3)

	null, err := ApproximatePower(params.WithTreatmentMean(10), 0.05, experiment.Treatment, experiment.Control)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, null, 1e-6)

	_, err = ApproximatePower(params, 1.5, experiment.Treatment, experiment.Control)
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, err = ApproximatePower(params, 0.05, 3, experiment.Control)
	assert.ErrorIs(t, err, core.ErrInvalidParameters)
}
