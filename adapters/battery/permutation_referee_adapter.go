package battery

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/ports"

	"golang.org/x/sync/errgroup"
)

// permutationChunk is the number of permutations drawn from one private
// stream. Chunk boundaries depend only on the permutation count, never on
// the worker count, so the reference distribution is the same either way.
const permutationChunk = 64

// PermutationReferee implements randomization inference: the observed
// statistic is ranked against statistics computed under re-randomized labels
// paired with the same, unpermuted outcomes.
type PermutationReferee struct {
	statistic   Statistic
	permuter    Permuter
	numShuffles int // Number of permutations to perform
	workers     int // Goroutines per test; 0 or 1 runs inline
}

// NewPermutationReferee creates a permutation referee. A nil statistic selects
// the difference in means between arm 1 and arm 0.
func NewPermutationReferee(statistic Statistic, numShuffles int) (*PermutationReferee, error) {
	if numShuffles < 1 {
		return nil, fmt.Errorf("%w: permutation count must be >= 1, got %d", core.ErrInsufficientPermutations, numShuffles)
	}
	if statistic == nil {
		statistic = DefaultStatistic()
	}
	return &PermutationReferee{
		statistic:   statistic,
		numShuffles: numShuffles,
	}, nil
}

// SetWorkers configures the permutation fan-out inside one test
func (pr *PermutationReferee) SetWorkers(n int) {
	if n < 0 {
		n = 0
	}
	pr.workers = n
}

// NumShuffles returns the configured permutation count
func (pr *PermutationReferee) NumShuffles() int {
	return pr.numShuffles
}

// Name identifies the test in results and logs
func (pr *PermutationReferee) Name() string {
	return fmt.Sprintf("permutation(%s,k=%d)", pr.statistic.Name(), pr.numShuffles)
}

// Test computes the two-sided randomization p-value for one experiment
func (pr *PermutationReferee) Test(ctx context.Context, exp *experiment.Experiment, rng *rand.Rand) (*ports.TestResult, error) {
	if exp == nil {
		return nil, fmt.Errorf("%w: nil experiment", core.ErrDegenerateSample)
	}
	if rng == nil {
		return nil, fmt.Errorf("permutation test: nil random source")
	}

	reference, err := pr.performPermutationTest(ctx, exp, rng)
	if err != nil {
		return nil, err
	}

	return &ports.TestResult{
		TestUsed:  pr.Name(),
		Statistic: reference.Observed,
		PValue:    reference.PValue(),
		Reference: reference,
	}, nil
}

// performPermutationTest builds the reference distribution for exp
func (pr *PermutationReferee) performPermutationTest(ctx context.Context, exp *experiment.Experiment, rng *rand.Rand) (*experiment.ReferenceDistribution, error) {
	observed, err := pr.statistic.Compute(exp.Outcomes, exp.Assignment)
	if err != nil {
		return nil, fmt.Errorf("observed statistic: %w", err)
	}

	// One seed per chunk, drawn in order from the caller's stream
	numChunks := (pr.numShuffles + permutationChunk - 1) / permutationChunk
	seeds := make([]uint64, numChunks)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}

	permuted := make([]float64, pr.numShuffles)

	if pr.workers <= 1 || numChunks == 1 {
		for c := 0; c < numChunks; c++ {
			if err := pr.runChunk(ctx, exp, c, seeds[c], permuted); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pr.workers)
		for c := 0; c < numChunks; c++ {
			g.Go(func() error {
				return pr.runChunk(gctx, exp, c, seeds[c], permuted)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return &experiment.ReferenceDistribution{
		Observed: observed,
		Permuted: permuted,
	}, nil
}

// runChunk fills permuted[c*chunk : (c+1)*chunk] from a private stream.
// Chunks write disjoint ranges so no synchronization is needed.
func (pr *PermutationReferee) runChunk(ctx context.Context, exp *experiment.Experiment, c int, seed uint64, permuted []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stream := rand.New(rand.NewPCG(seed, uint64(c)))
	buf := make(experiment.Assignment, len(exp.Assignment))

	start := c * permutationChunk
	end := min(start+permutationChunk, len(permuted))
	for i := start; i < end; i++ {
		labels := pr.permuter.PermuteInto(buf, exp.Assignment, stream)
		effect, err := pr.statistic.Compute(exp.Outcomes, labels)
		if err != nil {
			return fmt.Errorf("permutation %d: %w", i, err)
		}
		permuted[i] = effect
	}
	return nil
}
