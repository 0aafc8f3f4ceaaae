package testkit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"gopower/adapters/rng"
	"gopower/domain/experiment"
	"gopower/domain/power"
	"gopower/ports"
)

// TwoArm builds balanced two-arm parameters with a common spread
func TwoArm(n int, controlMean, treatmentMean, spread float64) experiment.Parameters {
	return experiment.Parameters{Arms: []experiment.Arm{
		{Size: n, Mean: controlMean, Spread: spread},
		{Size: n, Mean: treatmentMean, Spread: spread},
	}}
}

// Unequal is the reference unequal-variance layout: n units per arm, control
// N(10, 3), treatment N(treatmentMean, 3.5)
func Unequal(n int, treatmentMean float64) experiment.Parameters {
	return experiment.Parameters{Arms: []experiment.Arm{
		{Size: n, Mean: 10, Spread: 3},
		{Size: n, Mean: treatmentMean, Spread: 3.5},
	}}
}

// Seed returns a pointer for power.Request.Seed
func Seed(v uint64) *uint64 {
	return &v
}

// RNGAdapter is the production PCG adapter with a fixed fresh seed
type RNGAdapter struct {
	*rng.PCGAdapter
	Fresh uint64
}

// NewRNGAdapter creates an adapter whose FreshSeed always returns fresh
func NewRNGAdapter(fresh uint64) *RNGAdapter {
	return &RNGAdapter{PCGAdapter: rng.NewPCGAdapter(), Fresh: fresh}
}

func (r *RNGAdapter) FreshSeed() uint64 {
	return r.Fresh
}

// CountingGenerator wraps a generator, counting calls and optionally failing
// from call FailAt onwards (1-based; 0 never fails).
type CountingGenerator struct {
	Inner  ports.GeneratorPort
	FailAt int64
	calls  atomic.Int64
}

var ErrInjected = errors.New("injected failure")

func (g *CountingGenerator) Generate(params experiment.Parameters, r *rand.Rand) (*experiment.Experiment, error) {
	n := g.calls.Add(1)
	if g.FailAt > 0 && n >= g.FailAt {
		return nil, fmt.Errorf("call %d: %w", n, ErrInjected)
	}
	return g.Inner.Generate(params, r)
}

// Calls reports how many experiments were requested
func (g *CountingGenerator) Calls() int64 {
	return g.calls.Load()
}

// StubTest returns a fixed result or error after an optional delay
type StubTest struct {
	Result ports.TestResult
	Err    error
	Delay  time.Duration
}

func (s *StubTest) Name() string { return "stub" }

func (s *StubTest) Test(ctx context.Context, _ *experiment.Experiment, _ *rand.Rand) (*ports.TestResult, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	res := s.Result
	return &res, nil
}

// Factory adapts a fixed TestPort to ports.TestFactory
func Factory(t ports.TestPort) ports.TestFactory {
	return func(power.Request) (ports.TestPort, error) { return t, nil }
}

// RecordingObserver records progress. OnRepetition, if set, runs after each
// recorded repetition with the running count.
type RecordingObserver struct {
	OnRepetition func(completed int)

	mu        sync.Mutex
	outcomes  []power.Outcome
	estimates []*power.Estimate
	errs      []error
}

func (o *RecordingObserver) RepetitionCompleted(_ power.Strategy, outcome power.Outcome, _ time.Duration) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	n := len(o.outcomes)
	o.mu.Unlock()
	if o.OnRepetition != nil {
		o.OnRepetition(n)
	}
}

func (o *RecordingObserver) EstimationFinished(estimate *power.Estimate, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.estimates = append(o.estimates, estimate)
	o.errs = append(o.errs, err)
}

// Repetitions returns the number of completed repetitions seen
func (o *RecordingObserver) Repetitions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.outcomes)
}

// Finished returns the errors passed to EstimationFinished, in call order
func (o *RecordingObserver) Finished() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]error(nil), o.errs...)
}
