package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"
	"gopower/domain/run"
	"gopower/internal"
	"gopower/internal/parallel"
	"gopower/ports"
)

// Stream names. Each repetition owns one stream of each.
const (
	streamGenerate = "generate"
	streamTest     = "test"
)

// PowerService estimates the power of a test by Monte-Carlo simulation
type PowerService struct {
	generator ports.GeneratorPort
	rngPort   ports.RNGPort
	tests     ports.TestFactory
	observer  ports.ProgressObserver
	logger    *internal.Logger
}

// NewPowerService creates a power service
func NewPowerService(generator ports.GeneratorPort, rngPort ports.RNGPort, tests ports.TestFactory, logger *internal.Logger) *PowerService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &PowerService{
		generator: generator,
		rngPort:   rngPort,
		tests:     tests,
		observer:  ports.NopObserver{},
		logger:    logger,
	}
}

// WithObserver attaches a progress observer
func (s *PowerService) WithObserver(observer ports.ProgressObserver) *PowerService {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	s.observer = observer
	return s
}

// EstimatePower simulates req.Repetitions experiments under params, tests
// each one and reports the rejection rate.
//
// Configuration errors are returned before any simulation starts. A failing
// repetition aborts the run and no estimate is returned. If ctx ends or
// req.MaxDuration elapses, the estimate covers the completed repetitions,
// is marked Partial, and is returned together with the context error.
func (s *PowerService) EstimatePower(ctx context.Context, params experiment.Parameters, req power.Request) (*power.Estimate, error) {
	startTime := time.Now()

	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	test, err := s.tests(req)
	if err != nil {
		return nil, err
	}

	seed := s.resolveSeed(req)
	runID := core.NewRunID()
	logger := s.logger.With("run_id", runID.String(), "strategy", string(req.Strategy))
	logger.Debug("estimating power: %d repetitions of %s, seed %d", req.Repetitions, test.Name(), seed)

	runCtx := ctx
	if req.MaxDuration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.MaxDuration)
		defer cancel()
	}

	outcomes, err := parallel.Repeat(runCtx, req.Repetitions, req.Workers, func(ctx context.Context, i int) (power.Outcome, error) {
		return s.runRepetition(ctx, params, req, test, seed, i)
	})
	if err != nil && !errors.Is(err, parallel.ErrPartial) {
		logger.Error("estimation aborted: %v", err)
		s.observer.EstimationFinished(nil, err)
		return nil, err
	}

	estimate := power.NewEstimate(runID, params, req, seed, outcomes)
	estimate.Elapsed = time.Since(startTime)

	if err != nil {
		logger.Warn("estimation stopped early after %d/%d repetitions: %v", estimate.Completed, estimate.Requested, err)
	} else {
		logger.Info("power %.4f (%d/%d rejected) in %s", estimate.Power, estimate.Rejections, estimate.Completed, estimate.Elapsed)
	}
	s.observer.EstimationFinished(estimate, err)
	return estimate, err
}

func (s *PowerService) resolveSeed(req power.Request) uint64 {
	if req.Seed != nil {
		return *req.Seed
	}
	return s.rngPort.FreshSeed()
}

func (s *PowerService) runRepetition(ctx context.Context, params experiment.Parameters, req power.Request, test ports.TestPort, seed uint64, i int) (power.Outcome, error) {
	repStart := time.Now()

	genRNG, err := s.rngPort.Stream(ctx, streamGenerate, seed, uint64(i))
	if err != nil {
		return power.Outcome{}, err
	}
	testRNG, err := s.rngPort.Stream(ctx, streamTest, seed, uint64(i))
	if err != nil {
		return power.Outcome{}, err
	}

	exp, err := s.generator.Generate(params, genRNG)
	if err != nil {
		return power.Outcome{}, fmt.Errorf("repetition %d: generate: %w", i, err)
	}
	result, err := test.Test(ctx, exp, testRNG)
	if err != nil {
		return power.Outcome{}, fmt.Errorf("repetition %d: %s: %w", i, test.Name(), err)
	}

	outcome := power.Outcome{
		Repetition: i,
		Statistic:  result.Statistic,
		PValue:     result.PValue,
		Rejected:   result.PValue < req.Alpha,
	}
	s.logger.Trace("repetition %d: statistic %.6g p %.6g", i, outcome.Statistic, outcome.PValue)
	s.observer.RepetitionCompleted(req.Strategy, outcome, time.Since(repStart))
	return outcome, nil
}

// Replay re-runs a recorded estimation and checks that it reproduces the
// recorded outcomes bit for bit.
func (s *PowerService) Replay(ctx context.Context, manifest *run.RunManifest) (*power.Estimate, error) {
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	est, err := s.EstimatePower(ctx, manifest.Parameters, manifest.Request)
	if err != nil {
		return est, err
	}
	if err := manifest.Verify(est); err != nil {
		s.logger.Error("replay of %s diverged: %v", manifest.RunID, err)
		return est, err
	}
	return est, nil
}
