package app

import (
	"context"
	"errors"
	"time"

	"gopower/adapters/battery"
	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"
	"gopower/internal"
	"gopower/internal/parallel"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// CurveService evaluates power over a set of scenario variations
type CurveService struct {
	powerService *PowerService
	concurrency  int64
	logger       *internal.Logger
}

// NewCurveService creates a curve service running at most concurrency
// scenarios at once
func NewCurveService(powerService *PowerService, concurrency int, logger *internal.Logger) *CurveService {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &CurveService{
		powerService: powerService,
		concurrency:  int64(concurrency),
		logger:       logger,
	}
}

// EstimateCurve runs EstimatePower once per variation of base. All points
// share one seed, so they see the same simulated noise and differ only
// through the varied parameters.
//
// A failing point aborts the curve. A point cut short by req.MaxDuration
// keeps its partial estimate and the curve is marked Partial. Cancellation
// returns the points estimated so far, partial ones included, with the
// context error.
func (s *CurveService) EstimateCurve(ctx context.Context, base experiment.Parameters, variations []power.Variation, req power.Request) (*power.Curve, error) {
	if len(variations) == 0 {
		return nil, core.NewRequestError("variations", "at least one variation is required")
	}
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	points := make([]power.CurvePoint, len(variations))
	for i, v := range variations {
		params := v.Apply(base)
		if err := params.Validate(); err != nil {
			return nil, err
		}
		points[i] = power.CurvePoint{Label: v.Label, Parameters: params}
	}

	seed := s.powerService.resolveSeed(req)
	req.Seed = &seed

	curve := &power.Curve{
		CurveID:   core.NewCurveID(),
		Strategy:  req.Strategy,
		Seed:      seed,
		CreatedAt: core.Now(),
	}
	startTime := time.Now()

	sem := semaphore.NewWeighted(s.concurrency)
	g, gctx := errgroup.WithContext(ctx)

	for i := range points {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			point := &points[i]

			approx, err := battery.ApproximatePower(point.Parameters, req.Alpha, experiment.Treatment, experiment.Control)
			if err != nil {
				return err
			}
			point.Approximate = approx

			estimate, err := s.powerService.EstimatePower(gctx, point.Parameters, req)
			point.Estimate = estimate
			if errors.Is(err, parallel.ErrPartial) {
				// The point ran out of time; its siblings keep going
				return nil
			}
			return err
		})
	}
	err := g.Wait()

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil && ctx.Err() == nil {
		return nil, err
	}

	for _, p := range points {
		if p.Estimate == nil {
			continue
		}
		curve.Points = append(curve.Points, p)
		if p.Estimate.Partial {
			curve.Partial = true
		}
	}
	if len(curve.Points) < len(points) {
		curve.Partial = true
	}

	if err == nil && curve.Partial {
		err = parallel.ErrPartial
	}
	if err != nil {
		if !errors.Is(err, parallel.ErrPartial) {
			err = errors.Join(parallel.ErrPartial, err)
		}
		s.logger.Warn("curve %s stopped after %d/%d points: %v", curve.CurveID, len(curve.Points), len(points), err)
		return curve, err
	}
	s.logger.Info("curve %s: %d points in %s", curve.CurveID, len(curve.Points), time.Since(startTime))
	return curve, nil
}
