package ports

import (
	"time"

	"gopower/domain/power"
)

// ProgressObserver receives estimation progress. Calls may arrive from
// several goroutines at once.
type ProgressObserver interface {
	RepetitionCompleted(strategy power.Strategy, outcome power.Outcome, elapsed time.Duration)
	EstimationFinished(estimate *power.Estimate, err error)
}

// NopObserver discards progress
type NopObserver struct{}

func (NopObserver) RepetitionCompleted(power.Strategy, power.Outcome, time.Duration) {}
func (NopObserver) EstimationFinished(*power.Estimate, error) {}
