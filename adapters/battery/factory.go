package battery

import (
	"fmt"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/ports"
)

// ForRequest builds the referee matching req.Strategy
func ForRequest(req power.Request) (ports.TestPort, error) {
	switch req.Strategy {
	case power.StrategyRandomization:
		statistic, err := StatisticByName(req.Statistic)
		if err != nil {
			return nil, err
		}
		referee, err := NewPermutationReferee(statistic, req.Permutations)
		if err != nil {
			return nil, err
		}
		referee.SetWorkers(req.PermutationWorkers)
		return referee, nil
	case power.StrategyAnalytic:
		return NewWelchReferee(), nil
	default:
		return nil, core.NewRequestError("strategy", fmt.Sprintf("unknown strategy %q", req.Strategy))
	}
}
