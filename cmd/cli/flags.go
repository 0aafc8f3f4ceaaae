package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopower/domain/core"
	"gopower/domain/experiment"
	"gopower/domain/power"
	"gopower/internal/scenario"

	"github.com/spf13/cobra"
)

// scenarioFlags describe a scenario on the command line. Flags override the
// matching fields of --scenario when both are given.
type scenarioFlags struct {
	file        string
	arms        []string
	correlation float64
	strategy    string
	alpha       float64
	repetitions int
	permutation int
	statistic   string
	seed        uint64
	workers     int
	permWorkers int
	maxDuration time.Duration
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.file, "scenario", "", "YAML scenario file")
	fs.StringArrayVar(&f.arms, "arm", nil, "Arm as size:mean:spread; repeat per arm, control first")
	fs.Float64Var(&f.correlation, "covariate-correlation", 0, "Correlation of a baseline covariate with the outcome")
	fs.StringVar(&f.strategy, "strategy", "", "randomization|analytic")
	fs.Float64Var(&f.alpha, "alpha", 0, "Significance level (default from POWER_ALPHA)")
	fs.IntVar(&f.repetitions, "reps", 0, "Simulated experiments (default from POWER_REPETITIONS)")
	fs.IntVar(&f.permutation, "perms", 0, "Permutations per randomization test (default from POWER_PERMUTATIONS)")
	fs.StringVar(&f.statistic, "statistic", "", "difference_in_means|range_of_means")
	fs.Uint64Var(&f.seed, "seed", 0, "Seed for a reproducible run (fresh seed when unset)")
	fs.IntVar(&f.workers, "workers", 0, "Concurrent repetitions (0 = one per CPU)")
	fs.IntVar(&f.permWorkers, "perm-workers", 0, "Concurrent permutation chunks per test")
	fs.DurationVar(&f.maxDuration, "max-duration", 0, "Stop early and report a partial estimate after this long")
}

// resolve merges the scenario file and flags into a validated scenario
func (f *scenarioFlags) resolve(cmd *cobra.Command) (*scenario.Scenario, error) {
	s := &scenario.Scenario{}
	if f.file != "" {
		loaded, err := scenario.Load(f.file)
		if err != nil {
			return nil, err
		}
		s = loaded
	}

	changed := cmd.Flags().Changed
	if len(f.arms) > 0 {
		arms, err := parseArms(f.arms)
		if err != nil {
			return nil, err
		}
		s.Parameters.Arms = arms
	}
	if changed("covariate-correlation") {
		s.Parameters.CovariateCorrelation = f.correlation
	}
	if changed("strategy") {
		strategy, err := power.ParseStrategy(f.strategy)
		if err != nil {
			return nil, err
		}
		s.Request.Strategy = strategy
	}
	if changed("alpha") {
		s.Request.Alpha = f.alpha
	}
	if changed("reps") {
		s.Request.Repetitions = f.repetitions
	}
	if changed("perms") {
		s.Request.Permutations = f.permutation
	}
	if changed("statistic") {
		s.Request.Statistic = f.statistic
	}
	if changed("seed") {
		seed := f.seed
		s.Request.Seed = &seed
	}
	if changed("workers") {
		s.Request.Workers = f.workers
	}
	if changed("perm-workers") {
		s.Request.PermutationWorkers = f.permWorkers
	}
	if changed("max-duration") {
		s.Request.MaxDuration = f.maxDuration
	}

	if err := s.Parameters.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseArms parses size:mean:spread triples
func parseArms(specs []string) ([]experiment.Arm, error) {
	arms := make([]experiment.Arm, 0, len(specs))
	for i, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return nil, core.NewParameterError(fmt.Sprintf("arm %d", i), fmt.Sprintf("want size:mean:spread, got %q", spec))
		}
		size, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, core.NewParameterError(fmt.Sprintf("arm %d size", i), err.Error())
		}
		mean, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, core.NewParameterError(fmt.Sprintf("arm %d mean", i), err.Error())
		}
		spread, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, core.NewParameterError(fmt.Sprintf("arm %d spread", i), err.Error())
		}
		arms = append(arms, experiment.Arm{Size: size, Mean: mean, Spread: spread})
	}
	return arms, nil
}
