package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopower/adapters/battery"
	"gopower/adapters/generator"
	"gopower/adapters/rng"
	"gopower/app"
	"gopower/domain/power"
	"gopower/domain/run"
	"gopower/internal"
	"gopower/internal/config"
	"gopower/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "gopower-cli",
		Short:         "Monte-Carlo power analysis for randomized experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newEstimateCmd(),
		newCurveCmd(),
		newDiagnoseCmd(),
		newReplayCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env holds what every command needs after configuration is loaded
type env struct {
	cfg    *config.Config
	logger *internal.Logger
	power  *app.PowerService
	curves *app.CurveService
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level), cfg.Log.Console)
	powerService := app.NewPowerService(generator.NewNormalGenerator(), rng.NewPCGAdapter(), battery.ForRequest, logger)
	return &env{
		cfg:    cfg,
		logger: logger,
		power:  powerService,
		curves: app.NewCurveService(powerService, cfg.Simulation.CurveConcurrency, logger),
	}, nil
}

func newEstimateCmd() *cobra.Command {
	var flags scenarioFlags
	var out outputFlags
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the power of one scenario",
		Long: `Simulate experiments under the hypothesized arms and report how often the
test rejects the sharp null.

Examples:
  gopower-cli estimate --arm 40:10:3 --arm 40:11.5:3.5 --strategy randomization --seed 42
  gopower-cli estimate --scenario checkout.yaml --out checkout.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			s, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			req := e.cfg.Simulation.ApplyDefaults(s.Request)

			est, err := e.power.EstimatePower(cmd.Context(), s.Parameters, req)
			if est == nil {
				return err
			}
			if err == nil && manifestPath != "" {
				if werr := writeManifest(manifestPath, est, req); werr != nil {
					return werr
				}
			}
			if werr := out.writeEstimate(est); werr != nil {
				return werr
			}
			return err
		},
	}

	flags.register(cmd)
	out.register(cmd)
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Write a replay manifest (JSON) for a complete run")
	return cmd
}

func newCurveCmd() *cobra.Command {
	var flags scenarioFlags
	var out outputFlags
	var shifts []float64
	var sizes []int

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Estimate power across effect sizes or arm sizes",
		Long: `Run one estimation per variation of the base scenario. Every point uses the
same seed, so differences between points come from the varied parameter.

Example:
  gopower-cli curve --arm 30:0:1 --arm 30:0:1 --shifts 0,0.25,0.5,0.75 --sizes 50,100 --out curve.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			s, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			variations := append(power.MeanShifts(s.Parameters, shifts), power.ArmSizes(sizes)...)
			if len(variations) == 0 {
				variations = s.Curve.Variations(s.Parameters)
			}
			req := e.cfg.Simulation.ApplyDefaults(s.Request)

			curve, err := e.curves.EstimateCurve(cmd.Context(), s.Parameters, variations, req)
			if curve == nil {
				return err
			}
			if werr := out.writeCurve(curve); werr != nil {
				return werr
			}
			return err
		},
	}

	flags.register(cmd)
	out.register(cmd)
	cmd.Flags().Float64SliceVar(&shifts, "shifts", nil, "Treatment mean shifts from the control mean")
	cmd.Flags().IntSliceVar(&sizes, "sizes", nil, "Common arm sizes")
	return cmd
}

func newDiagnoseCmd() *cobra.Command {
	var flags scenarioFlags

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Generate one experiment and summarize its randomization distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			req := s.Request.WithDefaults()
			req.Strategy = power.StrategyRandomization
			if err := req.Validate(); err != nil {
				return err
			}
			adapter := rng.NewPCGAdapter()
			seed := adapter.FreshSeed()
			if req.Seed != nil {
				seed = *req.Seed
			}

			genRNG, err := adapter.Stream(cmd.Context(), "generate", seed, 0)
			if err != nil {
				return err
			}
			testRNG, err := adapter.Stream(cmd.Context(), "test", seed, 0)
			if err != nil {
				return err
			}

			exp, err := generator.NewNormalGenerator().Generate(s.Parameters, genRNG)
			if err != nil {
				return err
			}
			test, err := battery.ForRequest(req)
			if err != nil {
				return err
			}
			result, err := test.Test(cmd.Context(), exp, testRNG)
			if err != nil {
				return err
			}
			summary, err := battery.Diagnose(result.Reference)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"seed":    seed,
				"test":    result.TestUsed,
				"summary": summary,
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newReplayCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "replay [manifest.json]",
		Short: "Re-run a recorded estimation and verify it reproduces exactly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var manifest run.RunManifest
			if err := json.Unmarshal(data, &manifest); err != nil {
				return fmt.Errorf("parse manifest %s: %w", args[0], err)
			}

			est, err := e.power.Replay(cmd.Context(), &manifest)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "replay of %s matches fingerprint %s\n", manifest.RunID, est.Fingerprint)
			return out.writeEstimate(est)
		},
	}

	out.register(cmd)
	return cmd
}

func writeManifest(path string, est *power.Estimate, req power.Request) error {
	manifest, err := run.NewRunManifest(est, req)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

type outputFlags struct {
	xlsx     string
	csv      string
	outcomes bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.xlsx, "out", "", "Write an XLSX report to this path")
	cmd.Flags().StringVar(&o.csv, "csv", "", "Write per-repetition outcomes as CSV to this path")
	cmd.Flags().BoolVar(&o.outcomes, "outcomes", false, "Include per-repetition outcomes in JSON output")
}

func (o *outputFlags) writeEstimate(est *power.Estimate) error {
	if o.xlsx != "" {
		if err := report.WriteEstimateXLSX(o.xlsx, est); err != nil {
			return err
		}
	}
	if o.csv != "" {
		f, err := os.Create(o.csv)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.WriteOutcomesCSV(f, est.Outcomes); err != nil {
			return err
		}
	}
	if !o.outcomes {
		trimmed := *est
		trimmed.Outcomes = nil
		est = &trimmed
	}
	return printJSON(est)
}

func (o *outputFlags) writeCurve(curve *power.Curve) error {
	if o.xlsx != "" {
		if err := report.WriteCurveXLSX(o.xlsx, curve); err != nil {
			return err
		}
	}
	fmt.Printf("%-16s %8s %8s %10s\n", "point", "power", "approx", "completed")
	fmt.Println(strings.Repeat("-", 46))
	for _, p := range curve.Points {
		fmt.Printf("%-16s %8.4f %8.4f %10d\n", p.Label, p.Estimate.Power, p.Approximate, p.Estimate.Completed)
	}
	fmt.Printf("seed %d", curve.Seed)
	if curve.Partial {
		fmt.Print(" (partial)")
	}
	fmt.Println()
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
