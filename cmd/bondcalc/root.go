package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meenmo/bondlib/analytics"
	"github.com/meenmo/bondlib/config"
)

// app carries what every subcommand needs once flags and config are loaded.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log zerolog.Logger

	configPath string
	envFile    string
	precision  int32
	pretty     bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "bondcalc",
		Short:         "Bond specification resolution and analytics",
		Long:          "Resolve bond specifications from identifiers, descriptions and overrides, then compute yield, duration, convexity, PVBP and spreads.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./bondcalc.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.Int32Var(&a.precision, "precision", 10, "decimal places in JSON output")
	flags.BoolVar(&a.pretty, "pretty", false, "indent JSON output")
	flags.String("log-level", "warn", "log level: trace, debug, info, warn, error")
	flags.Int("workers", 0, "batch concurrency (default from config)")
	flags.Int("cache-size", 0, "result cache entries, 0 disables")
	flags.String("reference-csv", "", "reference data CSV")
	flags.String("convention-csv", "", "ticker convention CSV")
	flags.String("curves", "", "benchmark curves JSON")
	flags.String("database-url", "", "PostgreSQL connection string for reference data")

	root.AddCommand(newAnalyzeCmd(a), newBatchCmd(a), newVersionCmd())
	return root
}

var flagKeys = map[string]string{
	"log-level":      "log.level",
	"workers":        "engine.workers",
	"cache-size":     "engine.cache_size",
	"reference-csv":  "data.reference_csv",
	"convention-csv": "data.convention_csv",
	"curves":         "data.curves_json",
	"database-url":   "data.database_url",
}

func (a *app) load(cmd *cobra.Command) error {
	if a.envFile != "" {
		if _, err := os.Stat(a.envFile); err == nil {
			if err := godotenv.Load(a.envFile); err != nil {
				return fmt.Errorf("load %s: %w", a.envFile, err)
			}
		}
	}

	a.v = config.New(a.configPath)
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Log.Logger(os.Stderr)
	return nil
}

// engine loads reference data and builds an analytics engine.
func (a *app) engine(ctx context.Context) (*analytics.Engine, error) {
	env, err := loadEnvironment(ctx, a.cfg.Data, a.log)
	if err != nil {
		return nil, err
	}
	opts := []analytics.Option{
		analytics.WithLogger(a.log),
		analytics.WithSolverOptions(a.cfg.SolverOptions()),
		analytics.WithWorkers(a.cfg.Engine.Workers),
	}
	if a.cfg.Engine.CacheSize > 0 {
		cache, err := analytics.NewCache(a.cfg.Engine.CacheSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analytics.WithCache(cache))
	}
	return analytics.NewEngine(env, opts...), nil
}
