// Package config holds the engine's tunable parameters and loads them through
// viper from defaults, an optional config file and BONDCALC_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/meenmo/bondlib/solver"
)

// EnvPrefix is the environment variable prefix, e.g. BONDCALC_SOLVER_TOLERANCE.
const EnvPrefix = "BONDCALC"

// Config holds solver, engine, data and logging parameters.
type Config struct {
	Solver SolverConfig `mapstructure:"solver"`
	Engine EngineConfig `mapstructure:"engine"`
	Data   DataConfig   `mapstructure:"data"`
	Log    LogConfig    `mapstructure:"log"`
}

// SolverConfig bounds the yield and z-spread root finders.
type SolverConfig struct {
	// Tolerance is the absolute price error accepted as converged.
	Tolerance float64 `mapstructure:"tolerance"`
	// MaxIterations caps Newton/bisection steps per solve.
	MaxIterations int `mapstructure:"max_iterations"`
	// TimeBudget caps wall-clock time per solve.
	TimeBudget time.Duration `mapstructure:"time_budget"`
	// Lower and Upper are the initial yield bracket.
	Lower float64 `mapstructure:"lower"`
	Upper float64 `mapstructure:"upper"`
	// Floor and Ceiling bound bracket widening.
	Floor   float64 `mapstructure:"floor"`
	Ceiling float64 `mapstructure:"ceiling"`
	// DerivativeThreshold is the minimum |f'| for a Newton step.
	DerivativeThreshold float64 `mapstructure:"derivative_threshold"`
}

// EngineConfig sizes the batch pipeline.
type EngineConfig struct {
	Workers   int `mapstructure:"workers"`
	CacheSize int `mapstructure:"cache_size"`
}

// DataConfig locates reference data. DatabaseURL takes precedence over the
// CSV paths when set.
type DataConfig struct {
	ReferenceCSV  string `mapstructure:"reference_csv"`
	ConventionCSV string `mapstructure:"convention_csv"`
	CurvesJSON    string `mapstructure:"curves_json"`
	DatabaseURL   string `mapstructure:"database_url"`
}

// LogConfig selects level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	opts := solver.DefaultOptions()
	return Config{
		Solver: SolverConfig{
			Tolerance:           opts.Tolerance,
			MaxIterations:       opts.MaxIterations,
			TimeBudget:          opts.TimeBudget,
			Lower:               opts.Lower,
			Upper:               opts.Upper,
			Floor:               opts.Floor,
			Ceiling:             opts.Ceiling,
			DerivativeThreshold: opts.DerivativeThreshold,
		},
		Engine: EngineConfig{Workers: 8, CacheSize: 0},
		Log:    LogConfig{Level: "warn"},
	}
}

// SolverOptions converts the solver section into solver.Options. Guess is
// left zero so each solve picks its own starting point.
func (c Config) SolverOptions() solver.Options {
	opts := solver.DefaultOptions()
	opts.Guess = 0
	opts.Tolerance = c.Solver.Tolerance
	opts.MaxIterations = c.Solver.MaxIterations
	opts.TimeBudget = c.Solver.TimeBudget
	opts.Lower = c.Solver.Lower
	opts.Upper = c.Solver.Upper
	opts.Floor = c.Solver.Floor
	opts.Ceiling = c.Solver.Ceiling
	opts.DerivativeThreshold = c.Solver.DerivativeThreshold
	return opts
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case !(c.Solver.Tolerance > 0):
		return fmt.Errorf("config: solver.tolerance must be positive")
	case c.Solver.MaxIterations <= 0:
		return fmt.Errorf("config: solver.max_iterations must be positive")
	case c.Solver.TimeBudget <= 0:
		return fmt.Errorf("config: solver.time_budget must be positive")
	case !(c.Solver.Lower < c.Solver.Upper):
		return fmt.Errorf("config: solver.lower must be below solver.upper")
	case c.Solver.Floor > c.Solver.Lower || c.Solver.Ceiling < c.Solver.Upper:
		return fmt.Errorf("config: solver floor/ceiling must contain the initial bracket")
	case c.Engine.Workers <= 0:
		return fmt.Errorf("config: engine.workers must be positive")
	case c.Engine.CacheSize < 0:
		return fmt.Errorf("config: engine.cache_size must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("solver.tolerance", d.Solver.Tolerance)
	v.SetDefault("solver.max_iterations", d.Solver.MaxIterations)
	v.SetDefault("solver.time_budget", d.Solver.TimeBudget)
	v.SetDefault("solver.lower", d.Solver.Lower)
	v.SetDefault("solver.upper", d.Solver.Upper)
	v.SetDefault("solver.floor", d.Solver.Floor)
	v.SetDefault("solver.ceiling", d.Solver.Ceiling)
	v.SetDefault("solver.derivative_threshold", d.Solver.DerivativeThreshold)
	v.SetDefault("engine.workers", d.Engine.Workers)
	v.SetDefault("engine.cache_size", d.Engine.CacheSize)
	v.SetDefault("data.reference_csv", "")
	v.SetDefault("data.convention_csv", "")
	v.SetDefault("data.curves_json", "")
	v.SetDefault("data.database_url", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
}

// New returns a viper instance with defaults and environment binding. An
// empty path searches ./bondcalc.{yaml,toml,json} and $HOME/.config/bondcalc.
func New(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bondcalc")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/bondcalc")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from v. A missing config file is not an error
// unless it was named explicitly.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config.Load: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Logger builds a zerolog logger writing to w (stderr when nil).
func (c LogConfig) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if c.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || c.Level == "" {
		level = zerolog.WarnLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
