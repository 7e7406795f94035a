package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/meenmo/bondlib/analytics"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/refdata"
)

// loadEnvironment builds the read-only lookup tables. The database, when
// configured, replaces the CSV files.
func loadEnvironment(ctx context.Context, cfg config.DataConfig, log zerolog.Logger) (analytics.Environment, error) {
	var env analytics.Environment

	switch {
	case cfg.DatabaseURL != "":
		conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return env, fmt.Errorf("connect to reference database: %w", err)
		}
		defer conn.Close(ctx)

		refs, err := refdata.LoadReferencePostgres(ctx, conn)
		if err != nil {
			return env, err
		}
		convs, err := refdata.LoadConventionPostgres(ctx, conn)
		if err != nil {
			return env, err
		}
		env.References, env.Conventions = refs, convs
		log.Info().Int("records", refs.Len()).Int("tickers", convs.Len()).Msg("loaded reference data from database")
	default:
		if cfg.ReferenceCSV != "" {
			refs, err := refdata.LoadReferenceCSV(cfg.ReferenceCSV)
			if err != nil {
				return env, err
			}
			env.References = refs
			log.Info().Int("records", refs.Len()).Str("path", cfg.ReferenceCSV).Msg("loaded reference data")
		}
		if cfg.ConventionCSV != "" {
			convs, err := refdata.LoadConventionCSV(cfg.ConventionCSV)
			if err != nil {
				return env, err
			}
			env.Conventions = convs
			log.Info().Int("tickers", convs.Len()).Str("path", cfg.ConventionCSV).Msg("loaded ticker conventions")
		}
	}

	if cfg.CurvesJSON != "" {
		curves, err := refdata.LoadCurvesJSON(cfg.CurvesJSON)
		if err != nil {
			return env, err
		}
		env.Curves = curves
		log.Info().Int("curves", curves.Len()).Str("path", cfg.CurvesJSON).Msg("loaded benchmark curves")
	}
	return env, nil
}
