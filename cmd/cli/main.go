package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"estimateml/adapters/bolt"
	"estimateml/adapters/postgres"
	"estimateml/internal"
	"estimateml/internal/config"
	"estimateml/internal/metrics"
	"estimateml/internal/migration"
	"estimateml/internal/tables"
	"estimateml/internal/toolkit"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every command
type globalFlags struct {
	jsonOutput bool
	metricsOut string
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var flags globalFlags
	rootCmd := &cobra.Command{
		Use:           "estimateml",
		Short:         "Price prediction, classification and cost analysis for construction estimates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&flags.metricsOut, "metrics-out", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		newPredictCmd(&flags),
		newClassifyCmd(&flags),
		newAnomalyCmd(&flags),
		newOptimizeCmd(&flags),
		newRecommendCmd(&flags),
		newAnalyzeCmd(&flags),
		newTrainCmd(&flags),
		newStatusCmd(&flags),
		newSynthCmd(&flags),
		newIngestCmd(&flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the per-invocation wiring: config, logger, metrics, stores and the toolkit
type app struct {
	flags    *globalFlags
	cmd      *cobra.Command
	cfg      *config.Config
	logger   *internal.Logger
	registry *prometheus.Registry
	kit      *toolkit.Toolkit
	store    *bolt.ModelStore
	db       *sqlx.DB
	prices   *postgres.PriceRepository
}

func setup(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
	logger.SetFormat(cfg.Log.Format)

	a := &app{flags: flags, cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	opts := []toolkit.Option{
		toolkit.WithLogger(logger),
		toolkit.WithMetrics(metrics.New(a.registry)),
	}

	if path := cfg.Storage.ModelStorePath; path != "" {
		a.store, err = bolt.Open(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, toolkit.WithModelStore(a.store))
	}

	if url := cfg.Storage.DatabaseURL; url != "" {
		a.db, err = sqlx.Connect("postgres", url)
		if err != nil {
			a.closeQuietly()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.NewRunner().Run(ctx, a.db); err != nil {
			a.closeQuietly()
			return nil, err
		}
		a.prices = postgres.NewPriceRepository(a.db)
		opts = append(opts, toolkit.WithPriceHistory(a.prices))
	}

	a.kit, err = toolkit.New(cfg, tables.Default(), opts...)
	if err != nil {
		a.closeQuietly()
		return nil, err
	}
	if err := a.kit.LoadModels(ctx); err != nil {
		a.closeQuietly()
		return nil, err
	}
	if _, err := a.kit.RefreshBaselines(ctx); err != nil {
		logger.Warn("keeping built-in anomaly baselines: %v", err)
	}
	return a, nil
}

// close flushes metrics and releases the stores; every failure is reported
func (a *app) close() error {
	var errs []error
	if a.flags != nil && a.flags.metricsOut != "" {
		if err := prometheus.WriteToTextfile(a.flags.metricsOut, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close model store: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *app) closeQuietly() {
	if err := a.close(); err != nil {
		a.logger.Warn("%v", err)
	}
}

// withApp wraps a command body with setup and teardown
func withApp(flags *globalFlags, run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := setup(ctx, flags)
		if err != nil {
			return err
		}
		a.cmd = cmd
		runErr := run(ctx, a, args)
		if closeErr := a.close(); closeErr != nil {
			if runErr == nil {
				return closeErr
			}
			a.logger.Warn("%v", closeErr)
		}
		return runErr
	}
}

// printJSON writes v as indented JSON and reports whether JSON output was requested
func (a *app) printJSON(v interface{}) (bool, error) {
	if !a.flags.jsonOutput {
		return false, nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}
