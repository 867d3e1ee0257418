// Command loadraw runs one incremental load of the VIS beach volleyball
// feed into the raw tables. Configuration comes from the environment (and a
// local .env file); a few flags override it for ad-hoc runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"visetl/internal/config"
	"visetl/internal/loader"
	"visetl/internal/metrics"
	"visetl/internal/metrics/datadog"
	"visetl/internal/pipeline"
	"visetl/internal/rawstore"
	"visetl/internal/vis"

	// register all store backends with the factory; STORE_KIND picks one.
	_ "visetl/internal/rawstore/all"
)

type flags struct {
	season   string
	truncate bool
	serial   bool
	report   bool
}

func main() {
	var f flags
	flag.StringVar(&f.season, "season", "", "tournament season filter (overrides TOURNAMENT_SEASON)")
	flag.BoolVar(&f.truncate, "truncate", false, "truncate raw tables before loading")
	flag.BoolVar(&f.serial, "serial", false, "disable the per-tournament fan-out")
	flag.BoolVar(&f.report, "report", false, "print the run report as JSON on stdout")
	flag.Parse()

	log := logrus.New()

	// run owns all the defers so a failing load still closes the store and
	// flushes buffered metrics before the process exits non-zero.
	if err := run(log, f); err != nil {
		log.WithError(err).Error("load failed")
		os.Exit(1)
	}
}

func run(log *logrus.Logger, f flags) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if f.season != "" {
		cfg.Season = f.season
	}
	if f.truncate {
		cfg.TruncateRaw = true
	}
	if f.serial {
		cfg.Parallel = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsBackend == "datadog" {
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName: cfg.MetricsJobName,
			Tags:    datadog.ParseTagsCSV(cfg.MetricsTags),
		})
		if err != nil {
			log.WithError(err).Warn("metrics: datadog init failed; metrics disabled")
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := b.Close(); err != nil {
					log.WithError(err).Warn("metrics: final flush failed")
				}
			}()
		}
	}

	store, err := rawstore.New(ctx, rawstore.Config{Kind: cfg.StoreKind, DSN: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client := vis.NewClient(vis.Config{
		BaseURL: cfg.VISBaseURL,
		Timeout: cfg.VISTimeout,
	})

	runner := &pipeline.Runner{
		Loader: &loader.Loader{Client: client, Store: store, Log: log},
		Store:  store,
		Log:    log,
		Opts: pipeline.Options{
			Season:               cfg.Season,
			TruncateRaw:          cfg.TruncateRaw,
			LimitTournaments:     cfg.LimitTournaments,
			LimitMatchesPerTourn: cfg.LimitMatchesPerTourn,
			LimitResultsPerTourn: cfg.LimitResultsPerTourn,
			Parallel:             cfg.Parallel,
			MaxWorkers:           cfg.MaxWorkers,
		},
	}

	start := time.Now()
	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	if f.report {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.WithError(err).Error("encode report")
		}
	}
	log.WithField("elapsed", time.Since(start).Truncate(time.Millisecond)).Info("done")
	return nil
}
