package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/promptfire/promptfire/internal/config"
	"github.com/promptfire/promptfire/internal/dashboard"
	"github.com/promptfire/promptfire/internal/feeder"
	"github.com/promptfire/promptfire/internal/httpclient"
	"github.com/promptfire/promptfire/internal/metrics"
	"github.com/promptfire/promptfire/internal/output"
	"github.com/promptfire/promptfire/internal/runner"
	"github.com/promptfire/promptfire/internal/threshold"
	"github.com/promptfire/promptfire/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	prompts, err := feeder.NewPromptFeeder(cfg.DatasetPath)
	if err != nil {
		return err
	}
	defer prompts.Close()
	if prompts.Len() == 0 {
		fmt.Fprintf(os.Stderr, "Warning: dataset %s contains no prompts; every request will fail\n", cfg.DatasetPath)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	traces, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := traces.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: trace shutdown: %v\n", err)
		}
	}()

	client := httpclient.NewClient(cfg.Timeout)
	collector := metrics.NewCollector()

	requester := &generateRequester{
		client:    client,
		feeder:    prompts,
		collector: collector,
		targetURL: cfg.TargetURL,
		tracer:    traces.Tracer(),
		propagate: traces.ShouldPropagate(),
	}

	var wrapped runner.Requester = requester
	if cfg.LogErrors {
		wrapped = runner.WithLogging(wrapped, &stderrFailureLogger{w: os.Stderr})
	}

	var progress *output.ProgressBar
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressBar(cfg.Total, progressInterval, os.Stdout)
		wrapped = runner.WithObserver(wrapped, func(error) {
			progress.Add(1)
		})
		progress.Start()
	}

	r := runner.New(runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalRequests: cfg.Total,
		RatePerSecond: cfg.Rate,
		Requester:     wrapped,
	})

	info := dashboard.RunInfo{
		TargetURL:   cfg.TargetURL,
		Total:       cfg.Total,
		Concurrency: cfg.Concurrency,
	}
	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash = dashboard.New(collector, info)
		if err := dash.Start(); err != nil {
			return err
		}
	}

	collector.Start()
	result := r.Run(ctx)
	stats := collector.Stats(result.Duration)

	if dash != nil {
		dash.Stop()
	}
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}

	summary := output.Summary{
		RunID:       ulid.Make().String(),
		TargetURL:   cfg.TargetURL,
		Total:       cfg.Total,
		Concurrency: cfg.Concurrency,
		Stats:       stats,
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, summary); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, summary)
	}

	if cfg.OutputFile != "" {
		if err := output.WriteReportFile(cfg.OutputFile, summary); err != nil {
			return err
		}
	}

	if len(thresholds) > 0 {
		results := threshold.NewEvaluator(thresholds).Evaluate(stats)
		failed := 0
		fmt.Fprintln(os.Stdout, "Thresholds:")
		for _, res := range results {
			fmt.Fprintf(os.Stdout, "  %s\n", res.Message)
			if !res.Pass {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
		}
	}

	return nil
}
