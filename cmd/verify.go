package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoverse/tverify/formatter"
	"github.com/gnoverse/tverify/internal"
	tt "github.com/gnoverse/tverify/internal/types"
	"github.com/gnoverse/tverify/verify"
)

var (
	ignoreRules      string
	ignoreLabels     string
	verifyJsonOutput bool
	outPath          string
	noCache          bool
	watchMode        bool
	metricsAddr      string
	workers          int
)

var verifyCmd = &cobra.Command{
	Use:   "verify [databases...]",
	Short: "Verify every theorem of the given databases",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide database files or directories")
			os.Exit(1)
		}

		config, err := verify.LoadConfig(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		applyFlags(&config)

		files, err := verify.CollectDatabases(args)
		if err != nil {
			logger.Fatal("Failed to collect databases", zap.Error(err))
		}

		runner := &verifyRunner{config: config, metrics: internal.NewMetrics()}
		if !noCache {
			cache, err := verify.OpenCache(config)
			if err != nil {
				logger.Warn("Result cache disabled", zap.Error(err))
			} else {
				defer cache.Close()
				runner.cache = cache
			}
		}

		if metricsAddr != "" {
			go serveMetrics(metricsAddr, runner.metrics)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		reports := runner.runAll(ctx, files)
		cancel()

		printReports(logger, reports, verifyJsonOutput, outPath)

		if watchMode {
			watchDatabases(runner, files)
			return
		}
		if anyFailed(reports) {
			os.Exit(1)
		}
	},
}

func init() {
	verifyCmd.Flags().StringVar(&ignoreRules, "ignore-rules", "", "Comma-separated list of rules to disable")
	verifyCmd.Flags().StringVar(&ignoreLabels, "ignore", "", "Comma-separated list of theorem labels to skip")
	verifyCmd.Flags().BoolVar(&verifyJsonOutput, "json", false, "Output results in JSON format")
	verifyCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "Do not read or write the result cache")
	verifyCmd.Flags().BoolVar(&watchMode, "watch", false, "Re-verify a database whenever it changes")
	verifyCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")
	verifyCmd.Flags().IntVar(&workers, "workers", 0, "Number of theorems verified concurrently (default: number of CPUs)")
}

func applyFlags(config *verify.Config) {
	if ignoreRules != "" {
		for _, rule := range strings.Split(ignoreRules, ",") {
			if config.Rules == nil {
				config.Rules = map[string]tt.ConfigRule{}
			}
			config.Rules[strings.TrimSpace(rule)] = tt.ConfigRule{Severity: tt.SeverityOff}
		}
	}
	if ignoreLabels != "" {
		for _, label := range strings.Split(ignoreLabels, ",") {
			config.Ignore = append(config.Ignore, strings.TrimSpace(label))
		}
	}
	if workers > 0 {
		config.Workers = workers
	}
}

// databaseReport is the outcome of one database.
type databaseReport struct {
	verify.Summary
	Results []tt.Result `json:"results"`
	Error   string      `json:"error,omitempty"`
}

type verifyRunner struct {
	config  verify.Config
	cache   *internal.Cache
	metrics *internal.Metrics
}

func (r *verifyRunner) runAll(ctx context.Context, files []string) []databaseReport {
	reports := make([]databaseReport, 0, len(files))
	for _, file := range files {
		reports = append(reports, r.run(ctx, file))
		if ctx.Err() != nil {
			break
		}
	}
	return reports
}

func (r *verifyRunner) run(ctx context.Context, file string) databaseReport {
	report := databaseReport{Summary: verify.Summary{Database: file}}

	engine, err := verify.New(file, r.config, logger)
	if err != nil {
		logger.Error("Failed to load database", zap.String("database", file), zap.Error(err))
		report.Error = err.Error()
		return report
	}
	if r.cache != nil {
		engine.UseCache(r.cache)
	}
	engine.UseMetrics(r.metrics)

	opts := verify.ProcessOptions{Workers: r.config.Workers, Description: file}
	if !verifyJsonOutput {
		opts.Progress = os.Stderr
	}
	results, err := verify.ProcessTheorems(ctx, logger, engine, opts, verify.ProcessTheorem)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn("Verification interrupted", zap.String("database", file), zap.Int("finished", len(results)))
		} else {
			logger.Error("Error verifying database", zap.String("database", file), zap.Error(err))
		}
		report.Error = err.Error()
	}
	report.Summary = verify.Summarize(file, results)
	report.Results = results
	return report
}

func anyFailed(reports []databaseReport) bool {
	for _, report := range reports {
		if report.Error != "" || report.Failed() {
			return true
		}
	}
	return false
}

func printReports(logger *zap.Logger, reports []databaseReport, isJson bool, jsonOutput string) {
	if !isJson {
		for _, report := range reports {
			for _, result := range report.Results {
				if out := formatter.FormatResult(result); out != "" {
					fmt.Print(out)
				}
			}
			if report.Error != "" {
				fmt.Printf("error: %s: %s\n", report.Database, report.Error)
			}
			fmt.Print(formatter.FormatSummary(report.Summary))
		}
		return
	}

	d, err := json.Marshal(struct {
		RunID     string           `json:"run_id"`
		Databases []databaseReport `json:"databases"`
	}{
		RunID:     uuid.NewString(),
		Databases: reports,
	})
	if err != nil {
		logger.Error("Error marshalling results to JSON", zap.Error(err))
		return
	}
	if jsonOutput == "" {
		fmt.Println(string(d))
		return
	}
	if err := os.WriteFile(jsonOutput, d, 0o644); err != nil {
		logger.Error("Error writing JSON output file", zap.Error(err))
	}
}

func serveMetrics(addr string, metrics *internal.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics server stopped", zap.Error(err))
	}
}

func watchDatabases(runner *verifyRunner, files []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	watcher, err := internal.NewWatcher(logger, files...)
	if err != nil {
		logger.Fatal("Failed to watch databases", zap.Error(err))
	}
	fmt.Println("watching for changes, press Ctrl+C to stop")
	err = watcher.Watch(ctx, func(path string) {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		printReports(logger, []databaseReport{runner.run(runCtx, path)}, verifyJsonOutput, outPath)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Watch stopped", zap.Error(err))
	}
}
