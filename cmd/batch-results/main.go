// Command batch-results runs the batch reconciliation loop: it polls the
// deforestation status endpoint for every analysis id in the input (a table
// column or the run ledger), retrying pending ids across rounds until all are
// resolved or the retry budget runs out. Completed payloads go to a JSON
// results file, everything else to an errors table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"agrobatch/internal/api"
	"agrobatch/internal/common"
	"agrobatch/internal/ledger"
	"agrobatch/internal/reconcile"
	"agrobatch/internal/results"
	"agrobatch/internal/table"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in         = flag.String("in", "", "input CSV/XLSX with analysis ids (omit with --from-ledger)")
		column     = flag.String("column", "", "column holding the analysis ids (required with --in)")
		sheet      = flag.String("sheet", "", "worksheet name for XLSX input (default first sheet)")
		fromLedger = flag.Bool("from-ledger", false, "poll the unresolved submissions recorded in the run ledger")
		out        = flag.String("out", "", "results JSON path (default <output dir>/resultados.json)")
		errOut     = flag.String("errors", "", "errors table path (default <output dir>/errors.csv)")
	)
	flag.Parse()

	if *in == "" && !*fromLedger {
		printError("Error: --in or --from-ledger is required\n")
		os.Exit(1)
	}
	if *in != "" && *column == "" {
		printError("Error: --column is required with --in\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(cfg.Paths.OutputDir, "resultados.json")
	}
	if *errOut == "" {
		*errOut = filepath.Join(cfg.Paths.OutputDir, "errors.csv")
	}

	ctx := context.Background()

	led, err := ledger.Open(cfg.Paths.LedgerPath, logger)
	if err != nil {
		if *fromLedger {
			logger.Error("failed to open run ledger", "error", err)
			os.Exit(1)
		}
		logger.Warn("ledger unavailable, outcomes will not be recorded", "error", err)
		led = nil
	} else {
		defer func() {
			_ = led.Close()
		}()
	}

	var jobs []*reconcile.Job
	if *fromLedger {
		pending, err := led.Pending(ctx, "/deforestation")
		if err != nil {
			logger.Error("failed to read pending submissions", "error", err)
			os.Exit(1)
		}
		ids := make([]string, len(pending))
		for i, s := range pending {
			ids[i] = s.AnalysisID
		}
		jobs = reconcile.NewJobs(ids)
		logger.Info("polling ledger submissions", "pending", len(jobs))
	} else {
		tbl, err := table.Load(*in, *sheet)
		if err != nil {
			logger.Error("failed to load input table", "path", *in, "error", err)
			os.Exit(1)
		}
		col, err := tbl.Column(*column)
		if err != nil {
			logger.Error("id column not found", "error", err)
			os.Exit(1)
		}
		ids := make([]string, len(tbl.Rows))
		for row := range tbl.Rows {
			ids[row] = strings.TrimSpace(tbl.Get(row, col))
		}
		jobs = reconcile.NewJobs(ids)
		logger.Info("polling table ids", "rows", len(tbl.Rows), "jobs", len(jobs))
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.AccessToken, logger)
	loop := reconcile.New(
		reconcile.FetchFunc(client.FetchAnalysisStatus),
		reconcile.Config{MaxRounds: cfg.Poll.MaxRounds, Interval: cfg.Poll.Interval},
		logger,
	)
	res := loop.Run(ctx, jobs)

	if led != nil {
		for _, j := range res.Completed {
			if err := led.MarkResolved(ctx, j.ID, "COMPLETED", j.Attempts); err != nil {
				logger.Warn("failed to record outcome", "id", j.ID, "error", err)
			}
		}
		for _, j := range res.Errors {
			if err := led.MarkResolved(ctx, j.ID, "ERROR", j.Attempts); err != nil {
				logger.Warn("failed to record outcome", "id", j.ID, "error", err)
			}
		}
	}

	// Output failures are reported but do not abort the other partition.
	exitCode := 0
	if err := results.WriteCompleted(*out, res.Completed, logger); err != nil {
		exitCode = 1
	}
	if err := results.WriteErrors(*errOut, res.Errors, logger); err != nil {
		exitCode = 1
	}

	logger.Info("reconciliation complete",
		"jobs", len(jobs),
		"completed", len(res.Completed),
		"errors", len(res.Errors),
		"rounds", res.Rounds)

	fmt.Printf("Reconciliation complete!\n")
	fmt.Printf("- Jobs: %d\n", len(jobs))
	fmt.Printf("- Completed: %d\n", len(res.Completed))
	fmt.Printf("- Errors: %d\n", len(res.Errors))
	fmt.Printf("- Rounds: %d\n", res.Rounds)
	fmt.Printf("- Results: %s\n", *out)
	if len(res.Errors) > 0 {
		fmt.Printf("- Errors file: %s\n", *errOut)
	}
	os.Exit(exitCode)
}
