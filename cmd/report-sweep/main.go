// Command report-sweep makes a single pass over a table of report ids,
// polling each unfinished one once and updating the taskStatus and
// reportResults columns in the same file. Run it again later to pick up
// reports that were still processing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"agrobatch/internal/api"
	"agrobatch/internal/common"
	"agrobatch/internal/ledger"
	"agrobatch/internal/requests"
	"agrobatch/internal/table"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in     = flag.String("in", "", "table with report ids, updated in place (required)")
		column = flag.String("column", "restriction_id", "column holding the report ids")
		sheet  = flag.String("sheet", "", "worksheet name for XLSX input (default first sheet)")
	)
	flag.Parse()

	if *in == "" {
		printError("Error: --in is required\n")
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

	ctx := context.Background()

	tbl, err := table.Load(*in, *sheet)
	if err != nil {
		logger.Error("failed to load input table", "path", *in, "error", err)
		os.Exit(1)
	}

	led, err := ledger.Open(cfg.Paths.LedgerPath, logger)
	if err != nil {
		logger.Warn("ledger unavailable, outcomes will not be recorded", "error", err)
		led = nil
	} else {
		defer func() {
			_ = led.Close()
		}()
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.AccessToken, logger)
	processor := requests.NewReportProcessor(client, led, logger)

	stats, err := processor.Sweep(ctx, tbl, *column)
	if err != nil {
		logger.Error("report sweep failed", "error", err)
		os.Exit(1)
	}

	// The sweep updates the input file in place.
	if err := tbl.Save(*in); err != nil {
		logger.Error("failed to save table", "path", *in, "error", err)
		os.Exit(1)
	}

	logger.Info("report sweep complete",
		"rows", stats.Rows,
		"polled", stats.Submitted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"file", *in)

	fmt.Printf("Report sweep complete!\n")
	fmt.Printf("- Rows: %d\n", stats.Rows)
	fmt.Printf("- Polled: %d\n", stats.Submitted)
	fmt.Printf("- Skipped: %d\n", stats.Skipped)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Updated: %s\n", *in)
}
