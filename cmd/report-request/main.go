// Command report-request submits one detailed restrictions report per row of
// a tabular input file and records the report ids in the restriction_id
// column.
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
		in     = flag.String("in", "", "input CSV/XLSX with property codes (required)")
		out    = flag.String("out", "", "output table path (default <output dir>/<input>_updated.<ext>)")
		column = flag.String("column", "CAR", "column holding the property codes")
		sheet  = flag.String("sheet", "", "worksheet name for XLSX input (default first sheet)")
		name   = flag.String("name", "batch", "request name sent with each submission")
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
	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}
	if *out == "" {
		base := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
		*out = filepath.Join(cfg.Paths.OutputDir, base+"_updated"+filepath.Ext(*in))
	}

	ctx := context.Background()

	tbl, err := table.Load(*in, *sheet)
	if err != nil {
		logger.Error("failed to load input table", "path", *in, "error", err)
		os.Exit(1)
	}

	led, err := ledger.Open(cfg.Paths.LedgerPath, logger)
	if err != nil {
		logger.Warn("ledger unavailable, submissions will not be recorded", "error", err)
		led = nil
	} else {
		defer func() {
			_ = led.Close()
		}()
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.AccessToken, logger)
	processor := requests.NewReportProcessor(client, led, logger)
	processor.RequestName = *name

	stats, err := processor.Submit(ctx, tbl, *column)
	if err != nil {
		logger.Error("report submission failed", "error", err)
		os.Exit(1)
	}
	if err := tbl.Save(*out); err != nil {
		logger.Error("failed to save output table", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("report submission complete",
		"rows", stats.Rows,
		"submitted", stats.Submitted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"output_file", *out)

	fmt.Printf("Report submission complete!\n")
	fmt.Printf("- Rows: %d\n", stats.Rows)
	fmt.Printf("- Submitted: %d\n", stats.Submitted)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Output: %s\n", *out)
}
