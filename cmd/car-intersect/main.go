// Command car-intersect checks every CAR in a tabular input against
// restricted areas and writes the per-row responses to a JSON output file.
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
		in     = flag.String("in", "", "input CSV/XLSX with CARs (required)")
		out    = flag.String("out", "", "output JSON path (default <output dir>/<input>_restricted_area.json)")
		column = flag.String("column", "CAR", "column holding the CARs")
		sheet  = flag.String("sheet", "", "worksheet name for XLSX input (default first sheet)")
		force  = flag.Bool("force", true, "make the server reprocess CARs with stored results")
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
		*out = filepath.Join(cfg.Paths.OutputDir, base+"_restricted_area.json")
	}

	ctx := context.Background()

	tbl, err := table.Load(*in, *sheet)
	if err != nil {
		logger.Error("failed to load input table", "path", *in, "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.AccessToken, logger)
	processor := requests.NewIntersectProcessor(client, logger)
	processor.Force = *force

	stats, err := processor.Process(ctx, tbl, *column, *out)
	if err != nil {
		logger.Error("intersection check failed", "error", err)
		os.Exit(1)
	}

	logger.Info("intersection check complete",
		"rows", stats.Rows,
		"processed", stats.Submitted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"output_file", *out)

	fmt.Printf("Intersection check complete!\n")
	fmt.Printf("- Rows: %d\n", stats.Rows)
	fmt.Printf("- Processed: %d\n", stats.Submitted)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Output: %s\n", *out)
}
