// Command deforestation-request submits one deforestation analysis per row of
// a tabular input file and writes the returned analysis ids back into the
// table. MapBiomas analyses take one or more year ranges; --prodes switches to
// the PRODES endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"agrobatch/internal/api"
	"agrobatch/internal/common"
	"agrobatch/internal/ledger"
	"agrobatch/internal/requests"
	"agrobatch/internal/table"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// parseYearRanges reads "2004-2023" or "2004-2023,2010-2015".
func parseYearRanges(s string) ([][]int, error) {
	var out [][]int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		years := make([]int, 0, len(bounds))
		for _, b := range bounds {
			y, err := strconv.Atoi(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("invalid year range %q: %w", part, err)
			}
			years = append(years, y)
		}
		out = append(out, years)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no year ranges given")
	}
	return out, nil
}

func main() {
	var (
		in     = flag.String("in", "", "input CSV/XLSX with property codes (required)")
		out    = flag.String("out", "", "output table path (default <output dir>/<input>_updated.<ext>)")
		column = flag.String("column", "CAR", "column holding the property codes")
		sheet  = flag.String("sheet", "", "worksheet name for XLSX input (default first sheet)")
		years  = flag.String("years", "2004-2023", "MapBiomas year ranges, e.g. 2004-2023,2010-2015")
		prodes = flag.Bool("prodes", false, "submit PRODES analyses instead of MapBiomas")
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
	processor := requests.NewDeforestationProcessor(client, led, logger)
	processor.RequestName = *name

	var stats requests.Stats
	if *prodes {
		stats, err = processor.ProcessProdes(ctx, tbl, *column)
	} else {
		ranges, perr := parseYearRanges(*years)
		if perr != nil {
			printError("Error: %v\n", perr)
			os.Exit(1)
		}
		stats, err = processor.ProcessMapBiomas(ctx, tbl, *column, ranges)
	}
	if err != nil {
		logger.Error("batch submission failed", "error", err)
		os.Exit(1)
	}

	if err := tbl.Save(*out); err != nil {
		logger.Error("failed to save output table", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch submission complete",
		"rows", stats.Rows,
		"submitted", stats.Submitted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"output_file", *out)

	fmt.Printf("Batch submission complete!\n")
	fmt.Printf("- Rows: %d\n", stats.Rows)
	fmt.Printf("- Submitted: %d\n", stats.Submitted)
	fmt.Printf("- Skipped: %d\n", stats.Skipped)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Output: %s\n", *out)
}
