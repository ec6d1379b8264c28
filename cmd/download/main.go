// Command download resolves pre-signed download links for finished analyses
// and streams the artifacts to disk, grouped by entity type.
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

	"agrobatch/constants"
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

func validEntity(entityType string) bool {
	switch entityType {
	case constants.EntityDeforestationAnalysis,
		constants.EntityDeforestationAnalysisProdes,
		constants.EntityReportRestrictionsDetailed:
		return true
	}
	return false
}

func main() {
	var (
		in       = flag.String("in", "", "input CSV/XLSX with analysis ids (required)")
		out      = flag.String("out", "", "output table path (default <output dir>/<input>_links<ext>)")
		column   = flag.String("column", "deforestation_2004_2023", "column holding the analysis ids")
		sheet    = flag.String("sheet", "", "worksheet name for XLSX input (default first sheet)")
		entity   = flag.String("entity", constants.EntityDeforestationAnalysis, "entity type to download")
		linkOnly = flag.Bool("link-only", false, "resolve links without fetching files")
	)
	flag.Parse()

	if *in == "" {
		printError("Error: --in is required\n")
		os.Exit(1)
	}
	if !validEntity(*entity) {
		printError("Error: unknown entity type %q (expected %s, %s or %s)\n",
			*entity,
			constants.EntityDeforestationAnalysis,
			constants.EntityDeforestationAnalysisProdes,
			constants.EntityReportRestrictionsDetailed)
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
		ext := filepath.Ext(*in)
		base := strings.TrimSuffix(filepath.Base(*in), ext)
		*out = filepath.Join(cfg.Paths.OutputDir, base+"_links"+ext)
	}

	ctx := context.Background()

	tbl, err := table.Load(*in, *sheet)
	if err != nil {
		logger.Error("failed to load input table", "path", *in, "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.AccessToken, logger)
	processor := requests.NewDownloadProcessor(client, *entity, cfg.Paths.DownloadDir, logger)
	processor.LinkOnly = *linkOnly

	stats, err := processor.Process(ctx, tbl, *column)
	if err != nil {
		logger.Error("download failed", "error", err)
		os.Exit(1)
	}

	if err := tbl.Save(*out); err != nil {
		logger.Error("failed to save output table", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("download complete",
		"rows", stats.Rows,
		"processed", stats.Submitted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"entity", *entity,
		"link_only", *linkOnly,
		"output_file", *out)

	fmt.Printf("Download complete!\n")
	fmt.Printf("- Rows: %d\n", stats.Rows)
	fmt.Printf("- Processed: %d\n", stats.Submitted)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	if !*linkOnly {
		fmt.Printf("- Files: %s\n", filepath.Join(cfg.Paths.DownloadDir, constants.EntityFolder(*entity)))
	}
	fmt.Printf("- Output: %s\n", *out)
}
