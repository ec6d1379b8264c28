// Command doc-restrictions checks CPF or CNPJ documents from a tabular input
// against the restrictions endpoint. Documents are cleaned to digits and
// validated before any request is sent; invalid ones are reported in the
// output without touching the API.
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
	"agrobatch/internal/document"
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
		in      = flag.String("in", "", "input CSV/XLSX with documents (required)")
		out     = flag.String("out", "", "output JSON path (default <output dir>/<input>_restrictions.json)")
		column  = flag.String("column", "CPF_Produtor", "column holding the documents")
		sheet   = flag.String("sheet", "", "worksheet name for XLSX input (default first sheet)")
		docType = flag.String("type", "CPF", "document type: CPF or CNPJ")
	)
	flag.Parse()

	if *in == "" {
		printError("Error: --in is required\n")
		os.Exit(1)
	}
	typ, err := document.ParseType(*docType)
	if err != nil {
		printError("Error: %v\n", err)
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
		*out = filepath.Join(cfg.Paths.OutputDir, base+"_restrictions.json")
	}

	ctx := context.Background()

	tbl, err := table.Load(*in, *sheet)
	if err != nil {
		logger.Error("failed to load input table", "path", *in, "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.AccessToken, logger)
	processor := requests.NewRestrictionProcessor(client, logger)

	stats, err := processor.Process(ctx, tbl, *column, typ, *out)
	if err != nil {
		logger.Error("restriction check failed", "error", err)
		os.Exit(1)
	}

	logger.Info("restriction check complete",
		"rows", stats.Rows,
		"processed", stats.Submitted,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"document_type", string(typ),
		"output_file", *out)

	fmt.Printf("Restriction check complete!\n")
	fmt.Printf("- Rows: %d\n", stats.Rows)
	fmt.Printf("- Processed: %d\n", stats.Submitted)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Output: %s\n", *out)
}
