// Package requests holds the per-row batch processors: each one walks a
// tabular input, calls one API operation per row, and writes results back into
// the table or an output file. The HTTP client, ledger and logger are injected
// collaborators, never inherited state.
package requests

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"agrobatch/internal/api"
	"agrobatch/internal/ledger"
	"agrobatch/internal/table"
)

// Stats summarizes one pass over the input table.
type Stats struct {
	Rows      int
	Submitted int
	Skipped   int
	Failed    int
}

// DeforestationProcessor submits deforestation analyses for every property
// code in the input table and records the returned analysis ids.
type DeforestationProcessor struct {
	api    *api.Client
	ledger *ledger.Ledger // optional
	log    *slog.Logger

	// RequestName is the label sent in each submission payload.
	RequestName string
}

func NewDeforestationProcessor(client *api.Client, led *ledger.Ledger, logger *slog.Logger) *DeforestationProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeforestationProcessor{api: client, ledger: led, log: logger, RequestName: "batch"}
}

// YearRangeColumn names the result column for a MapBiomas year range.
func YearRangeColumn(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return "deforestation_" + strings.Join(parts, "_")
}

// ProcessMapBiomas submits one analysis per year range per row and writes the
// returned ids into per-range columns. Submission failures are logged and the
// pass continues; a row failure never aborts the batch.
func (p *DeforestationProcessor) ProcessMapBiomas(ctx context.Context, tbl *table.Table, carColumn string, yearRanges [][]int) (Stats, error) {
	if len(yearRanges) == 0 {
		return Stats{}, fmt.Errorf("at least one year range is required")
	}
	carCol, err := tbl.Column(carColumn)
	if err != nil {
		return Stats{}, err
	}
	resultCols := make([]int, len(yearRanges))
	for i, years := range yearRanges {
		resultCols[i] = tbl.EnsureColumn(YearRangeColumn(years))
	}

	stats := Stats{Rows: len(tbl.Rows)}
	for row := range tbl.Rows {
		code := strings.TrimSpace(tbl.Get(row, carCol))
		if code == "" {
			p.log.Info("requests.skip_blank", "row", row, "column", carColumn)
			stats.Skipped++
			continue
		}

		for i, years := range yearRanges {
			id, err := p.api.SubmitAnalysis(ctx, p.RequestName, code, years)
			if err != nil {
				p.log.Error("requests.submit_failed",
					"row", row, "car", code, "years", years, "error", err)
				stats.Failed++
				continue
			}
			tbl.Set(row, resultCols[i], id)
			stats.Submitted++
			p.log.Info("requests.submitted",
				"row", row, "car", code, "years", years, "analysis_id", id)

			if p.ledger != nil {
				if _, err := p.ledger.RecordSubmission(ctx, "/deforestation", row, code, id); err != nil {
					p.log.Warn("requests.ledger_record_failed", "analysis_id", id, "error", err)
				}
			}
		}
	}
	return stats, nil
}

// ProcessProdes submits one PRODES analysis per row into the
// deforestation_prodes column.
func (p *DeforestationProcessor) ProcessProdes(ctx context.Context, tbl *table.Table, carColumn string) (Stats, error) {
	carCol, err := tbl.Column(carColumn)
	if err != nil {
		return Stats{}, err
	}
	resultCol := tbl.EnsureColumn("deforestation_prodes")

	stats := Stats{Rows: len(tbl.Rows)}
	for row := range tbl.Rows {
		code := strings.TrimSpace(tbl.Get(row, carCol))
		if code == "" {
			p.log.Info("requests.skip_blank", "row", row, "column", carColumn)
			stats.Skipped++
			continue
		}

		id, err := p.api.SubmitProdesAnalysis(ctx, p.RequestName, code)
		if err != nil {
			p.log.Error("requests.submit_failed", "row", row, "car", code, "error", err)
			stats.Failed++
			continue
		}
		tbl.Set(row, resultCol, id)
		stats.Submitted++
		p.log.Info("requests.submitted", "row", row, "car", code, "analysis_id", id)

		if p.ledger != nil {
			if _, err := p.ledger.RecordSubmission(ctx, "/deforestation/prodes", row, code, id); err != nil {
				p.log.Warn("requests.ledger_record_failed", "analysis_id", id, "error", err)
			}
		}
	}
	return stats, nil
}
