package requests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"agrobatch/internal/api"
	"agrobatch/internal/table"
)

// IntersectionEntry is one CAR's intersection check in the output file.
type IntersectionEntry struct {
	Row           int             `json:"row"`
	CarIdentifier string          `json:"carIdentifier"`
	StatusCode    *int            `json:"status_code"`
	Response      json.RawMessage `json:"response,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// IntersectProcessor checks every CAR in the input table against restricted
// areas and collects the responses into a single JSON output file.
type IntersectProcessor struct {
	api *api.Client
	log *slog.Logger

	// Force makes the server reprocess CARs that already have stored results.
	Force bool
}

func NewIntersectProcessor(client *api.Client, logger *slog.Logger) *IntersectProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntersectProcessor{api: client, log: logger, Force: true}
}

// Process runs the intersection check row by row and writes the accumulated
// entries to outputPath as {"data":[...]}. Request failures become entries
// with an error field; they never abort the pass.
func (p *IntersectProcessor) Process(ctx context.Context, tbl *table.Table, carColumn, outputPath string) (Stats, error) {
	carCol, err := tbl.Column(carColumn)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Rows: len(tbl.Rows)}
	entries := make([]IntersectionEntry, 0, len(tbl.Rows))
	for row := range tbl.Rows {
		car := strings.TrimSpace(tbl.Get(row, carCol))
		if car == "" {
			p.log.Info("requests.skip_blank", "row", row, "column", carColumn)
			stats.Skipped++
			continue
		}

		res, err := p.api.CheckIntersection(ctx, car, p.Force)
		entry := IntersectionEntry{Row: row, CarIdentifier: car}
		if res.StatusCode != 0 {
			code := res.StatusCode
			entry.StatusCode = &code
			entry.Response = res.Data
		}
		switch {
		case err == nil:
			stats.Submitted++
			p.log.Info("requests.intersect_ok", "row", row, "car", car)
		default:
			var httpErr *api.HTTPError
			if !errors.As(err, &httpErr) {
				// Transport failure, nothing reached the server.
				entry.Error = err.Error()
			}
			stats.Failed++
			p.log.Error("requests.intersect_failed", "row", row, "car", car, "error", err)
		}
		entries = append(entries, entry)
	}

	body, err := json.MarshalIndent(struct {
		Data []IntersectionEntry `json:"data"`
	}{Data: entries}, "", "  ")
	if err != nil {
		return stats, fmt.Errorf("marshal intersection results: %w", err)
	}
	if err := os.WriteFile(outputPath, body, 0o644); err != nil {
		p.log.Error("requests.output_write_failed", "path", outputPath, "error", err)
		return stats, fmt.Errorf("write %s: %w", outputPath, err)
	}
	p.log.Info("requests.output_written", "path", outputPath, "entries", len(entries))
	return stats, nil
}
