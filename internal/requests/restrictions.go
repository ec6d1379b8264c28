package requests

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"agrobatch/internal/api"
	"agrobatch/internal/document"
	"agrobatch/internal/table"
)

// RestrictionEntry is one document check in the output file. Invalid documents
// carry an error and are never sent to the API.
type RestrictionEntry struct {
	Row             int    `json:"row"`
	Document        string `json:"document"`
	DocumentType    string `json:"document_type"`
	HasRestrictions *bool  `json:"hasRestrictions,omitempty"`
	Error           string `json:"error,omitempty"`
}

// RestrictionProcessor checks CPF or CNPJ documents against the restrictions
// endpoint, cleaning and validating each one first.
type RestrictionProcessor struct {
	api *api.Client
	log *slog.Logger
}

func NewRestrictionProcessor(client *api.Client, logger *slog.Logger) *RestrictionProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RestrictionProcessor{api: client, log: logger}
}

// Process checks every document in the input column and writes the entries to
// outputPath as {"data":[...]}.
func (p *RestrictionProcessor) Process(ctx context.Context, tbl *table.Table, docColumn string, docType document.Type, outputPath string) (Stats, error) {
	docCol, err := tbl.Column(docColumn)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Rows: len(tbl.Rows)}
	entries := make([]RestrictionEntry, 0, len(tbl.Rows))
	for row := range tbl.Rows {
		raw := strings.TrimSpace(tbl.Get(row, docCol))
		if raw == "" {
			p.log.Info("requests.skip_blank", "row", row, "column", docColumn)
			stats.Skipped++
			continue
		}

		cleaned := document.Clean(raw)
		entry := RestrictionEntry{Row: row, Document: cleaned, DocumentType: string(docType)}
		if !docType.Valid(cleaned) {
			entry.Error = fmt.Sprintf("document %q (cleaned %q) does not have the digit count of a %s", raw, cleaned, docType)
			p.log.Warn("requests.invalid_document", "row", row, "document", raw, "type", docType)
			stats.Failed++
			entries = append(entries, entry)
			continue
		}

		has, err := p.api.CheckRestrictions(ctx, docType.ParamKey(), cleaned)
		if err != nil {
			entry.Error = err.Error()
			stats.Failed++
			p.log.Error("requests.restriction_failed", "row", row, "document", cleaned, "error", err)
		} else {
			entry.HasRestrictions = &has
			stats.Submitted++
			p.log.Info("requests.restriction_ok", "row", row, "document", cleaned, "has_restrictions", has)
		}
		entries = append(entries, entry)
	}

	body, err := json.MarshalIndent(struct {
		Data []RestrictionEntry `json:"data"`
	}{Data: entries}, "", "  ")
	if err != nil {
		return stats, fmt.Errorf("marshal restriction results: %w", err)
	}
	if err := os.WriteFile(outputPath, body, 0o644); err != nil {
		p.log.Error("requests.output_write_failed", "path", outputPath, "error", err)
		return stats, fmt.Errorf("write %s: %w", outputPath, err)
	}
	p.log.Info("requests.output_written", "path", outputPath, "entries", len(entries))
	return stats, nil
}
