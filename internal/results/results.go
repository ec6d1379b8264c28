// Package results persists the final partitions of a reconciliation run: a
// JSON file with the full payloads of completed jobs, and a flat table for
// jobs that failed or exhausted the retry budget.
package results

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"agrobatch/internal/reconcile"
	"agrobatch/internal/table"
)

// WriteCompleted writes the completed partition as {"data":[...payloads...]}.
func WriteCompleted(path string, jobs []*reconcile.Job, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	payloads := make([]json.RawMessage, 0, len(jobs))
	for _, j := range jobs {
		payloads = append(payloads, j.Result)
	}
	body, err := json.MarshalIndent(struct {
		Data []json.RawMessage `json:"data"`
	}{Data: payloads}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		logger.Error("results.write_failed", "path", path, "error", err)
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("results.written", "path", path, "completed", len(jobs))
	return nil
}

// WriteErrors exports the error partition as a table (CSV or XLSX by
// extension) with one row per unresolved job. Nothing is written when the
// partition is empty.
func WriteErrors(path string, jobs []*reconcile.Job, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if len(jobs) == 0 {
		return nil
	}

	tbl := &table.Table{
		Headers: []string{"row", "id", "attempts", "last_status", "reason"},
	}
	for _, j := range jobs {
		tbl.Rows = append(tbl.Rows, []string{
			strconv.Itoa(j.Row),
			j.ID,
			strconv.Itoa(j.Attempts),
			j.LastStatus,
			j.Reason,
		})
	}
	if err := tbl.Save(path); err != nil {
		logger.Error("results.errors_write_failed", "path", path, "error", err)
		return err
	}
	logger.Info("results.errors_written", "path", path, "errors", len(jobs))
	return nil
}
