package requests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"agrobatch/constants"
	"agrobatch/internal/api"
	"agrobatch/internal/ledger"
	"agrobatch/internal/table"
)

// ReportProcessor submits detailed restriction reports and sweeps their
// status back into the same table.
type ReportProcessor struct {
	api    *api.Client
	ledger *ledger.Ledger // optional
	log    *slog.Logger

	RequestName string
}

func NewReportProcessor(client *api.Client, led *ledger.Ledger, logger *slog.Logger) *ReportProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportProcessor{api: client, ledger: led, log: logger, RequestName: "batch"}
}

// Submit requests one detailed report per row and writes the report id into
// the restriction_id column.
func (p *ReportProcessor) Submit(ctx context.Context, tbl *table.Table, carColumn string) (Stats, error) {
	carCol, err := tbl.Column(carColumn)
	if err != nil {
		return Stats{}, err
	}
	idCol := tbl.EnsureColumn("restriction_id")

	stats := Stats{Rows: len(tbl.Rows)}
	for row := range tbl.Rows {
		code := strings.TrimSpace(tbl.Get(row, carCol))
		if code == "" {
			p.log.Info("requests.skip_blank", "row", row, "column", carColumn)
			stats.Skipped++
			continue
		}

		id, err := p.api.SubmitReport(ctx, p.RequestName, code)
		if err != nil {
			p.log.Error("requests.submit_failed", "row", row, "car", code, "error", err)
			stats.Failed++
			continue
		}
		tbl.Set(row, idCol, id)
		stats.Submitted++
		p.log.Info("requests.submitted", "row", row, "car", code, "report_id", id)

		if p.ledger != nil {
			if _, err := p.ledger.RecordSubmission(ctx, "/report-detailed/restrictions", row, code, id); err != nil {
				p.log.Warn("requests.ledger_record_failed", "report_id", id, "error", err)
			}
		}
	}
	return stats, nil
}

// Sweep makes a single pass over every row whose taskStatus is not COMPLETED,
// polls the report endpoint once per row, and updates the taskStatus and
// reportResults columns in place. It never retries within the pass; running
// the sweep again picks up where the statuses left off.
func (p *ReportProcessor) Sweep(ctx context.Context, tbl *table.Table, idColumn string) (Stats, error) {
	idCol, err := tbl.Column(idColumn)
	if err != nil {
		return Stats{}, err
	}
	statusCol := tbl.EnsureColumn("taskStatus")
	resultCol := tbl.EnsureColumn("reportResults")

	stats := Stats{Rows: len(tbl.Rows)}
	for row := range tbl.Rows {
		id := strings.TrimSpace(tbl.Get(row, idCol))
		if id == "" || tbl.Get(row, statusCol) == string(constants.TaskCompleted) {
			stats.Skipped++
			continue
		}

		st, err := p.api.FetchReportStatus(ctx, id)
		switch {
		case errors.Is(err, api.ErrNoData):
			tbl.Set(row, statusCol, "NO_DATA")
			p.log.Warn("requests.report_no_data", "row", row, "report_id", id)
		case err != nil:
			var httpErr *api.HTTPError
			if errors.As(err, &httpErr) {
				tbl.Set(row, statusCol, fmt.Sprintf("HTTP_ERROR_%d", httpErr.StatusCode))
			} else {
				tbl.Set(row, statusCol, string(constants.TaskError))
			}
			p.log.Error("requests.report_poll_failed", "row", row, "report_id", id, "error", err)
			stats.Failed++
		default:
			tbl.Set(row, statusCol, st.TaskStatus)
			if st.TaskStatus == string(constants.TaskCompleted) {
				tbl.Set(row, resultCol, string(st.Result))
				p.log.Info("requests.report_completed", "row", row, "report_id", id)
				if p.ledger != nil {
					if err := p.ledger.MarkResolved(ctx, id, st.TaskStatus, 1); err != nil {
						p.log.Warn("requests.ledger_resolve_failed", "report_id", id, "error", err)
					}
				}
			} else {
				p.log.Info("requests.report_pending", "row", row, "report_id", id, "status", st.TaskStatus)
			}
			stats.Submitted++
		}
	}
	return stats, nil
}
