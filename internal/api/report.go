package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ReportStatus is one poll of the detailed-report endpoint. Result holds the
// reportResults payload verbatim (may be null).
type ReportStatus struct {
	TaskStatus string
	Result     json.RawMessage
}

// SubmitReport requests a detailed restrictions report for one property code
// and returns the report id to poll later.
func (c *Client) SubmitReport(ctx context.Context, name, propertyCode string) (string, error) {
	payload := map[string]any{
		"name":      name,
		"codImovel": propertyCode,
	}
	return c.submit(ctx, "/report-detailed/restrictions", payload)
}

// FetchReportStatus polls GET /report-detailed/restrictions?id=<id>. An empty
// data array returns ErrNoData so the sweep can mark the row NO_DATA.
func (c *Client) FetchReportStatus(ctx context.Context, id string) (ReportStatus, error) {
	query := url.Values{"id": []string{id}}
	raw, err := c.doJSON(ctx, http.MethodGet, "/report-detailed/restrictions", query, nil, reportTimeout)
	if err != nil {
		return ReportStatus{}, err
	}

	var env struct {
		Data []struct {
			TaskStatus    string          `json:"taskStatus"`
			ReportResults json.RawMessage `json:"reportResults"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ReportStatus{}, fmt.Errorf("decode report response: %w", err)
	}
	if len(env.Data) == 0 {
		return ReportStatus{}, ErrNoData
	}
	rec := env.Data[0]
	return ReportStatus{
		TaskStatus: strings.ToUpper(rec.TaskStatus),
		Result:     rec.ReportResults,
	}, nil
}
