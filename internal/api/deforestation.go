package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"agrobatch/constants"
	"agrobatch/internal/reconcile"
)

// submissionEnvelope is the { "data": { "id": ... } } wrapper returned by the
// submission endpoints.
type submissionEnvelope struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// SubmitAnalysis requests a MapBiomas deforestation analysis for one property
// code over a year range and returns the analysis id to poll later.
func (c *Client) SubmitAnalysis(ctx context.Context, name, propertyCode string, years []int) (string, error) {
	payload := map[string]any{
		"name":        name,
		"codImovel":   propertyCode,
		"yearsBiomas": years,
	}
	return c.submit(ctx, "/deforestation", payload)
}

// SubmitProdesAnalysis requests a PRODES deforestation analysis for one
// property code.
func (c *Client) SubmitProdesAnalysis(ctx context.Context, name, propertyCode string) (string, error) {
	payload := map[string]any{
		"name":      name,
		"codImovel": propertyCode,
	}
	return c.submit(ctx, "/deforestation/prodes", payload)
}

func (c *Client) submit(ctx context.Context, path string, payload map[string]any) (string, error) {
	raw, err := c.doJSON(ctx, http.MethodPost, path, nil, payload, submitTimeout)
	if err != nil {
		return "", err
	}
	var env submissionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode submission response: %w", err)
	}
	if env.Data.ID == "" {
		return "", fmt.Errorf("submission response missing id")
	}
	return env.Data.ID, nil
}

// FetchAnalysisStatus polls GET /deforestation?id=<id> and classifies the
// response for the reconciliation loop. Transport errors and undecodable
// bodies surface as errors; the loop treats both as "still pending".
func (c *Client) FetchAnalysisStatus(ctx context.Context, id string) (reconcile.Outcome, error) {
	query := url.Values{"id": []string{id}}
	raw, err := c.doJSON(ctx, http.MethodGet, "/deforestation", query, nil, statusTimeout)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	return ClassifyAnalysis(raw), nil
}

// ClassifyAnalysis maps a raw status-endpoint body onto a poll outcome:
//
//   - empty/undecodable data          -> pending
//   - COMPLETED with a result payload -> completed (full body kept)
//   - COMPLETED with a null result    -> pending, never reported as done
//   - ERROR                           -> failed, not retried
//   - anything else                   -> pending
//
// A record with no task list but a non-null result payload also counts as
// completed. The upstream service emits such records for analyses finished
// before task tracking existed; this looks like a bug on their side, but it is
// load-bearing for old ids, so it is kept.
func ClassifyAnalysis(raw []byte) reconcile.Outcome {
	var env struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Data) == 0 {
		return reconcile.Outcome{Kind: reconcile.Pending}
	}

	recRaw := env.Data[0]
	var rec struct {
		Task []struct {
			Status string `json:"status"`
		} `json:"Task"`
		AnalysisResults json.RawMessage `json:"analysisResults"`
	}
	if err := json.Unmarshal(recRaw, &rec); err != nil {
		return reconcile.Outcome{Kind: reconcile.Pending}
	}

	hasResults := len(rec.AnalysisResults) > 0 && !bytes.Equal(rec.AnalysisResults, []byte("null"))

	if len(rec.Task) == 0 {
		if hasResults && ValidateJSONAgainstSchema(analysisRecordSchema(), recRaw) == nil {
			return reconcile.Outcome{
				Kind:       reconcile.Completed,
				LastStatus: string(constants.TaskCompleted),
				Result:     raw,
			}
		}
		return reconcile.Outcome{Kind: reconcile.Pending}
	}

	status := strings.ToUpper(rec.Task[0].Status)
	switch constants.TaskStatus(status) {
	case constants.TaskCompleted:
		if hasResults && ValidateJSONAgainstSchema(analysisRecordSchema(), recRaw) == nil {
			return reconcile.Outcome{
				Kind:       reconcile.Completed,
				LastStatus: status,
				Result:     raw,
			}
		}
		// COMPLETED without results would report partial data as final.
		return reconcile.Outcome{Kind: reconcile.Pending, LastStatus: status}
	case constants.TaskError:
		return reconcile.Outcome{Kind: reconcile.Failed, LastStatus: status}
	default:
		return reconcile.Outcome{Kind: reconcile.Pending, LastStatus: status}
	}
}
