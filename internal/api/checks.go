package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// IntersectionResult is the outcome of one CAR intersection check. Data is the
// response "data" payload verbatim; StatusCode is zero when the request never
// reached the server.
type IntersectionResult struct {
	StatusCode int
	Data       json.RawMessage
}

// CheckIntersection asks the API whether a CAR intersects any restricted area.
// force makes the server reprocess even when it already has stored results.
func (c *Client) CheckIntersection(ctx context.Context, carIdentifier string, force bool) (IntersectionResult, error) {
	payload := map[string]any{
		"carIdentifier": carIdentifier,
		"force":         force,
	}
	raw, err := c.doJSON(ctx, http.MethodPatch, "/cars/check-intersection", nil, payload, checkTimeout)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			// The server answered; keep whatever body it sent.
			return IntersectionResult{StatusCode: httpErr.StatusCode, Data: dataField(raw)}, err
		}
		return IntersectionResult{}, err
	}
	return IntersectionResult{StatusCode: http.StatusOK, Data: dataField(raw)}, nil
}

// CheckRestrictions looks up CPF/CNPJ restrictions. documentKey is "cpf" or
// "cnpj"; document must already be cleaned to digits.
func (c *Client) CheckRestrictions(ctx context.Context, documentKey, document string) (bool, error) {
	query := url.Values{documentKey: []string{document}}
	raw, err := c.doJSON(ctx, http.MethodGet, "/restriction/check-restrictions", query, nil, checkTimeout)
	if err != nil {
		return false, err
	}
	var env struct {
		Data struct {
			HasRestrictions *bool `json:"hasRestrictions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("decode restrictions response: %w", err)
	}
	if env.Data.HasRestrictions == nil {
		return false, fmt.Errorf("restrictions response missing hasRestrictions")
	}
	return *env.Data.HasRestrictions, nil
}

// dataField extracts the raw "data" member of an envelope, or nil.
func dataField(raw []byte) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	return env.Data
}
