// Package api is the HTTP client for the environmental-compliance API: batch
// deforestation analyses, detailed reports, CAR intersection checks, CPF/CNPJ
// restriction lookups and artifact downloads.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Per-endpoint request timeouts. Submissions and status polls are cheap;
// intersection checks and downloads can take the server a while.
const (
	submitTimeout   = 10 * time.Second
	statusTimeout   = 10 * time.Second
	reportTimeout   = 30 * time.Second
	checkTimeout    = 60 * time.Second
	downloadTimeout = 60 * time.Second
)

// ErrNoData marks a well-formed response whose data array was empty.
var ErrNoData = errors.New("response contained no data records")

// HTTPError is returned for non-2xx responses so callers can branch on the
// status code.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("non-2xx status: %d", e.StatusCode)
}

// Client talks to the compliance API with a bearer token. All methods take a
// context; each applies its own per-request timeout on top of it.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 3 * time.Minute},
		log:     logger,
	}
}

// doJSON sends one JSON request and returns the raw response body. Callers
// decide the path, query and payload; non-2xx responses come back as HTTPError
// with the body attached.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, timeout time.Duration) ([]byte, error) {
	reqID := uuid.New().String()
	start := time.Now()

	var reader io.Reader
	contentLength := 0
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			c.log.Error("api.encode_error", "req_id", reqID, "error", err)
			return nil, fmt.Errorf("encode json: %w", err)
		}
		reader = bytes.NewReader(bs)
		contentLength = len(bs)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		c.log.Error("api.build_request_error", "req_id", reqID, "error", err)
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.log.Info("api.request",
		"req_id", reqID,
		"method", method,
		"path", path,
		"content_length", contentLength,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("api.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("api.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.log.Info("api.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, &HTTPError{StatusCode: resp.StatusCode, Body: raw}
	}
	return raw, nil
}
