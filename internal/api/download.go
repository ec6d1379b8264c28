package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DownloadLink resolves the signed download URL for a finished entity.
func (c *Client) DownloadLink(ctx context.Context, entityType, id string) (string, error) {
	path := fmt.Sprintf("/download/%s/%s", entityType, id)
	raw, err := c.doJSON(ctx, http.MethodGet, path, nil, nil, statusTimeout)
	if err != nil {
		return "", err
	}
	var env struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode download response: %w", err)
	}
	if env.Data.URL == "" {
		return "", fmt.Errorf("download response missing url")
	}
	return env.Data.URL, nil
}

// FetchFile streams a download URL to dest. The URL is pre-signed, so no auth
// header is sent. Returns the Content-Type the server reported.
func (c *Client) FetchFile(ctx context.Context, url, dest string) (string, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("api.download_body_close_error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode/100 != 2 {
		return "", &HTTPError{StatusCode: resp.StatusCode}
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	written, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", dest, err)
	}

	c.log.Info("api.download",
		"dest", dest,
		"bytes", written,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp.Header.Get("Content-Type"), nil
}
