package requests

import (
	"context"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"agrobatch/constants"
	"agrobatch/internal/api"
	"agrobatch/internal/table"
)

// DownloadProcessor resolves download links for finished analyses and
// optionally streams the artifacts to disk.
type DownloadProcessor struct {
	api *api.Client
	log *slog.Logger

	EntityType  string
	DownloadDir string
	// LinkOnly fills the download_link column without fetching any files.
	LinkOnly bool
}

func NewDownloadProcessor(client *api.Client, entityType, downloadDir string, logger *slog.Logger) *DownloadProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadProcessor{
		api:         client,
		log:         logger,
		EntityType:  entityType,
		DownloadDir: downloadDir,
	}
}

// Process resolves the download url for every id in the input column, stores
// it in the download_link column, and (unless LinkOnly) streams each artifact
// into <DownloadDir>/<entity folder>/<id><ext>.
func (p *DownloadProcessor) Process(ctx context.Context, tbl *table.Table, idColumn string) (Stats, error) {
	idCol, err := tbl.Column(idColumn)
	if err != nil {
		return Stats{}, err
	}
	linkCol := tbl.EnsureColumn("download_link")

	folder := filepath.Join(p.DownloadDir, constants.EntityFolder(p.EntityType))
	if !p.LinkOnly {
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return Stats{}, err
		}
	}

	stats := Stats{Rows: len(tbl.Rows)}
	for row := range tbl.Rows {
		id := strings.TrimSpace(tbl.Get(row, idCol))
		if id == "" {
			p.log.Info("requests.skip_blank", "row", row, "column", idColumn)
			stats.Skipped++
			continue
		}

		link, err := p.api.DownloadLink(ctx, p.EntityType, id)
		if err != nil {
			p.log.Error("requests.link_failed", "row", row, "id", id, "error", err)
			stats.Failed++
			continue
		}
		tbl.Set(row, linkCol, link)

		if p.LinkOnly {
			stats.Submitted++
			p.log.Info("requests.link_only", "row", row, "id", id)
			continue
		}

		dest := filepath.Join(folder, id+extFromURL(link))
		contentType, err := p.api.FetchFile(ctx, link, dest)
		if err != nil {
			p.log.Error("requests.download_failed", "row", row, "id", id, "error", err)
			stats.Failed++
			continue
		}
		// No extension in the url: retry naming from the Content-Type.
		if extFromURL(link) == ".bin" {
			if ext := extFromContentType(contentType); ext != "" {
				renamed := filepath.Join(folder, id+ext)
				if err := os.Rename(dest, renamed); err == nil {
					dest = renamed
				}
			}
		}
		stats.Submitted++
		p.log.Info("requests.downloaded", "row", row, "id", id, "dest", dest)
	}
	return stats, nil
}

// extFromURL extracts a file extension from the url path, defaulting to .bin.
func extFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ".bin"
	}
	if ext := path.Ext(parsed.Path); ext != "" {
		return ext
	}
	return ".bin"
}

func extFromContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
