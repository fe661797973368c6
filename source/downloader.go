// Package source downloads the DrugBank XML release to the local input file.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/giygas/drugbank-mapping/logging"
)

// Downloader fetches one URL into one local file
type Downloader struct {
	url    string
	path   string
	client *http.Client
}

// NewDownloader creates a downloader writing url to path
func NewDownloader(url, path string) *Downloader {
	return &Downloader{
		url:  url,
		path: path,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Fetch downloads the file. The previous file is only replaced once the
// whole body has been written, so a failed download leaves it untouched.
func (d *Downloader) Fetch(ctx context.Context) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return fmt.Errorf("invalid download url %s: %w", d.url, err)
	}

	response, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", d.url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: unexpected status %s", d.url, response.Status)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	written, err := io.Copy(tmp, response.Body)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to read response body from %s: %w", d.url, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", d.path, err)
	}

	logging.Info("Input downloaded",
		"url", d.url,
		"path", d.path,
		"bytes", written,
		"duration", time.Since(start).String(),
	)
	return nil
}
