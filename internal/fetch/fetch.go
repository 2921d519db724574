// Package fetch downloads and unpacks the source and SDK archives the
// install task depends on.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mongodb/grip"
)

// Client downloads archives over HTTP. Failures are final: the run is
// aborted rather than retried.
type Client struct {
	HTTP *http.Client

	logger grip.Journaler
}

// New returns a Client with a generous timeout for multi-GB SDK tarballs.
func New() *Client {
	return &Client{
		HTTP:   &http.Client{Timeout: 60 * time.Minute},
		logger: grip.NewJournaler("vdbci.fetch"),
	}
}

// Download fetches url into dest, creating parent directories as needed.
// An existing file at dest is overwritten so re-running install converges
// on the same state.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: unexpected status %s", url, resp.Status)
	}

	if resp.ContentLength > 0 {
		c.logger.Infof("downloading %s (%s)", url, humanize.Bytes(uint64(resp.ContentLength)))
	} else {
		c.logger.Infof("downloading %s", url)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	c.logger.Infof("downloaded %s to %s", humanize.Bytes(uint64(n)), dest)
	return nil
}

// DownloadAndUntar fetches a .tar.gz archive and unpacks it into destDir.
// The intermediate archive is removed on success.
func (c *Client) DownloadAndUntar(ctx context.Context, url, destDir string) error {
	archive := filepath.Join(filepath.Dir(destDir), filepath.Base(url))
	if err := c.Download(ctx, url, archive); err != nil {
		return err
	}
	if err := Untar(archive, destDir); err != nil {
		return err
	}
	return os.Remove(archive)
}
