// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modelcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/hearth-tui/internal/logger"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// DownloadError reports a failed weights download.
type DownloadError struct {
	Model string
	URL   string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.Model, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// =============================================================================
// CACHE
// =============================================================================

// Cache stores downloaded model weights under a single directory, one
// subdirectory per model id.
//
// Downloads land in a .tmp file and are renamed into place only once
// complete, so the presence of a weights file implies it is whole.
type Cache struct {
	dir    string
	client *http.Client
	log    *logger.Logger
}

// InstalledModel describes one locally cached model.
type InstalledModel struct {
	ID        string
	Path      string
	SizeBytes int64
	ModTime   time.Time
}

// DefaultDir returns the standard cache location, ~/.hearth/models.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".hearth", "models"), nil
}

// New creates a cache rooted at dir, creating it if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Cache{
		dir: dir,
		// No client timeout: weights run to gigabytes and the context
		// carries cancellation.
		client: &http.Client{},
		log:    logger.Log.With("modelcache"),
	}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

// WeightsPath returns where the spec's weights live (or would live) locally.
func (c *Cache) WeightsPath(spec ModelSpec) string {
	return filepath.Join(c.dir, spec.ID, spec.WeightsFile)
}

// IsCached reports whether the spec's weights are already present.
func (c *Cache) IsCached(spec ModelSpec) bool {
	info, err := os.Stat(c.WeightsPath(spec))
	return err == nil && info.Mode().IsRegular()
}

// Resolve returns the local weights path for spec, downloading first when the
// cache misses. Progress is reported through the callback as the fraction
// downloaded in [0,1], or a negative value while the total size is unknown.
func (c *Cache) Resolve(ctx context.Context, spec ModelSpec, progress func(file string, fraction float64)) (string, error) {
	dest := c.WeightsPath(spec)
	if c.IsCached(spec) {
		c.log.Debug("cache hit", "model", spec.ID, "path", dest)
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: err}
	}

	c.log.Info("downloading weights",
		"model", spec.ID, "url", spec.WeightsURL, "size", spec.SizeString())

	if err := c.download(ctx, spec, dest, progress); err != nil {
		return "", err
	}
	return dest, nil
}

// Remove deletes a model's cached weights.
func (c *Cache) Remove(id string) error {
	dir := filepath.Join(c.dir, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("model %q is not installed", id)
	}
	return os.RemoveAll(dir)
}

// Installed lists locally cached models, sorted by id.
func (c *Cache) Installed() ([]InstalledModel, error) {
	dirs, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var models []InstalledModel
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(c.dir, d.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) == ".tmp" {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			models = append(models, InstalledModel{
				ID:        d.Name(),
				Path:      filepath.Join(c.dir, d.Name(), f.Name()),
				SizeBytes: info.Size(),
				ModTime:   info.ModTime(),
			})
		}
	}

	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// =============================================================================
// DOWNLOAD
// =============================================================================

// download streams the weights into dest.tmp and renames into place. A
// cancelled context aborts the transfer and removes the partial file.
func (c *Cache) download(ctx context.Context, spec ModelSpec, dest string, progress func(string, float64)) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.WeightsURL, nil)
	if err != nil {
		return &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{Model: spec.ID, URL: spec.WeightsURL,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: err}
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	total := resp.ContentLength
	hasher := sha256.New()

	// Progress updates are throttled so a fast link cannot flood the UI's
	// event queue.
	limiter := rate.NewLimiter(rate.Every(200*time.Millisecond), 1)

	var written int64
	buf := make([]byte, 64*1024)
	for {
		if ctx.Err() != nil {
			err = &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: ctx.Err()}
			return err
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				err = &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: werr}
				return err
			}
			hasher.Write(buf[:n])
			written += int64(n)

			if progress != nil && limiter.Allow() {
				progress(spec.WeightsFile, fractionOf(written, total))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			err = &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: readErr}
			return err
		}
	}

	if spec.SHA256 != "" {
		sum := hex.EncodeToString(hasher.Sum(nil))
		if sum != spec.SHA256 {
			err = &DownloadError{Model: spec.ID, URL: spec.WeightsURL,
				Err: fmt.Errorf("checksum mismatch: got %s, want %s", sum, spec.SHA256)}
			return err
		}
	}

	if err = f.Sync(); err != nil {
		err = &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: err}
		return err
	}
	if err = f.Close(); err != nil {
		err = &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: err}
		return err
	}
	if err = os.Rename(tmp, dest); err != nil {
		err = &DownloadError{Model: spec.ID, URL: spec.WeightsURL, Err: err}
		return err
	}

	if progress != nil {
		progress(spec.WeightsFile, 1.0)
	}
	c.log.Info("download complete", "model", spec.ID, "bytes", written)
	return nil
}

// fractionOf computes downloaded/total, or a negative marker when the server
// sent no Content-Length.
func fractionOf(written, total int64) float64 {
	if total <= 0 {
		return -1
	}
	return float64(written) / float64(total)
}
