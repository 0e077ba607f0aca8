package content

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/lucasnoah/scapagent/internal/logging"
	"github.com/lucasnoah/scapagent/internal/metrics"
)

// ArchiveFetcher downloads a zip archive and extracts it into the cache.
type ArchiveFetcher struct {
	url    string
	client *retryablehttp.Client
	log    *zap.Logger
}

// NewArchiveFetcher creates a fetcher for url with retryMax retries.
func NewArchiveFetcher(url string, retryMax int, log *zap.Logger) *ArchiveFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("fetch")

	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = logging.NewLeveled(log)

	return &ArchiveFetcher{url: url, client: client, log: log}
}

// Fetch downloads the archive next to dest, extracts it into dest.partial and
// renames that to dest. On failure nothing is left at dest.
func (f *ArchiveFetcher) Fetch(ctx context.Context, dest string) (err error) {
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ContentFetchTotal.WithLabelValues(status).Inc()
	}()

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", parent, err)
	}

	f.log.Info("downloading content archive", zap.String("url", f.url))
	archive, err := f.download(ctx, parent)
	if err != nil {
		return err
	}
	defer os.Remove(archive)

	partial := dest + ".partial"
	if err := os.RemoveAll(partial); err != nil {
		return fmt.Errorf("clear %s: %w", partial, err)
	}
	n, err := extractZip(archive, partial)
	if err != nil {
		os.RemoveAll(partial)
		return fmt.Errorf("extract %s: %w", f.url, err)
	}
	if err := os.Rename(partial, dest); err != nil {
		os.RemoveAll(partial)
		return fmt.Errorf("rename %s -> %s: %w", partial, dest, err)
	}

	f.log.Info("content archive extracted", zap.String("path", dest), zap.Int("files", n))
	return nil
}

func (f *ArchiveFetcher) download(ctx context.Context, dir string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %d", f.url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".content-*.zip")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download %s: %w", f.url, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}

// extractZip unpacks src into dest. When every entry sits under one shared
// top-level directory, that directory is stripped. Entries that would land
// outside dest are rejected.
func extractZip(src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	prefix := sharedPrefix(r.File)
	root := filepath.Clean(dest) + string(os.PathSeparator)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, err
	}

	files := 0
	for _, zf := range r.File {
		if !filepath.IsLocal(filepath.FromSlash(zf.Name)) {
			return files, fmt.Errorf("illegal path in archive: %s", zf.Name)
		}
		name := strings.TrimPrefix(zf.Name, prefix)
		if name == "" {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			return files, fmt.Errorf("illegal path in archive: %s", zf.Name)
		}

		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
			continue
		}
		if err := writeZipEntry(zf, target); err != nil {
			return files, fmt.Errorf("%s: %w", zf.Name, err)
		}
		files++
	}
	return files, nil
}

func writeZipEntry(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// sharedPrefix returns "top/" when all entries live under a single top-level
// directory, else "".
func sharedPrefix(files []*zip.File) string {
	var top string
	for _, zf := range files {
		i := strings.Index(zf.Name, "/")
		if i <= 0 || zf.Name[:i] == ".." {
			return ""
		}
		if top == "" {
			top = zf.Name[:i+1]
		} else if zf.Name[:i+1] != top {
			return ""
		}
	}
	return top
}
