// Package artifact downloads and validates the packaged release snapshot.
package artifact

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/confeitaria/updater/internal/log"
	"github.com/confeitaria/updater/internal/manifest"
)

var (
	// ErrDownloadIncomplete is returned when the transfer ends before the
	// announced size is received.
	ErrDownloadIncomplete = errors.New("artifact: download incomplete")

	// ErrArchiveCorrupt is returned when the downloaded archive fails
	// structural validation or its content hash does not match.
	ErrArchiveCorrupt = errors.New("artifact: archive corrupt")
)

// ProgressFunc receives transfer progress. total is zero when the server
// does not announce a length.
type ProgressFunc func(done, total int64)

// Retriever streams release archives to temporary staging storage. It never
// touches the live installation.
type Retriever struct {
	client *http.Client
}

// NewRetriever creates a retriever downloading through the given client,
// which carries the source's credentials. A nil client uses the default.
func NewRetriever(client *http.Client) *Retriever {
	if client == nil {
		client = http.DefaultClient
	}
	return &Retriever{client: client}
}

// Download streams the archive at url to a temporary file and validates it.
// When expectedSHA256 is non-empty the content hash is verified as well.
// Returns the staging path of the verified archive.
func (r *Retriever) Download(ctx context.Context, url, expectedSHA256 string, progress ProgressFunc) (string, error) {
	tmpFile, err := os.CreateTemp("", "confeitaria-update-*.zip")
	if err != nil {
		return "", fmt.Errorf("artifact: create staging file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanup := func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cleanup()
		return "", fmt.Errorf("%w: %v", manifest.ErrNetworkUnavailable, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		cleanup()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: download timeout", ErrDownloadIncomplete)
		}
		return "", fmt.Errorf("%w: %v", manifest.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		cleanup()
		return "", fmt.Errorf("%w: status %d", manifest.ErrAuthRejected, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		cleanup()
		return "", fmt.Errorf("%w: archive not found", manifest.ErrNotFound)
	default:
		cleanup()
		return "", fmt.Errorf("%w: unexpected status %d", manifest.ErrNetworkUnavailable, resp.StatusCode)
	}

	total := resp.ContentLength
	hasher := sha256.New()
	writer := io.MultiWriter(tmpFile, hasher)

	done, err := copyWithProgress(writer, resp.Body, total, progress)
	if err != nil {
		cleanup()
		return "", fmt.Errorf("%w: %v", ErrDownloadIncomplete, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("artifact: close staging file: %w", err)
	}

	if total > 0 && done != total {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: got %d of %d bytes", ErrDownloadIncomplete, done, total)
	}

	if expectedSHA256 != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, expectedSHA256) {
			os.Remove(tmpPath)
			return "", fmt.Errorf("%w: sha256 mismatch, expected %s got %s", ErrArchiveCorrupt, expectedSHA256, actual)
		}
	}

	if err := ValidateArchive(tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	log.Debug("artifact downloaded", "path", tmpPath, "bytes", done)

	return tmpPath, nil
}

// ValidateArchive opens the archive and checks its structure. An unreadable
// or empty archive fails with ErrArchiveCorrupt.
func ValidateArchive(path string) error {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveCorrupt, err)
	}
	defer reader.Close()

	if len(reader.File) == 0 {
		return fmt.Errorf("%w: empty archive", ErrArchiveCorrupt)
	}

	return nil
}

// copyWithProgress copies src to dst reporting progress after each chunk.
func copyWithProgress(dst io.Writer, src io.Reader, total int64, progress ProgressFunc) (int64, error) {
	var done int64
	buf := make([]byte, 64*1024)

	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return done, werr
			}
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if err == io.EOF {
			return done, nil
		}
		if err != nil {
			return done, err
		}
	}
}
