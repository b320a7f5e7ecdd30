package artifact

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/confeitaria/updater/internal/manifest"
)

func makeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDownload(t *testing.T) {
	archive := makeZip(t, map[string]string{
		"confeitaria-main/core/models.py": "models",
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	var calls int
	var lastDone, lastTotal int64
	progress := func(done, total int64) {
		calls++
		lastDone, lastTotal = done, total
	}

	path, err := NewRetriever(nil).Download(context.Background(), server.URL, "", progress)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, archive) {
		t.Error("downloaded archive differs from served bytes")
	}
	if calls == 0 {
		t.Error("progress callback never invoked")
	}
	if lastDone != int64(len(archive)) || lastTotal != int64(len(archive)) {
		t.Errorf("final progress = %d/%d, want %d/%d", lastDone, lastTotal, len(archive), len(archive))
	}
}

func TestDownloadChecksum(t *testing.T) {
	archive := makeZip(t, map[string]string{"repo-main/version.json": `{"version":"1.0.0"}`})
	sum := sha256.Sum256(archive)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	r := NewRetriever(nil)

	path, err := r.Download(context.Background(), server.URL, hex.EncodeToString(sum[:]), nil)
	if err != nil {
		t.Fatalf("Download() with matching checksum error: %v", err)
	}
	os.Remove(path)

	_, err = r.Download(context.Background(), server.URL, "0000000000000000", nil)
	if !errors.Is(err, ErrArchiveCorrupt) {
		t.Errorf("Download() with bad checksum error = %v, want ErrArchiveCorrupt", err)
	}
}

func TestDownloadTruncated(t *testing.T) {
	archive := makeZip(t, map[string]string{"repo-main/a.txt": "content"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(archive)+1000))
		w.Write(archive)
	}))
	defer server.Close()

	_, err := NewRetriever(nil).Download(context.Background(), server.URL, "", nil)
	if !errors.Is(err, ErrDownloadIncomplete) {
		t.Errorf("Download() truncated error = %v, want ErrDownloadIncomplete", err)
	}
}

func TestDownloadNotAnArchive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>definitely not a zip</html>")
	}))
	defer server.Close()

	_, err := NewRetriever(nil).Download(context.Background(), server.URL, "", nil)
	if !errors.Is(err, ErrArchiveCorrupt) {
		t.Errorf("Download() non-zip error = %v, want ErrArchiveCorrupt", err)
	}
}

func TestDownloadAuthRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewRetriever(nil).Download(context.Background(), server.URL, "", nil)
	if !errors.Is(err, manifest.ErrAuthRejected) {
		t.Errorf("Download() 401 error = %v, want ErrAuthRejected", err)
	}
}

func TestDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer server.Close()

	_, err := NewRetriever(nil).Download(context.Background(), server.URL, "", nil)
	if !errors.Is(err, manifest.ErrNotFound) {
		t.Errorf("Download() 404 error = %v, want ErrNotFound", err)
	}
}

func TestValidateArchive(t *testing.T) {
	dir := t.TempDir()

	empty := dir + "/empty.zip"
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.Close()
	if err := os.WriteFile(empty, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateArchive(empty); !errors.Is(err, ErrArchiveCorrupt) {
		t.Errorf("ValidateArchive(empty) = %v, want ErrArchiveCorrupt", err)
	}

	garbage := dir + "/garbage.zip"
	if err := os.WriteFile(garbage, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateArchive(garbage); !errors.Is(err, ErrArchiveCorrupt) {
		t.Errorf("ValidateArchive(garbage) = %v, want ErrArchiveCorrupt", err)
	}
}
