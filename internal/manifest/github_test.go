package manifest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/confeitaria/updater/internal/version"
)

// newTestSource points a GitHubSource at a fake API server. The enterprise
// client prefixes paths with /api/v3, so handlers match on suffix.
func newTestSource(t *testing.T, handler http.HandlerFunc) *GitHubSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGitHubSource("", "acme", "confeitaria", "main", "version.json").
		WithBaseURL(server.URL)
}

func contentsResponse(body string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	return fmt.Sprintf(`{
		"type": "file",
		"encoding": "base64",
		"name": "version.json",
		"path": "version.json",
		"content": %q
	}`, encoded)
}

func TestGitHubFetch(t *testing.T) {
	descriptor := `{"version": "1.12.1", "changelog": ["melhorias"], "min_compatible_version": "1.0.0"}`

	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/repos/acme/confeitaria/contents/version.json") {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("ref"); got != "main" {
			t.Errorf("ref = %q, want main", got)
		}
		fmt.Fprint(w, contentsResponse(descriptor))
	})

	m, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if m.Version != version.MustParse("1.12.1") {
		t.Errorf("Version = %v", m.Version)
	}
	if len(m.Changelog) != 1 {
		t.Errorf("Changelog = %v", m.Changelog)
	}
}

func TestGitHubFetchNotFound(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	_, err := src.Fetch(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestGitHubFetchAuthRejected(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	})

	_, err := src.Fetch(context.Background())
	if !errors.Is(err, ErrAuthRejected) {
		t.Errorf("Fetch() error = %v, want ErrAuthRejected", err)
	}
}

func TestGitHubFetchCorruptDescriptor(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, contentsResponse(`{"changelog": ["sem versao"]}`))
	})

	_, err := src.Fetch(context.Background())
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Fetch() error = %v, want ErrCorrupt", err)
	}
}

func TestGitHubReachable(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/repos/acme/confeitaria") {
			fmt.Fprint(w, `{"id": 1, "name": "confeitaria"}`)
			return
		}
		http.NotFound(w, r)
	})

	if err := src.Reachable(context.Background()); err != nil {
		t.Errorf("Reachable() error: %v", err)
	}
}

func TestGitHubReachableForbidden(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "insufficient scope"}`)
	})

	err := src.Reachable(context.Background())
	if !errors.Is(err, ErrAuthRejected) {
		t.Errorf("Reachable() error = %v, want ErrAuthRejected", err)
	}
}
