package manifest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitLabSource fetches the descriptor from a GitLab project, for
// installations whose release repository is mirrored on gitlab.com or a
// self-hosted instance.
type GitLabSource struct {
	gl      *gitlab.Client
	token   string
	project string
	branch  string
	path    string
}

// NewGitLabSource creates a GitLab descriptor source. host may be empty for
// gitlab.com; project is the "group/project" path.
func NewGitLabSource(token, host, project, branch, path string) (*GitLabSource, error) {
	var options []gitlab.ClientOptionFunc
	if host != "" && host != "gitlab.com" && host != "https://gitlab.com" {
		baseURL := strings.TrimSuffix(host, "/") + "/api/v4"
		options = append(options, gitlab.WithBaseURL(baseURL))
	}

	client, err := gitlab.NewClient(token, options...)
	if err != nil {
		return nil, fmt.Errorf("manifest: create gitlab client: %w", err)
	}

	return &GitLabSource{
		gl:      client,
		token:   token,
		project: project,
		branch:  branch,
		path:    path,
	}, nil
}

// Fetch retrieves the descriptor file from the configured branch.
func (s *GitLabSource) Fetch(ctx context.Context) (*ReleaseManifest, error) {
	opts := &gitlab.GetRawFileOptions{Ref: gitlab.Ptr(s.branch)}
	data, _, err := s.gl.RepositoryFiles.GetRawFile(s.project, s.path, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, wrapGitLabError(err)
	}

	return Decode(data)
}

// ArchiveURL builds the repository archive endpoint for the branch.
func (s *GitLabSource) ArchiveURL(ctx context.Context) (string, error) {
	base := s.gl.BaseURL()
	archive := fmt.Sprintf("%sprojects/%s/repository/archive.zip?sha=%s",
		base.String(), url.PathEscape(s.project), url.QueryEscape(s.branch))
	return archive, nil
}

// HTTPClient returns a client that attaches the private token to archive
// downloads.
func (s *GitLabSource) HTTPClient() *http.Client {
	if s.token == "" {
		return http.DefaultClient
	}
	return &http.Client{Transport: &privateTokenTransport{token: s.token}}
}

// privateTokenTransport adds the PRIVATE-TOKEN header GitLab expects on
// non-API archive requests.
type privateTokenTransport struct {
	token string
}

func (t *privateTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("PRIVATE-TOKEN", t.token)
	return http.DefaultTransport.RoundTrip(clone)
}

// wrapGitLabError converts GitLab API errors into the package taxonomy.
func wrapGitLabError(err error) error {
	if err == nil {
		return nil
	}

	var glErr *gitlab.ErrorResponse
	if errors.As(err, &glErr) && glErr.Response != nil {
		switch glErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAuthRejected, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timeout", ErrNetworkUnavailable)
	}

	return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
}
