package manifest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"
)

// GitHubSource fetches the descriptor through the GitHub Contents API.
// The API path is preferred over raw.githubusercontent.com because API
// responses are not served from a CDN cache, so a freshly pushed descriptor
// is visible immediately.
type GitHubSource struct {
	gh         *github.Client
	httpClient *http.Client
	owner      string
	repo       string
	branch     string
	path       string
}

// NewGitHubSource creates a GitHub descriptor source. An empty token means
// unauthenticated requests (the public-repository path).
func NewGitHubSource(token, owner, repo, branch, path string) *GitHubSource {
	httpClient := http.DefaultClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &GitHubSource{
		gh:         github.NewClient(httpClient),
		httpClient: httpClient,
		owner:      owner,
		repo:       repo,
		branch:     branch,
		path:       path,
	}
}

// WithBaseURL points the source at a different API endpoint. Used by tests.
func (s *GitHubSource) WithBaseURL(baseURL string) *GitHubSource {
	client, err := s.gh.WithEnterpriseURLs(baseURL, baseURL)
	if err == nil {
		s.gh = client
	}
	return s
}

// Fetch retrieves version.json from the configured branch.
func (s *GitHubSource) Fetch(ctx context.Context) (*ReleaseManifest, error) {
	opts := &github.RepositoryContentGetOptions{Ref: s.branch}
	content, _, _, err := s.gh.Repositories.GetContents(ctx, s.owner, s.repo, s.path, opts)
	if err != nil {
		return nil, wrapGitHubError(err)
	}
	if content == nil {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, s.path)
	}

	decoded, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("%w: decode content: %v", ErrCorrupt, err)
	}

	return Decode([]byte(decoded))
}

// ArchiveURL resolves the zipball link for the branch. GitHub answers with a
// short-lived redirect target that already embeds authorization.
func (s *GitHubSource) ArchiveURL(ctx context.Context) (string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: s.branch}
	url, _, err := s.gh.Repositories.GetArchiveLink(ctx, s.owner, s.repo, github.Zipball, opts, 3)
	if err != nil {
		return "", wrapGitHubError(err)
	}
	return url.String(), nil
}

// HTTPClient returns the token-carrying client for artifact downloads.
func (s *GitHubSource) HTTPClient() *http.Client {
	return s.httpClient
}

// Reachable probes repository metadata. Used by the status command to tell a
// missing credential from a rejected one.
func (s *GitHubSource) Reachable(ctx context.Context) error {
	_, _, err := s.gh.Repositories.Get(ctx, s.owner, s.repo)
	return wrapGitHubError(err)
}

// wrapGitHubError converts GitHub API errors into the package taxonomy.
func wrapGitHubError(err error) error {
	if err == nil {
		return nil
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrAuthRejected, err)
		case http.StatusForbidden:
			if strings.Contains(ghErr.Message, "rate limit") {
				return fmt.Errorf("%w: rate limited: %v", ErrNetworkUnavailable, err)
			}
			return fmt.Errorf("%w: %v", ErrAuthRejected, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: rate limited until %s", ErrNetworkUnavailable, rateErr.Rate.Reset)
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
