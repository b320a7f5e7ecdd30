// Package token resolves the optional access credential used for
// authenticated requests against the hosting service.
package token

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// TokenFileName is the well-known credential file in the install root.
// Its presence is optional: a public repository needs no credential.
const TokenFileName = "github_token.txt"

// ErrNoToken is returned when no credential can be resolved from any source.
var ErrNoToken = errors.New("token: no credential found")

// Resolve finds the hosting-service token from multiple sources.
// Priority order:
//  1. CONFUP_TOKEN env var
//  2. extraEnvVars (e.g. GITHUB_TOKEN, GITLAB_TOKEN)
//  3. the github_token.txt file in the install root
//
// Returns ErrNoToken if no source yields a credential.
func Resolve(installRoot string, extraEnvVars ...string) (string, error) {
	if tok := os.Getenv("CONFUP_TOKEN"); tok != "" {
		return tok, nil
	}

	for _, envVar := range extraEnvVars {
		if tok := os.Getenv(envVar); tok != "" {
			return tok, nil
		}
	}

	if tok := readTokenFile(filepath.Join(installRoot, TokenFileName)); tok != "" {
		return tok, nil
	}

	return "", ErrNoToken
}

// readTokenFile reads and sanitizes a token file. Users paste tokens by hand,
// so stray whitespace anywhere in the value is stripped before use.
func readTokenFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	tok := strings.Join(strings.Fields(string(data)), "")
	if len(tok) < 10 {
		return ""
	}
	return tok
}
