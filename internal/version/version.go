// Package version parses and orders the release versions used by the
// update descriptor, in strict major.minor.patch form.
package version

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrMalformed is returned when a version string is not three dot-separated
// non-negative integers.
var ErrMalformed = errors.New("version: malformed version string")

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Version is an ordered major.minor.patch triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse parses a version string like "1.12.45". A leading "v" is tolerated,
// anything else fails with ErrMalformed.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	matches := versionRegex.FindStringSubmatch(trimmed)
	if matches == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	major, err := strconv.Atoi(matches[1])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	minor, err := strconv.Atoi(matches[2])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	patch, err := strconv.Atoi(matches[3])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// MustParse is Parse that panics on error. Intended for literals in tests
// and embedded defaults.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version as "X.Y.Z".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsZero reports whether v is the zero version "0.0.0".
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0
}

// canonical returns the semver-canonical form ("vX.Y.Z") used for ordering.
func (v Version) canonical() string {
	return "v" + v.String()
}

// Compare returns -1, 0 or +1 when v is ordered before, equal to, or after
// other. Ordering is numeric per component, left to right.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.canonical(), other.canonical())
}

// UpdateAvailable reports whether remote is strictly newer than local.
func UpdateAvailable(local, remote Version) bool {
	return remote.Compare(local) > 0
}

// Compatible reports whether local satisfies the manifest's minimum
// compatible version, i.e. an in-place update is permitted. A local version
// below the minimum requires a fresh install instead.
func Compatible(local, minimum Version) bool {
	return local.Compare(minimum) >= 0
}
