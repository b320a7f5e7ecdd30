// Package pathrule decides, per install-root path, whether the update
// process may replace it or must leave it alone.
//
// The ruleset is closed-world: any path not covered by an updatable rule is
// protected. Unknown user data is preserved, never overwritten.
package pathrule

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Class is the classification of an install-root path.
type Class int

const (
	// Protected paths are never read from the artifact or written by the
	// update process. This is the default for unmatched paths.
	Protected Class = iota

	// Updatable paths are replaced by each update.
	Updatable
)

// String returns the rule-file spelling of the class.
func (c Class) String() string {
	if c == Updatable {
		return "updatable"
	}
	return "protected"
}

// Rule maps a root-relative path (file or directory) to a class. Directory
// rules apply recursively to all descendants unless a deeper rule overrides
// them.
type Rule struct {
	Path  string `yaml:"path"`
	Class string `yaml:"class"`
}

// Classifier resolves path classes by longest-prefix match over its rules.
type Classifier struct {
	rules map[string]Class
}

// New builds a classifier from rules. Later rules for the same path replace
// earlier ones, so overrides can be appended after the defaults.
func New(rules []Rule) (*Classifier, error) {
	c := &Classifier{rules: make(map[string]Class, len(rules))}
	for _, r := range rules {
		cls, err := parseClass(r.Class)
		if err != nil {
			return nil, fmt.Errorf("pathrule: rule %q: %w", r.Path, err)
		}
		key := normalize(r.Path)
		if key == "" || key == "." {
			return nil, fmt.Errorf("pathrule: rule path must not be empty")
		}
		c.rules[key] = cls
	}
	return c, nil
}

func parseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "updatable":
		return Updatable, nil
	case "protected":
		return Protected, nil
	default:
		return Protected, fmt.Errorf("unknown class %q", s)
	}
}

func normalize(p string) string {
	return strings.Trim(path.Clean(filepath.ToSlash(p)), "/")
}

// Classify resolves the class of a root-relative path. The deepest rule on
// the path's ancestor chain wins; with no matching rule the path is
// Protected.
func (c *Classifier) Classify(rel string) Class {
	p := normalize(rel)
	if p == "" || p == "." {
		return Protected
	}

	for {
		if cls, ok := c.rules[p]; ok {
			return cls
		}
		i := strings.LastIndexByte(p, '/')
		if i < 0 {
			return Protected
		}
		p = p[:i]
	}
}

// UpdatableRoots returns the rule paths classified updatable whose parents
// are not themselves updatable, sorted. These are the paths the applier
// replaces from the staged artifact.
func (c *Classifier) UpdatableRoots() []string {
	var roots []string
	for p, cls := range c.rules {
		if cls != Updatable {
			continue
		}
		if parent := parentOf(p); parent != "" && c.Classify(parent) == Updatable {
			continue
		}
		roots = append(roots, p)
	}
	sort.Strings(roots)
	return roots
}

func parentOf(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return ""
	}
	return p[:i]
}
