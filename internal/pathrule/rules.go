package pathrule

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesFileName is the optional ruleset override in the install root.
const RulesFileName = "update-rules.yaml"

// DefaultRules is the built-in classification of the Confeitaria tree.
// Adding a protected path is a one-line change here (or in the override
// file), not a logic change.
var DefaultRules = []Rule{
	// Application code and assets, replaced by every update
	{Path: "Confeitaria.py", Class: "updatable"},
	{Path: "core", Class: "updatable"},
	{Path: "ui", Class: "updatable"},
	{Path: "src", Class: "updatable"},
	{Path: "web", Class: "updatable"},
	{Path: "assets", Class: "updatable"},
	{Path: "version.json", Class: "updatable"},

	// User-owned state. Redundant with the protected default, listed so the
	// backup phase snapshots them and so intent is visible in one table.
	{Path: "confeitaria.db", Class: "protected"},
	{Path: "confeitaria.db-wal", Class: "protected"},
	{Path: "confeitaria.db-shm", Class: "protected"},
	{Path: "config.json", Class: "protected"},
	{Path: "github_token.txt", Class: "protected"},
	{Path: "logs", Class: "protected"},
	{Path: "backups", Class: "protected"},
}

// rulesFile is the YAML shape of the override file.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules builds the default classifier merged with the optional
// update-rules.yaml override at rulesPath. A missing override file is not an
// error.
func LoadRules(rulesPath string) (*Classifier, error) {
	rules := make([]Rule, len(DefaultRules))
	copy(rules, DefaultRules)

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return New(rules)
		}
		return nil, fmt.Errorf("pathrule: read %s: %w", rulesPath, err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("pathrule: parse %s: %w", rulesPath, err)
	}

	return New(append(rules, f.Rules...))
}

// Default returns the built-in classifier without overrides.
func Default() *Classifier {
	c, err := New(DefaultRules)
	if err != nil {
		panic(err) // DefaultRules is static and always valid
	}
	return c
}
