package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestVersionCommand(t *testing.T) {
	origVersion := Version
	origCommit := Commit
	origBuildTime := BuildTime
	defer func() {
		Version = origVersion
		Commit = origCommit
		BuildTime = origBuildTime
	}()

	Version = "1.2.3"
	Commit = "abc123"
	BuildTime = "2026-01-15T10:30:00Z"

	stdout := &bytes.Buffer{}
	root := &cobra.Command{
		Use:   "confup",
		Short: "Test command",
	}
	root.SetOut(stdout)
	root.AddCommand(versionCmd)

	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{
		"confup 1.2.3",
		"Commit: abc123",
		"Built:  2026-01-15T10:30:00Z",
		"Go:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\nGot:\n%s", want, output)
		}
	}
}
