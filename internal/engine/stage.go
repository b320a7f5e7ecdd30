package engine

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/confeitaria/updater/internal/artifact"
	"github.com/confeitaria/updater/internal/pathrule"
)

// extractArchive expands the downloaded archive into destDir, stripping the
// single top-level directory hosting services wrap around branch snapshots
// ("repo-branch/..."). The live installation is never written here.
func extractArchive(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", artifact.ErrArchiveCorrupt, err)
	}
	defer reader.Close()

	prefix := commonTopLevel(reader.File)

	for _, file := range reader.File {
		rel := strings.TrimPrefix(file.Name, prefix)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			continue
		}

		// Reject entries escaping the staging directory
		target := filepath.Join(destDir, filepath.FromSlash(rel))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: unsafe path %q", artifact.ErrArchiveCorrupt, file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return classifyIOError(err)
			}
			continue
		}

		if err := extractFile(file, target); err != nil {
			return err
		}
	}

	return nil
}

func extractFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return classifyIOError(err)
	}

	in, err := file.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", artifact.ErrArchiveCorrupt, file.Name, err)
	}
	defer in.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return classifyIOError(err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: extract %s: %v", artifact.ErrArchiveCorrupt, file.Name, err)
	}

	return out.Close()
}

// commonTopLevel returns "name/" when every entry lives under one top-level
// directory, empty otherwise.
func commonTopLevel(files []*zip.File) string {
	var top string
	for _, f := range files {
		name := strings.TrimPrefix(f.Name, "/")
		i := strings.IndexByte(name, '/')
		if i < 0 {
			return "" // A top-level file: nothing to strip
		}
		switch {
		case top == "":
			top = name[:i]
		case top != name[:i]:
			return ""
		}
	}
	if top == "" {
		return ""
	}
	return top + "/"
}

// validateStagedTree checks that the expanded archive looks like an
// application snapshot: at least one of the updatable roots must be present.
// A structurally valid archive of the wrong repository fails here instead of
// wiping the installation's code.
func validateStagedTree(stagingDir string, classifier *pathrule.Classifier) error {
	for _, root := range classifier.UpdatableRoots() {
		if _, err := os.Stat(filepath.Join(stagingDir, filepath.FromSlash(root))); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: archive carries none of the expected application paths", artifact.ErrArchiveCorrupt)
}
