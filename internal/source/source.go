// Package source reads the uncompressed files of a repository from a
// working directory or from a release zip.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bsdata-go/internal/repodata"
)

// Open returns a DirectorySource for a directory and an ArchiveSource for a
// .zip file. ignore adds to the built-in ignore patterns.
func Open(rawPath string, ignore []string) (repodata.Source, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	switch {
	case info.IsDir():
		return NewDirectorySource(absPath, ignore)
	case info.Mode().IsRegular() && strings.EqualFold(filepath.Ext(absPath), ".zip"):
		return NewArchiveSource(absPath, ignore), nil
	default:
		return nil, fmt.Errorf("unsupported source %s: want a directory or a .zip file", absPath)
	}
}
