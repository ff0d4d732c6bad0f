package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bsdata-go/internal/index"
	"bsdata-go/internal/repodata"
)

// DirectorySource reads a repository from a working directory. Files are
// named by their slash-separated path below the root.
type DirectorySource struct {
	root   string
	ignore *IgnoreMatcher
}

// NewDirectorySource creates a source rooted at root. Patterns from the
// root's .bsdataignore are added to ignore.
func NewDirectorySource(root string, ignore []string) (*DirectorySource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	filePatterns, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}

	return &DirectorySource{
		root:   root,
		ignore: newDefaultIgnoreMatcher(ignore, filePatterns),
	}, nil
}

// Files reads every regular file under the root that is not ignored.
// Symlinks and other special files are skipped.
func (s *DirectorySource) Files() ([]index.File, error) {
	var result []index.File

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == s.root {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		if s.ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", rel, err)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		result = append(result, index.File{
			Name:    filepath.ToSlash(rel),
			Data:    data,
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}
	return result, nil
}

func (s *DirectorySource) String() string {
	return s.root
}

// Compile-time check that DirectorySource implements repodata.Source interface
var _ repodata.Source = (*DirectorySource)(nil)
