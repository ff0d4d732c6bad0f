package source

import (
	"fmt"
	"os"
	"path"

	"bsdata-go/internal/archive"
	"bsdata-go/internal/index"
	"bsdata-go/internal/repodata"
)

// ArchiveSource reads a repository from a zip file such as a release
// download. Files are named by their entry path.
type ArchiveSource struct {
	path   string
	ignore *IgnoreMatcher
}

// NewArchiveSource creates a source for the zip file at zipPath.
func NewArchiveSource(zipPath string, ignore []string) *ArchiveSource {
	return &ArchiveSource{
		path:   zipPath,
		ignore: newDefaultIgnoreMatcher(ignore),
	}
}

// Files unpacks every entry of the archive that is not ignored.
func (s *ArchiveSource) Files() ([]index.File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	entries, err := archive.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", s.path, err)
	}

	var result []index.File
	for _, e := range entries {
		if s.ignoredEntry(e.Name) {
			continue
		}
		result = append(result, index.File{
			Name:    e.Name,
			Data:    e.Data,
			ModTime: e.Modified,
		})
	}
	return result, nil
}

// ignoredEntry checks the entry and each of its parent directories.
func (s *ArchiveSource) ignoredEntry(name string) bool {
	for p := name; p != "." && p != "/" && p != ""; p = path.Dir(p) {
		if s.ignore.Match(p) {
			return true
		}
	}
	return false
}

func (s *ArchiveSource) String() string {
	return s.path
}

// Compile-time check that ArchiveSource implements repodata.Source interface
var _ repodata.Source = (*ArchiveSource)(nil)
