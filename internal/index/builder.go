package index

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"bsdata-go/internal/archive"
	"bsdata-go/internal/datafile"
	"bsdata-go/internal/upgrade"
)

// Logger receives per-file diagnostics from a Builder. The args follow slog
// conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Repository identifies the repository an index is built for.
type Repository struct {
	Name           string
	IndexURL       string
	RepositoryURLs []string
}

// File is one uncompressed input to a build. Name may carry a
// slash-separated path; the published file is named by its base name.
type File struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// FileFailure records an input that was left out of the index.
type FileFailure struct {
	Name string
	Err  error
}

// Result is the output of a build.
type Result struct {
	Index *DataIndex

	// Files maps each compressed file name, including the index itself,
	// to its compressed bytes.
	Files map[string][]byte

	// Skipped lists inputs of unrecognised or index kind.
	Skipped []string

	// Failures lists data files rejected as malformed or too old.
	Failures []FileFailure
}

// Builder turns a batch of uncompressed data files into a compressed,
// indexed file set. It has no side effects and is safe for concurrent use.
type Builder struct {
	upgrader *upgrade.Upgrader
	logger   Logger
}

// NewBuilder returns a Builder that upgrades files with upgrader. A nil
// logger discards diagnostics.
func NewBuilder(upgrader *upgrade.Upgrader, logger Logger) *Builder {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Builder{upgrader: upgrader, logger: logger}
}

// Build processes files in name order. Already-compressed inputs abort the
// whole build with datafile.ErrInvalidArgument. Files that are malformed or
// too old are left out and reported in Result.Failures. When two inputs map
// to the same compressed name the later one wins.
func (b *Builder) Build(repo Repository, files []File) (*Result, error) {
	if strings.TrimSpace(repo.Name) == "" {
		return nil, fmt.Errorf("%w: repository name is required", datafile.ErrInvalidArgument)
	}

	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(a, b File) int { return strings.Compare(a.Name, b.Name) })

	for _, f := range sorted {
		if datafile.IsCompressed(f.Name) {
			return nil, fmt.Errorf("%w: %s is already compressed", datafile.ErrInvalidArgument, f.Name)
		}
	}

	idx := NewDataIndex(repo.Name, repo.IndexURL, repo.RepositoryURLs)
	res := &Result{Index: idx, Files: make(map[string][]byte)}

	for _, f := range sorted {
		kind := datafile.KindOf(f.Name)
		if !kind.IsData() {
			b.logger.Debug("skipping file", "file", f.Name, "kind", kind.String())
			res.Skipped = append(res.Skipped, f.Name)
			continue
		}

		entry, compressed, err := b.processFile(kind, f)
		if err != nil {
			if errors.Is(err, datafile.ErrMalformedData) || errors.Is(err, datafile.ErrUnsupportedVersion) {
				b.logger.Warn("file left out of index", "file", f.Name, "error", err)
				res.Failures = append(res.Failures, FileFailure{Name: f.Name, Err: err})
				continue
			}
			return nil, fmt.Errorf("processing %s: %w", f.Name, err)
		}

		if _, ok := res.Files[entry.FilePath]; ok {
			b.logger.Warn("replacing earlier file", "file", f.Name, "published_as", entry.FilePath)
		}
		idx.Put(entry)
		res.Files[entry.FilePath] = compressed
	}

	data, err := Marshal(idx)
	if err != nil {
		return nil, err
	}
	compressedIndex, err := archive.Compress(datafile.IndexFileName, data)
	if err != nil {
		return nil, fmt.Errorf("compressing index: %w", err)
	}
	res.Files[datafile.CompressedIndexFileName] = compressedIndex
	return res, nil
}

func (b *Builder) processFile(kind datafile.Kind, f File) (Entry, []byte, error) {
	name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
	compressedName, err := datafile.CompressedName(name)
	if err != nil {
		return Entry{}, nil, err
	}

	upgraded, err := b.upgrader.Upgrade(kind, f.Data)
	if err != nil {
		return Entry{}, nil, err
	}
	if upgraded.Changed() {
		b.logger.Debug("upgraded file", "file", name, "from", upgraded.FromVersion, "to", upgraded.Version)
	}

	df, err := datafile.Extract(kind, upgraded.Data)
	if err != nil {
		return Entry{}, nil, err
	}

	compressed, err := archive.Compress(datafile.UncompressedName(compressedName), upgraded.Data)
	if err != nil {
		return Entry{}, nil, err
	}

	entry, err := NewEntry(compressedName, df, f.ModTime)
	if err != nil {
		return Entry{}, nil, err
	}
	return entry, compressed, nil
}
