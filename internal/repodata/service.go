package repodata

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"bsdata-go/internal/datafile"
	"bsdata-go/internal/index"
	"bsdata-go/internal/model"
)

// Options configures the repository a Service serves.
type Options struct {
	// BaseURL is the public root the repository is served from. The index
	// URL is derived from it.
	BaseURL string

	// RepositoryURLs are advertised in every index.
	RepositoryURLs []string
}

// Service coordinates building, caching, publishing and recording
// repository indexes for the CLI.
type Service struct {
	builder  *index.Builder
	cache    *Cache
	vault    Vault
	database Database
	logger   Logger
	clock    Clock
	idgen    IDGenerator
	opts     Options
}

// NewService creates a Service with the provided dependencies. vault may be
// nil when nothing is published.
func NewService(builder *index.Builder, cache *Cache, vault Vault, database Database, logger Logger, clock Clock, idgen IDGenerator, opts Options) *Service {
	return &Service{
		builder:  builder,
		cache:    cache,
		vault:    vault,
		database: database,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		opts:     opts,
	}
}

// Build returns the snapshot of repository name, building it from src when
// the cache holds no fresh copy.
func (s *Service) Build(ctx context.Context, name string, src Source) (*Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: repository name is required", datafile.ErrInvalidArgument)
	}
	return s.cache.Get(ctx, name, func() (*Snapshot, error) {
		return s.buildSnapshot(name, src)
	})
}

// Refresh discards any cached snapshot of name and builds it again.
func (s *Service) Refresh(ctx context.Context, name string, src Source) (*Snapshot, error) {
	s.cache.Invalidate(strings.TrimSpace(name))
	return s.Build(ctx, name, src)
}

// Cached returns the snapshot of name if one has been built, fresh or not.
func (s *Service) Cached(name string) (*Snapshot, bool) {
	return s.cache.Peek(name)
}

func (s *Service) buildSnapshot(name string, src Source) (*Snapshot, error) {
	startedAt := s.clock.Now()
	run, err := s.database.CreateIndexRun(s.idgen.New(), name, src.String(), startedAt)
	if err != nil {
		return nil, fmt.Errorf("recording index run: %w", err)
	}
	s.logger.Info("index run started", "repository", name, "source", src.String(), "run", run.RunUID)

	snap, err := s.runBuild(run, name, src)
	if err != nil {
		if ferr := s.database.FinishIndexRun(run.ID, model.RunStatusFailed, 0, 0, err.Error(), s.clock.Now()); ferr != nil {
			s.logger.Error("failed to record run failure", "run", run.RunUID, "error", ferr)
		}
		s.logger.Error("index run failed", "repository", name, "run", run.RunUID, "error", err)
		return nil, err
	}

	if err := s.database.FinishIndexRun(run.ID, model.RunStatusSucceeded, len(snap.Files), len(snap.Failures), "", s.clock.Now()); err != nil {
		return nil, fmt.Errorf("finishing index run: %w", err)
	}
	s.logger.Info("index run finished", "repository", name, "run", run.RunUID,
		"files", len(snap.Files), "failures", len(snap.Failures))
	return snap, nil
}

func (s *Service) runBuild(run *model.IndexRun, name string, src Source) (*Snapshot, error) {
	files, err := src.Files()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.String(), err)
	}

	repo := index.Repository{
		Name:           name,
		IndexURL:       index.URLFor(s.opts.BaseURL, name),
		RepositoryURLs: s.opts.RepositoryURLs,
	}
	res, err := s.builder.Build(repo, files)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	snap := &Snapshot{
		Repository: name,
		Source:     src.String(),
		Index:      res.Index,
		Files:      res.Files,
		Checksums:  make(map[string]string, len(res.Files)),
		Failures:   res.Failures,
		BuiltAt:    s.clock.Now(),
		RunID:      run.ID,
	}

	published := make([]model.PublishedFile, 0, len(res.Files))
	for _, filePath := range sortedKeys(res.Files) {
		data := res.Files[filePath]
		sum := Checksum(data)
		snap.Checksums[filePath] = sum

		pf := model.PublishedFile{
			RunID:    run.ID,
			FilePath: filePath,
			DataType: datafile.KindIndex.String(),
			Size:     int64(len(data)),
			Checksum: sum,
		}
		if e, ok := res.Index.Lookup(filePath); ok {
			pf.DataType = string(e.DataType)
			pf.DataID = e.DataID
			pf.DataName = e.DataName
			pf.DataVersion = e.DataBattleScribeVersion
			pf.DataRevision = e.DataRevision
		}
		published = append(published, pf)
	}
	if err := s.database.RecordPublishedFiles(run.ID, published); err != nil {
		return nil, fmt.Errorf("recording published files: %w", err)
	}
	return snap, nil
}

// Publish writes every file of snap to the configured vault under the
// repository name. It returns the number of files written.
func (s *Service) Publish(snap *Snapshot) (int, error) {
	if s.vault == nil {
		return 0, fmt.Errorf("no vault configured")
	}
	return s.PublishTo(s.vault, snap)
}

// PublishTo writes every file of snap to v, index last, so a reader never
// sees an index that names files not yet written.
func (s *Service) PublishTo(v Vault, snap *Snapshot) (int, error) {
	names := sortedKeys(snap.Files)
	if i := slices.Index(names, datafile.CompressedIndexFileName); i >= 0 {
		names = append(slices.Delete(names, i, i+1), datafile.CompressedIndexFileName)
	}

	count := 0
	for _, name := range names {
		data := snap.Files[name]
		if err := v.PutFile(snap.Repository, name, bytes.NewReader(data), int64(len(data))); err != nil {
			return count, fmt.Errorf("publishing %s/%s: %w", snap.Repository, name, err)
		}
		s.logger.Debug("file published", "repository", snap.Repository, "file", name, "size", len(data))
		count++
	}
	s.logger.Info("repository published", "repository", snap.Repository, "files", count)
	return count, nil
}

// GetFile returns a compressed file of repository, preferring the cached
// snapshot and falling back to the vault.
func (s *Service) GetFile(repository, name string) ([]byte, error) {
	if snap, ok := s.cache.Peek(repository); ok {
		if data, ok := snap.File(name); ok {
			return data, nil
		}
	}
	if s.vault == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrFileNotFound, repository, name)
	}

	key := name
	if compressed, err := datafile.CompressedName(name); err == nil {
		key = compressed
	}
	var buf bytes.Buffer
	if err := s.vault.GetFile(repository, key, &buf); err != nil {
		return nil, fmt.Errorf("fetching %s/%s: %w", repository, key, err)
	}
	return buf.Bytes(), nil
}

// GetIndex returns the index of repository from the cache or the vault.
func (s *Service) GetIndex(repository string) (*index.DataIndex, error) {
	if snap, ok := s.cache.Peek(repository); ok {
		return snap.Index, nil
	}
	data, err := s.GetFile(repository, datafile.CompressedIndexFileName)
	if err != nil {
		return nil, err
	}
	return index.ReadCompressedIndex(data)
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
