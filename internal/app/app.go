package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bsdata-go/internal/config"
	"bsdata-go/internal/database"
	"bsdata-go/internal/index"
	"bsdata-go/internal/model"
	"bsdata-go/internal/repodata"
	"bsdata-go/internal/source"
	"bsdata-go/internal/upgrade"
	"bsdata-go/internal/vault"
)

// BSDataApp is the application layer between the CLI and the repodata
// Service. It constructs all dependencies from config, exposes high-level
// operations that accept raw string paths, and releases resources on Close.
type BSDataApp struct {
	cfg     *config.Config
	db      repodata.Database
	vault   repodata.Vault
	service *repodata.Service
	logger  *slogAdapter
	op      *Operation
	logFile *os.File
}

// Options adjusts a BSDataApp beyond what the config file holds.
type Options struct {
	// Verbose enables debug logging.
	Verbose bool
	// BaseURL and RepositoryURLs override the [repository] config section
	// when set.
	BaseURL        string
	RepositoryURLs []string
}

// NewBSDataApp creates a fully wired BSDataApp from the given config.
// operation identifies the CLI command being run (e.g. "Build", "History").
// The caller must call Close when done.
func NewBSDataApp(ctx context.Context, cfg *config.Config, operation, parameters string, opts Options) (*BSDataApp, error) {
	var v repodata.Vault
	if len(cfg.Vaults) > 0 {
		var err error
		v, err = vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	ttl, err := cfg.Cache.Duration(repodata.DefaultCacheTTL)
	if err != nil {
		return nil, err
	}

	u, err := upgrade.NewDefault()
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	clock := repodata.RealClock{}
	op := NewOperation(operationID(clock.Now()), operation, parameters, clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, opts.Verbose)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	svcOpts := repodata.Options{
		BaseURL:        cfg.Repository.BaseURL,
		RepositoryURLs: cfg.Repository.RepositoryURLs,
	}
	if opts.BaseURL != "" {
		svcOpts.BaseURL = opts.BaseURL
	}
	if len(opts.RepositoryURLs) > 0 {
		svcOpts.RepositoryURLs = opts.RepositoryURLs
	}

	svc := repodata.NewService(
		index.NewBuilder(u, adapter),
		repodata.NewCache(ttl, clock),
		v,
		db,
		adapter,
		clock,
		repodata.UUIDGenerator{},
		svcOpts,
	)

	adapter.Debug("operation started", "operation", operation, "parameters", parameters)
	return &BSDataApp{
		cfg:     cfg,
		db:      db,
		vault:   v,
		service: svc,
		logger:  adapter,
		op:      op,
		logFile: logFile,
	}, nil
}

// RepositoryName picks the repository name for a build: the explicit name,
// then the configured one, then the source's base name without extension.
func (a *BSDataApp) RepositoryName(explicit, rawPath string) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	if name := strings.TrimSpace(a.cfg.Repository.Name); name != "" {
		return name
	}
	base := filepath.Base(filepath.Clean(rawPath))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Build reads the directory or release zip at rawPath and builds the
// compressed repository named name.
func (a *BSDataApp) Build(ctx context.Context, rawPath, name string) (*repodata.Snapshot, error) {
	src, err := source.Open(rawPath, a.cfg.Filesystem.Ignore)
	if err != nil {
		a.op.Fail(err)
		return nil, err
	}
	snap, err := a.service.Build(ctx, a.RepositoryName(name, rawPath), src)
	a.op.Fail(err)
	return snap, err
}

// Publish writes snap to the configured vault after checking it is reachable.
func (a *BSDataApp) Publish(snap *repodata.Snapshot) (int, error) {
	if a.vault == nil {
		err := fmt.Errorf("no vaults configured")
		a.op.Fail(err)
		return 0, err
	}
	if err := a.vault.ValidateSetup(); err != nil {
		a.op.Fail(err)
		return 0, fmt.Errorf("vault not ready: %w", err)
	}
	n, err := a.service.Publish(snap)
	a.op.Fail(err)
	return n, err
}

// Export writes snap to outDir/<repository>/ as a statically servable tree.
func (a *BSDataApp) Export(snap *repodata.Snapshot, outDir string) (int, error) {
	v, err := vault.NewFileSystemVault("export", outDir)
	if err != nil {
		a.op.Fail(err)
		return 0, err
	}
	n, err := a.service.PublishTo(v, snap)
	a.op.Fail(err)
	return n, err
}

// PublishedIndex reads the index of repository back from the configured vault.
func (a *BSDataApp) PublishedIndex(repository string) (*index.DataIndex, error) {
	if a.vault == nil {
		return nil, fmt.Errorf("no vaults configured")
	}
	idx, err := a.service.GetIndex(repository)
	a.op.Fail(err)
	return idx, err
}

// PublishedFile reads one compressed file of repository from the configured
// vault. Uncompressed names are mapped to their published form.
func (a *BSDataApp) PublishedFile(repository, name string) ([]byte, error) {
	if a.vault == nil {
		return nil, fmt.Errorf("no vaults configured")
	}
	data, err := a.service.GetFile(repository, name)
	a.op.Fail(err)
	return data, err
}

// LatestRun returns the newest successful run of repository, or nil.
func (a *BSDataApp) LatestRun(repository string) (*model.IndexRun, error) {
	return a.service.LatestRun(repository)
}

// GetHistory returns the most recent index runs.
func (a *BSDataApp) GetHistory(limit int) ([]*model.IndexRun, error) {
	return a.service.GetHistory(limit)
}

// GetRunFiles returns the files published by a run.
func (a *BSDataApp) GetRunFiles(runID int64) ([]*model.PublishedFile, error) {
	return a.service.GetRunFiles(runID)
}

// Close logs the outcome of the operation and closes all resources.
func (a *BSDataApp) Close() error {
	var firstErr error

	a.logger.Debug("operation finished", "operation", a.op.Name, "status", a.op.Status,
		"duration", time.Since(a.op.StartedAt).Truncate(time.Millisecond))

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
