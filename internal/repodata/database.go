package repodata

import (
	"time"

	"bsdata-go/internal/model"
)

// Database records the history of index runs.
type Database interface {
	// CreateIndexRun records the start of a run and returns it with its ID set.
	CreateIndexRun(runUID, repository, source string, startedAt time.Time) (*model.IndexRun, error)

	// FinishIndexRun records the outcome of a run.
	FinishIndexRun(id int64, status string, fileCount, failureCount int, message string, finishedAt time.Time) error

	// RecordPublishedFiles stores the files a run produced.
	RecordPublishedFiles(runID int64, files []model.PublishedFile) error

	// FindPublishedFiles returns the files of a run ordered by path.
	FindPublishedFiles(runID int64) ([]*model.PublishedFile, error)

	// ListIndexRuns returns the most recent runs, newest first.
	ListIndexRuns(limit int) ([]*model.IndexRun, error)

	// LatestIndexRun returns the newest successful run for a repository,
	// or nil if there is none.
	LatestIndexRun(repository string) (*model.IndexRun, error)

	// CheckMigrations verifies the schema is up to date.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
