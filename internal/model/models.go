package model

import (
	"database/sql"
	"time"
)

// Index run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// IndexRun records one build of a repository index.
type IndexRun struct {
	ID           int64
	RunUID       string // UUID
	Repository   string // Repository name
	Source       string // Directory or archive the files came from
	StartedAt    time.Time
	FinishedAt   sql.NullTime // Unset while running
	Status       string       // One of the RunStatus constants
	FileCount    int          // Files published, including the index
	FailureCount int          // Data files left out of the index
	Message      string       // Error text of a failed run
}

// PublishedFile is one compressed file produced by an index run.
type PublishedFile struct {
	RunID        int64
	FilePath     string // Compressed file name
	DataType     string // "gamesystem", "catalogue", "roster" or "index"
	DataID       string
	DataName     string
	DataVersion  string // battleScribeVersion after upgrade
	DataRevision int
	Size         int64  // Compressed size in bytes
	Checksum     string // BLAKE3 of the compressed bytes, hex encoded
}
