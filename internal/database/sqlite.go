package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bsdata-go/internal/database/migrations"
	"bsdata-go/internal/model"
	"bsdata-go/internal/repodata"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the repodata.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the database at path and brings its schema up to
// date. path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the schema is in place.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// The pool is limited to one connection: SQLite allows a single writer, and
// an in-memory database exists only on the connection that created it.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Index runs

func (s *SQLiteDatabase) CreateIndexRun(runUID, repository, source string, startedAt time.Time) (*model.IndexRun, error) {
	res, err := s.db.ExecContext(context.Background(),
		`INSERT INTO index_runs (run_uid, repository, source, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		runUID, repository, source, startedAt.UTC(), model.RunStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("creating index run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading index run id: %w", err)
	}
	return &model.IndexRun{
		ID:         id,
		RunUID:     runUID,
		Repository: repository,
		Source:     source,
		StartedAt:  startedAt.UTC(),
		Status:     model.RunStatusRunning,
	}, nil
}

func (s *SQLiteDatabase) FinishIndexRun(id int64, status string, fileCount, failureCount int, message string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(context.Background(),
		`UPDATE index_runs SET status = ?, file_count = ?, failure_count = ?, message = ?, finished_at = ? WHERE id = ?`,
		status, fileCount, failureCount, message, finishedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("finishing index run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing index run: run %d not found", id)
	}
	return nil
}

const runColumns = `id, run_uid, repository, source, started_at, finished_at, status, file_count, failure_count, message`

func scanRun(row interface{ Scan(...any) error }) (*model.IndexRun, error) {
	var run model.IndexRun
	err := row.Scan(&run.ID, &run.RunUID, &run.Repository, &run.Source, &run.StartedAt,
		&run.FinishedAt, &run.Status, &run.FileCount, &run.FailureCount, &run.Message)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *SQLiteDatabase) ListIndexRuns(limit int) ([]*model.IndexRun, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT `+runColumns+` FROM index_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing index runs: %w", err)
	}
	defer rows.Close()

	runs := []*model.IndexRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning index run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing index runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteDatabase) LatestIndexRun(repository string) (*model.IndexRun, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+runColumns+` FROM index_runs WHERE repository = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		repository, model.RunStatusSucceeded)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding latest index run: %w", err)
	}
	return run, nil
}

// Published files

func (s *SQLiteDatabase) RecordPublishedFiles(runID int64, files []model.PublishedFile) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO published_files
		(run_id, file_path, data_type, data_id, data_name, data_version, data_revision, size, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, runID, f.FilePath, f.DataType, f.DataID, f.DataName,
			f.DataVersion, f.DataRevision, f.Size, f.Checksum); err != nil {
			return fmt.Errorf("recording %s: %w", f.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing published files: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindPublishedFiles(runID int64) ([]*model.PublishedFile, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT run_id, file_path, data_type, data_id, data_name, data_version, data_revision, size, checksum
		FROM published_files WHERE run_id = ? ORDER BY file_path`, runID)
	if err != nil {
		return nil, fmt.Errorf("finding published files: %w", err)
	}
	defer rows.Close()

	files := []*model.PublishedFile{}
	for rows.Next() {
		var f model.PublishedFile
		if err := rows.Scan(&f.RunID, &f.FilePath, &f.DataType, &f.DataID, &f.DataName,
			&f.DataVersion, &f.DataRevision, &f.Size, &f.Checksum); err != nil {
			return nil, fmt.Errorf("scanning published file: %w", err)
		}
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding published files: %w", err)
	}
	return files, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements repodata.Database interface
var _ repodata.Database = (*SQLiteDatabase)(nil)
