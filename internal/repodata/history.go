package repodata

import (
	"fmt"

	"bsdata-go/internal/model"
)

// GetHistory returns the most recent index runs, ordered newest first.
func (s *Service) GetHistory(limit int) ([]*model.IndexRun, error) {
	runs, err := s.database.ListIndexRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing index runs: %w", err)
	}
	return runs, nil
}

// GetRunFiles returns the files a run published, ordered by path.
func (s *Service) GetRunFiles(runID int64) ([]*model.PublishedFile, error) {
	files, err := s.database.FindPublishedFiles(runID)
	if err != nil {
		return nil, fmt.Errorf("finding files of run %d: %w", runID, err)
	}
	return files, nil
}

// LatestRun returns the newest successful run of repository, or nil.
func (s *Service) LatestRun(repository string) (*model.IndexRun, error) {
	run, err := s.database.LatestIndexRun(repository)
	if err != nil {
		return nil, fmt.Errorf("finding latest run of %s: %w", repository, err)
	}
	return run, nil
}
