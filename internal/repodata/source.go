package repodata

import "bsdata-go/internal/index"

// Source supplies the uncompressed files of one repository.
type Source interface {
	// Files returns every candidate file. Non-data files are allowed; the
	// builder skips them.
	Files() ([]index.File, error)

	// String describes the source for logs and run history.
	String() string
}
