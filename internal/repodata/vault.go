package repodata

import (
	"errors"
	"io"
)

// ErrFileNotFound is wrapped by Vault.GetFile when the file was never published.
var ErrFileNotFound = errors.New("file not found")

// Vault is a publication backend for compressed repository files.
// All operations use io.Reader/io.Writer for streaming.
type Vault interface {
	// PutFile stores a file under repository/name, replacing any previous
	// version. size is the number of bytes that will be read from r.
	PutFile(repository, name string, r io.Reader, size int64) error

	// GetFile retrieves repository/name and writes it to w.
	GetFile(repository, name string, w io.Writer) error

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
