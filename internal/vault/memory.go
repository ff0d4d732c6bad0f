package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"bsdata-go/internal/repodata"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It is useful for testing and for serving builds that are never persisted.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name  string
	files map[string][]byte // "repository/name" -> content
	mu    sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:  name,
		files: make(map[string][]byte),
	}
}

// fileKey returns the map key for a repository/name pair.
func fileKey(repository, name string) string {
	return repository + "/" + name
}

// PutFile stores a file for a repository, replacing any previous version.
func (m *MemoryVault) PutFile(repository, name string, r io.Reader, size int64) error {
	if repository == "" || name == "" {
		return fmt.Errorf("repository and name are required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[fileKey(repository, name)] = data
	return nil
}

// GetFile retrieves a published file and writes it to w.
func (m *MemoryVault) GetFile(repository, name string, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.files[fileKey(repository, name)]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s/%s", repodata.ErrFileNotFound, repository, name)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryVault implements repodata.Vault interface
var _ repodata.Vault = (*MemoryVault)(nil)
