package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bsdata-go/internal/repodata"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// It stores each repository as a directory that can be served statically:
//
//	<root>/
//	  <repository>/
//	    index.bsi
//	    <name>.gstz
//	    <name>.catz
type FileSystemVault struct {
	name string
	root string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault root: %w", err)
	}

	return &FileSystemVault{
		name: name,
		root: root,
	}, nil
}

// PutFile stores a file for a repository, replacing any previous version.
func (v *FileSystemVault) PutFile(repository, name string, r io.Reader, size int64) error {
	destPath, err := v.filePath(repository, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}
	return v.writeFile(destPath, r, size)
}

// GetFile retrieves a published file and writes it to w.
func (v *FileSystemVault) GetFile(repository, name string, w io.Writer) error {
	srcPath, err := v.filePath(repository, name)
	if err != nil {
		return err
	}
	return v.readFile(srcPath, w, repository+"/"+name)
}

// ValidateSetup verifies that the vault root is an accessible directory.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	// Probe writability with a throwaway temp file
	f, err := os.CreateTemp(v.root, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("vault root not writable: %w", err)
	}
	f.Close()
	os.Remove(f.Name())

	return nil
}

// filePath maps repository/name to a path under root. Both parts must be
// single path elements.
func (v *FileSystemVault) filePath(repository, name string) (string, error) {
	for _, part := range []string{repository, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("invalid vault path element: %q", part)
		}
	}
	return filepath.Join(v.root, repository, name), nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	// Static file servers need the published file to be world-readable
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// readFile reads from the specified path and writes to w.
func (v *FileSystemVault) readFile(srcPath string, w io.Writer, key string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", repodata.ErrFileNotFound, key)
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	return nil
}

// Compile-time check that FileSystemVault implements repodata.Vault interface
var _ repodata.Vault = (*FileSystemVault)(nil)
