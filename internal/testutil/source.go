package testutil

import (
	"slices"
	"strings"
	"sync"
	"time"

	"bsdata-go/internal/index"
)

// MemorySource is an in-memory repository source for testing.
// Safe for concurrent use.
type MemorySource struct {
	mu      sync.Mutex
	name    string
	files   map[string]index.File
	modTime time.Time
	err     error
	reads   int
}

// NewMemorySource creates an empty source described by name.
func NewMemorySource(name string) *MemorySource {
	return &MemorySource{
		name:    name,
		files:   make(map[string]index.File),
		modTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddFile adds or replaces a file.
func (s *MemorySource) AddFile(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = index.File{Name: name, Data: content, ModTime: s.modTime}
}

// SetError makes every subsequent Files call fail with err.
func (s *MemorySource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Reads returns how many times Files has been called.
func (s *MemorySource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Files returns the files sorted by name.
func (s *MemorySource) Files() ([]index.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	files := make([]index.File, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, f)
	}
	slices.SortFunc(files, func(a, b index.File) int {
		return strings.Compare(a.Name, b.Name)
	})
	return files, nil
}

func (s *MemorySource) String() string {
	return "memory:" + s.name
}
