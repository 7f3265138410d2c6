// Package editor persists the local strategies document.
package editor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/okian/dilemma/internal/sandbox"
)

const (
	tabWidth = 4
	filePerm = 0o644
)

// ErrEmptyPath is returned when no file path is configured.
var ErrEmptyPath = errors.New("editor source path is required")

// FileSource is the editor buffer backed by a file. A missing file is
// seeded with the default document on first read.
type FileSource struct {
	mu   sync.Mutex
	path string
	def  string
}

// NewFileSource creates a source backed by path.
func NewFileSource(path string) (*FileSource, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	return &FileSource{path: path, def: sandbox.DefaultSource()}, nil
}

// Path returns the backing file.
func (s *FileSource) Path() string {
	return s.path
}

// Current returns the document with tabs expanded.
func (s *FileSource) Current() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write(s.def); err != nil {
			return "", err
		}
		return Normalize(s.def), nil
	}
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return Normalize(string(b)), nil
}

// Set replaces the document.
func (s *FileSource) Set(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(Normalize(code))
}

// Reset restores the default document and returns it.
func (s *FileSource) Reset() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(s.def); err != nil {
		return "", err
	}
	return Normalize(s.def), nil
}

func (s *FileSource) write(code string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create source dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(code), filePerm); err != nil {
		return fmt.Errorf("write source: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace source: %w", err)
	}
	return nil
}

// Normalize expands tabs to four spaces.
func Normalize(code string) string {
	return strings.ReplaceAll(code, "\t", strings.Repeat(" ", tabWidth))
}
