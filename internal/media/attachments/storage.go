// Package attachments provides filesystem storage for book file attachments.
package attachments

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Storage manages attachment filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage instance rooted at the given upload
// directory, creating it if necessary.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &Storage{
		basePath: basePath,
	}, nil
}

// GenerateName produces a unique stored filename for an upload,
// preserving the original file's extension. The original name itself is
// never used as a path component.
func GenerateName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return uuid.NewString() + ext
}

// Save stores attachment data under the given stored filename.
func (s *Storage) Save(filename string, data []byte) error {
	if err := validateFilename(filename); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("attachment data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write attachment file: %w", err)
	}
	return nil
}

// Get retrieves attachment data by stored filename.
func (s *Storage) Get(filename string) ([]byte, error) {
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("attachment not found: %s: %w", filename, err)
		}
		return nil, fmt.Errorf("failed to read attachment file: %w", err)
	}
	return data, nil
}

// Exists checks whether an attachment file is present on disk.
func (s *Storage) Exists(filename string) bool {
	if validateFilename(filename) != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(filename))
	return err == nil
}

// Delete removes an attachment file. A missing file is not an error;
// the attachment is already gone.
func (s *Storage) Delete(filename string) error {
	if err := validateFilename(filename); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(filename)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete attachment file: %w", err)
	}
	return nil
}

// Path returns the full filesystem path for a stored filename.
func (s *Storage) Path(filename string) string {
	return filepath.Join(s.basePath, filename)
}

// validateFilename rejects empty names and anything that could escape
// the uploads directory.
func validateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if filename != filepath.Base(filename) {
		return fmt.Errorf("invalid filename: %s", filename)
	}
	return nil
}
