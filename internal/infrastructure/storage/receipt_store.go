// Package storage keeps uploaded receipt files on the local filesystem,
// one folder per claimant.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// ReceiptStore saves receipt files under baseDir/{userID}/
type ReceiptStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewReceiptStore creates a new ReceiptStore
func NewReceiptStore(baseDir string, logger *zap.Logger) *ReceiptStore {
	return &ReceiptStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes the receipt content into the claimant's folder and
// returns the stored path. The stored name is prefixed with a timestamp
// so repeated uploads of the same file never collide.
func (s *ReceiptStore) Save(userID int64, filename string, content []byte) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("cannot save receipt: empty filename")
	}

	safeName := sanitizeFilename(filename)
	if safeName == "" {
		return "", fmt.Errorf("cannot save receipt: unusable filename %q", filename)
	}

	storedName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), safeName)
	fullPath := filepath.Join(s.baseDir, fmt.Sprintf("%d", userID), storedName)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create receipt folder",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write receipt",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Receipt saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)),
		zap.Int64("user_id", userID))

	return fullPath, nil
}

// Remove deletes a stored receipt. Removing a path that no longer
// exists is not an error.
func (s *ReceiptStore) Remove(path string) error {
	if err := s.validatePath(path); err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(path); err != nil {
		s.logger.Error("Failed to delete receipt",
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// validatePath checks that the path is safe and within baseDir
func (s *ReceiptStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

// sanitizeFilename strips path separators and special characters so an
// uploaded name cannot traverse out of the claimant's folder.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	return unsafeChars.ReplaceAllString(name, "")
}
