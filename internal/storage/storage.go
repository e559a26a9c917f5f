// Package storage manages the on-disk lifecycle of uploaded PDFs and
// generated outputs. Every file it creates is temporary: callers delete
// artifacts when a request finishes, and a periodic sweep removes anything
// left behind.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdf-translator/internal/logger"
)

const (
	uploadsDir = "uploads"
	outputsDir = "outputs"

	// outputTimeFormat stamps generated filenames for uniqueness
	outputTimeFormat = "20060102_150405"
)

// Store is a temp-file store rooted at a single directory
type Store struct {
	root string
}

// New creates a Store rooted at root, creating the uploads and outputs
// subdirectories if needed
func New(root string) (*Store, error) {
	for _, sub := range []string{uploadsDir, outputsDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// SaveUpload streams r to a uniquely named file under uploads/ and returns
// its path. The caller's filename is never used on disk.
func (s *Store) SaveUpload(r io.Reader) (string, error) {
	path := filepath.Join(s.root, uploadsDir, uuid.NewString()+".pdf")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	logger.Debug("upload stored",
		logger.String("path", filepath.Base(path)),
		logger.Int64("bytes", written))
	return path, nil
}

// OutputPath returns a collision-free path under outputs/ for a generated
// PDF. The name is always freshly generated, never derived from the
// user-supplied filename, so concurrent requests for the same document
// cannot share a path.
func (s *Store) OutputPath() string {
	return filepath.Join(s.root, outputsDir, uuid.NewString()+".pdf")
}

// DownloadName builds the client-facing filename for a generated PDF,
// named after the original file, the target language, and a timestamp.
// It names the download only; on-disk paths come from OutputPath.
func DownloadName(originalName, lang string) string {
	stem := sanitizeStem(originalName)
	return fmt.Sprintf("%s_%s_%s.pdf", stem, lang, time.Now().Format(outputTimeFormat))
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *Store) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove stored file",
			logger.String("path", filepath.Base(path)), logger.Err(err))
	}
}

// Sweep removes every stored file older than maxAge and returns how many
// were deleted. It is the backstop for requests that never reached their
// own cleanup.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, sub := range []string{uploadsDir, outputsDir} {
		dir := filepath.Join(s.root, sub)
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("sweep cannot read directory", logger.String("dir", sub), logger.Err(err))
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		logger.Info("swept leftover files", logger.Int("removed", removed))
	}
	return removed
}

// sanitizeStem reduces a user-supplied filename to a safe stem
func sanitizeStem(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	var sb strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ' || r == '.':
			sb.WriteRune('_')
		}
	}

	if sb.Len() == 0 {
		return "document"
	}
	return sb.String()
}
