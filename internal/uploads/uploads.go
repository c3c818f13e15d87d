// Package uploads keeps candidate files on disk and maps their ids to paths.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"candidate-screening/internal/helper"
)

// ErrNotFound is returned for ids that were never uploaded.
var ErrNotFound = errors.New("document id not found")

// FileStore saves uploads as <uuid>_<basename> under one directory.
type FileStore struct {
	dir   string
	mu    sync.RWMutex
	files map[string]string
}

// NewFileStore creates dir if needed and indexes the files already in it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := helper.CreateFolder(dir); err != nil {
		return nil, err
	}
	s := &FileStore{dir: dir, files: map[string]string{}}
	if _, err := s.Rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes r to a new file and returns its id.
func (s *FileStore) Save(filename string, r io.Reader) (string, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		base = "upload"
	}
	path := filepath.Join(s.dir, id+"_"+base)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	s.mu.Lock()
	s.files[id] = path
	s.mu.Unlock()

	log.Info().Str("id", id).Str("file", base).Msg("Stored upload")
	return id, nil
}

// Path resolves an upload id.
func (s *FileStore) Path(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.files[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return path, nil
}

// Has reports whether every id is known.
func (s *FileStore) Has(ids ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range ids {
		if _, ok := s.files[id]; !ok {
			return false
		}
	}
	return true
}

// Rebuild rescans the directory and replaces the index. Files whose name
// does not start with a UUID are skipped.
func (s *FileStore) Rebuild() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}

	files := make(map[string]string, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		id, _, ok := strings.Cut(entry.Name(), "_")
		if !ok || !helper.IsUUID(id) {
			log.Warn().Str("file", entry.Name()).Msg("Skipping file with unexpected format")
			continue
		}
		files[id] = filepath.Join(s.dir, entry.Name())
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()

	log.Info().Int("files", len(files)).Msg("Rebuilt upload index")
	return len(files), nil
}
