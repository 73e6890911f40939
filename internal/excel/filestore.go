package excel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lipeng19940807-debug/ai-settlement-assistant/internal/schema"
)

// ErrFileNotFound is returned for lookups of unknown or deleted file ids.
var ErrFileNotFound = fmt.Errorf("file not found")

// allowedExts is the upload whitelist.
var allowedExts = map[string]bool{".xlsx": true, ".xls": true, ".csv": true}

// MaxUploadBytes caps a single uploaded file.
const MaxUploadBytes = 100 << 20

// StoredFile pairs parsed file metadata with its on-disk location.
type StoredFile struct {
	schema.File
	Path string
}

// FileStore keeps uploaded workbooks on disk under one directory, with
// parsed metadata in memory keyed by a generated id. Files survive until
// deleted; metadata does not survive a restart, matching the session-scoped
// lifetime of a settlement workspace.
type FileStore struct {
	dir string

	mu    sync.RWMutex
	files map[string]*StoredFile
	order []string
}

// NewFileStore creates the store and its backing directory.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &FileStore{
		dir:   dir,
		files: make(map[string]*StoredFile),
	}, nil
}

// Save writes the uploaded content to disk, parses it and registers the
// result. The original file name decides the format and is kept for display.
func (s *FileStore) Save(originalName string, r io.Reader) (*schema.File, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		return nil, fmt.Errorf("unsupported file format %q, expected .xlsx, .xls or .csv", ext)
	}

	id := uuid.New().String()
	path := filepath.Join(s.dir, id+ext)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	size, err := io.Copy(out, io.LimitReader(r, MaxUploadBytes+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if size > MaxUploadBytes {
		os.Remove(path)
		return nil, fmt.Errorf("file exceeds the %dMB upload limit", MaxUploadBytes>>20)
	}

	sheets, totalRows, err := Parse(path, originalName)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("parse %s: %w", originalName, err)
	}

	file := &StoredFile{
		File: schema.File{
			ID:         id,
			Name:       originalName,
			Size:       formatSize(size),
			SizeBytes:  size,
			RowCount:   totalRows,
			UploadedAt: time.Now(),
			Sheets:     sheets,
		},
		Path: path,
	}

	s.mu.Lock()
	s.files[id] = file
	s.order = append(s.order, id)
	s.mu.Unlock()

	return &file.File, nil
}

// Get returns the stored file for the given id.
func (s *FileStore) Get(id string) (*StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return f, nil
}

// List returns metadata for all stored files in upload order.
func (s *FileStore) List() []*schema.File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*schema.File, 0, len(s.order))
	for _, id := range s.order {
		if f, ok := s.files[id]; ok {
			out = append(out, &f.File)
		}
	}
	return out
}

// Delete removes the file from disk and from the store.
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return ErrFileNotFound
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	delete(s.files, id)
	for i, fid := range s.order {
		if fid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// LoadRows serves the batch transformer: all rows (up to the read ceiling)
// of the file's first sheet, as a table.
func (s *FileStore) LoadRows(id string, limit int) (*Table, error) {
	f, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return Preview(f.Path, f.Name, "", limit)
}

func formatSize(n int64) string {
	if n > 1<<20 {
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	}
	return fmt.Sprintf("%dKB", n/(1<<10))
}
