package store

import (
	"path/filepath"
	"strings"

	"vidsnatch/types"
)

// FileIndex maps produced file names back to their source URL
type FileIndex struct {
	col *Collection[types.FileRecord]
}

// NewFileIndex wraps a backend
func NewFileIndex(backend Store) (*FileIndex, error) {
	col, err := NewCollection[types.FileRecord](backend)
	return &FileIndex{col: col}, err
}

// FileKey is the case-insensitive basename used as index key
func FileKey(name string) string {
	return strings.ToLower(filepath.Base(name))
}

// Add records a file
func (f *FileIndex) Add(rec types.FileRecord) error {
	rec.Filename = filepath.Base(rec.Filename)
	return f.col.Put(FileKey(rec.Filename), rec)
}

// Get looks a file up by name
func (f *FileIndex) Get(name string) (types.FileRecord, bool) {
	return f.col.Get(FileKey(name))
}

// Update changes the record of a file
func (f *FileIndex) Update(name string, fn func(rec *types.FileRecord)) error {
	return f.col.Update(FileKey(name), func(rec *types.FileRecord) bool {
		fn(rec)
		return true
	})
}

// Remove forgets a file
func (f *FileIndex) Remove(name string) error {
	return f.col.Delete(FileKey(name))
}

// All returns every record
func (f *FileIndex) All() []types.FileRecord {
	return f.col.List()
}
