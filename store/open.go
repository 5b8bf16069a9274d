package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"
)

// Backend names accepted by Open
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Document names, shared by the JSON file names and the sqlite buckets
const (
	activeDoc  = "active_downloads"
	failedDoc  = "failed_downloads"
	historyDoc = "url_tracker"
	filesDoc   = "file_metadata"
)

// Stores groups the persistent stores of the service
type Stores struct {
	Snapshot *SnapshotStore
	Failed   *FailedStore
	History  *HistoryStore
	Files    *FileIndex

	db       *gorm.DB
	backends []Store
}

// Open opens every store under dir. A document that cannot be read
// yields an empty store and a non-fatal error in the returned join,
// so callers can log it and carry on. A nil *Stores means the backend
// itself could not be opened.
func Open(backend, dir string) (*Stores, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	s := &Stores{}
	var openDoc func(name string) Store

	switch backend {
	case BackendSQLite:
		db, err := OpenDB(filepath.Join(dir, "vidsnatch.db"))
		if err != nil {
			return nil, err
		}
		s.db = db
		openDoc = func(name string) Store { return NewSQLStore(db, name) }
	case BackendJSON, "":
		// one file per document, opened below
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	var warnings []error
	doc := func(name string) Store {
		if openDoc != nil {
			return openDoc(name)
		}
		js, err := OpenJSON(filepath.Join(dir, name+".json"))
		if err != nil {
			warnings = append(warnings, err)
		}
		return js
	}

	var err error
	if s.Snapshot, err = NewSnapshotStore(s.track(doc(activeDoc))); err != nil {
		warnings = append(warnings, err)
	}
	if s.Failed, err = NewFailedStore(s.track(doc(failedDoc))); err != nil {
		warnings = append(warnings, err)
	}
	if s.History, err = NewHistoryStore(s.track(doc(historyDoc))); err != nil {
		warnings = append(warnings, err)
	}
	if s.Files, err = NewFileIndex(s.track(doc(filesDoc))); err != nil {
		warnings = append(warnings, err)
	}
	return s, errors.Join(warnings...)
}

func (s *Stores) track(b Store) Store {
	s.backends = append(s.backends, b)
	return b
}

// Close releases the backends
func (s *Stores) Close() error {
	var errs []error
	for _, b := range s.backends {
		errs = append(errs, b.Close())
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
