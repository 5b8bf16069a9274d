package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidsnatch/types"
)

// HistoryStore tracks every URL ever submitted
type HistoryStore struct {
	mu  sync.Mutex
	col *Collection[types.HistoryEntry]
}

// NewHistoryStore wraps a backend
func NewHistoryStore(backend Store) (*HistoryStore, error) {
	col, err := NewCollection[types.HistoryEntry](backend)
	return &HistoryStore{col: col}, err
}

// Add starts tracking a URL and returns its entry id. A URL that is
// already tracked keeps its entry, which goes back to pending.
func (s *HistoryStore) Add(rawURL, title string, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, _, ok := s.col.Find(func(e types.HistoryEntry) bool { return e.URL == rawURL }); ok {
		err := s.col.Update(id, func(e *types.HistoryEntry) bool {
			e.Status = types.HistoryPending
			if title != "" {
				e.Title = title
			}
			return true
		})
		return id, err
	}

	if title == "" {
		title = "Unknown"
	}
	entry := types.HistoryEntry{
		ID:      uuid.New().String(),
		URL:     rawURL,
		Title:   title,
		Status:  types.HistoryPending,
		AddedAt: at,
	}
	return entry.ID, s.col.Put(entry.ID, entry)
}

// MarkAttempting records the start of a download attempt
func (s *HistoryStore) MarkAttempting(id string, at time.Time) error {
	return s.col.Update(id, func(e *types.HistoryEntry) bool {
		e.Status = types.HistoryDownloading
		e.Attempts++
		e.LastAttempt = &at
		return true
	})
}

// MarkCompleted records a successful download
func (s *HistoryStore) MarkCompleted(id string, at time.Time) error {
	return s.col.Update(id, func(e *types.HistoryEntry) bool {
		e.Status = types.HistoryCompleted
		e.CompletedAt = &at
		e.LastError = ""
		return true
	})
}

// MarkFailed records a failed attempt
func (s *HistoryStore) MarkFailed(id, errMsg string) error {
	return s.col.Update(id, func(e *types.HistoryEntry) bool {
		e.Status = types.HistoryFailed
		e.LastError = errMsg
		return true
	})
}

// SetTitle refreshes the title of an entry
func (s *HistoryStore) SetTitle(id, title string) error {
	return s.col.Update(id, func(e *types.HistoryEntry) bool {
		if title == "" || e.Title == title {
			return false
		}
		e.Title = title
		return true
	})
}

// Get returns an entry by id
func (s *HistoryStore) Get(id string) (types.HistoryEntry, bool) {
	return s.col.Get(id)
}

// FindByURL returns the entry tracking a URL
func (s *HistoryStore) FindByURL(rawURL string) (types.HistoryEntry, bool) {
	_, e, ok := s.col.Find(func(e types.HistoryEntry) bool { return e.URL == rawURL })
	return e, ok
}

// List returns entries oldest first, optionally filtered by status
func (s *HistoryStore) List(status types.HistoryStatus) []types.HistoryEntry {
	all := s.col.List()
	out := all[:0]
	for _, e := range all {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].AddedAt.Before(out[k].AddedAt)
	})
	return out
}

// Incomplete returns every entry that has not completed, oldest first
func (s *HistoryStore) Incomplete() []types.HistoryEntry {
	var out []types.HistoryEntry
	for _, e := range s.List("") {
		if e.Status != types.HistoryCompleted {
			out = append(out, e)
		}
	}
	return out
}

// MarkInterrupted fails every pending or downloading entry with the given
// message and returns how many were changed.
func (s *HistoryStore) MarkInterrupted(errMsg string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, e := range s.col.List() {
		if e.Status != types.HistoryPending && e.Status != types.HistoryDownloading {
			continue
		}
		if err := s.MarkFailed(e.ID, errMsg); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// CleanupCompleted drops completed entries finished before cutoff
func (s *HistoryStore) CleanupCompleted(cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.col.DeleteWhere(func(e types.HistoryEntry) bool {
		return e.Status == types.HistoryCompleted && e.CompletedAt != nil && e.CompletedAt.Before(cutoff)
	})
}
