package store

import (
	"net/url"
	"sort"
	"sync"
	"time"

	"vidsnatch/types"
)

// humanTime is the layout of FailedRecord.FailedAtHuman
const humanTime = "2006-01-02 15:04:05"

// FailedStore keeps terminally failed jobs, at most one per URL
type FailedStore struct {
	mu  sync.Mutex
	col *Collection[types.FailedRecord]
}

// NewFailedStore wraps a backend
func NewFailedStore(backend Store) (*FailedStore, error) {
	col, err := NewCollection[types.FailedRecord](backend)
	return &FailedStore{col: col}, err
}

// NewFailedRecord builds a record and derives its diagnostic fields from the URL
func NewFailedRecord(id, rawURL, title, errMsg string, retryCount int, openFolder bool, at time.Time) types.FailedRecord {
	rec := types.FailedRecord{
		ID:            id,
		URL:           rawURL,
		Title:         title,
		Error:         errMsg,
		RetryCount:    retryCount,
		FailedAt:      at.Unix(),
		FailedAtHuman: at.Format(humanTime),
		OpenFolder:    openFolder,
	}
	if u, err := url.Parse(rawURL); err == nil {
		rec.Domain = u.Host
		rec.Path = u.Path
	}
	return rec
}

// Get returns a record by id
func (s *FailedStore) Get(id string) (types.FailedRecord, bool) {
	return s.col.Get(id)
}

// Len returns the number of records
func (s *FailedStore) Len() int {
	return s.col.Len()
}

// List returns the records oldest first
func (s *FailedStore) List() []types.FailedRecord {
	recs := s.col.List()
	sort.SliceStable(recs, func(i, k int) bool {
		return recs[i].FailedAt < recs[k].FailedAt
	})
	return recs
}

// FindByURL returns the record for a URL
func (s *FailedStore) FindByURL(rawURL string) (types.FailedRecord, bool) {
	for _, rec := range s.List() {
		if rec.URL == rawURL {
			return rec, true
		}
	}
	return types.FailedRecord{}, false
}

// Record stores a failure. If another record already exists for the same
// URL it is updated in place and its id is returned instead, so a URL
// never owns two records. The retry count never decreases.
func (s *FailedStore) Record(rec types.FailedRecord) (types.FailedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.FindByURL(rec.URL); ok && existing.ID != rec.ID {
		merged := rec
		merged.ID = existing.ID
		if existing.RetryCount > merged.RetryCount {
			merged.RetryCount = existing.RetryCount
		}
		return merged, s.col.Put(merged.ID, merged)
	}
	if existing, ok := s.col.Get(rec.ID); ok && existing.RetryCount > rec.RetryCount {
		rec.RetryCount = existing.RetryCount
	}
	return rec, s.col.Put(rec.ID, rec)
}

// BumpRetry counts another submission of a failed URL and refreshes its
// title and timestamp.
func (s *FailedStore) BumpRetry(id, title string, at time.Time) (types.FailedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out types.FailedRecord
	err := s.col.Update(id, func(rec *types.FailedRecord) bool {
		rec.RetryCount++
		if title != "" {
			rec.Title = title
		}
		rec.FailedAt = at.Unix()
		rec.FailedAtHuman = at.Format(humanTime)
		out = *rec
		return true
	})
	return out, err
}

// Delete removes a record
func (s *FailedStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.col.Delete(id)
}
