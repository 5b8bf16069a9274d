package store

import (
	"sort"

	"vidsnatch/types"
)

// SnapshotStore holds the in-progress jobs of the running process
type SnapshotStore struct {
	col *Collection[types.JobSnapshot]
}

// NewSnapshotStore wraps a backend
func NewSnapshotStore(backend Store) (*SnapshotStore, error) {
	col, err := NewCollection[types.JobSnapshot](backend)
	return &SnapshotStore{col: col}, err
}

// Save replaces the snapshot with the given jobs, skipping any that are
// no longer in progress.
func (s *SnapshotStore) Save(jobs []types.JobSnapshot) error {
	items := make(map[string]types.JobSnapshot, len(jobs))
	for _, j := range jobs {
		if !j.Status.InProgress() {
			continue
		}
		items[j.ID] = j
	}
	return s.col.Replace(items)
}

// All returns the persisted jobs ordered by start time
func (s *SnapshotStore) All() []types.JobSnapshot {
	jobs := s.col.List()
	sort.SliceStable(jobs, func(i, k int) bool {
		return jobs[i].StartTime.Before(jobs[k].StartTime)
	})
	return jobs
}

// Clear empties the snapshot
func (s *SnapshotStore) Clear() error {
	return s.col.Replace(map[string]types.JobSnapshot{})
}
