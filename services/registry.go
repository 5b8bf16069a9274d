package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"vidsnatch/engine"
	"vidsnatch/fuzzy"
	"vidsnatch/logger"
	"vidsnatch/store"
	"vidsnatch/types"
)

// Registry interface defines the operations on download jobs
type Registry interface {
	Submit(req types.SubmitRequest) (types.SubmitResponse, error)
	Get(id string) (types.Job, bool)
	Progress(id string) (types.ProgressResponse, error)
	Jobs() []types.Job
	List() []types.DownloadEntry
	Stats() types.Stats
	UpdateProgress(id string, ev engine.Event) error
	Cancel(id string) error
	Complete(id string, res engine.Result) error
	Fail(id, errMsg string) error
	Retry(id string) (types.RetryResponse, error)
	Delete(id string) ([]string, error)
	Clear(id string) error
	Resolve(filename string) types.ResolveResponse
	SweepStuck() int
	RetireFinished() int
	Shutdown()
}

// Publisher receives every job update, e.g. the websocket hub
type Publisher interface {
	BroadcastProgress(msg types.ProgressMessage)
}

// Options tunes a registry
type Options struct {
	// DownloadDir returns the current download folder
	DownloadDir    func() string
	OutputTemplate string
	// MaxConcurrent caps running engine calls; 0 means no limit
	MaxConcurrent int
	StuckTimeout  time.Duration
	RetireAfter   time.Duration
	Now           func() time.Time
}

// entry is one job in the active map
type entry struct {
	job types.Job
	// named is set when the caller supplied the title
	named bool
	// latch is closed once to request cancellation
	latch  chan struct{}
	stop   context.CancelFunc
	bucket int
	gen    int
}

func (e *entry) closeLatch() {
	select {
	case <-e.latch:
	default:
		close(e.latch)
	}
}

// registry implements the Registry interface
type registry struct {
	mu   sync.Mutex
	jobs map[string]*entry

	// snapMu serializes snapshot writes so they land in order
	snapMu sync.Mutex

	stores *store.Stores
	engine engine.Engine
	files  FileService
	pub    Publisher
	log    *logger.Logger
	opts   Options

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates the job registry
func NewRegistry(stores *store.Stores, eng engine.Engine, files FileService, pub Publisher, log *logger.Logger, opts Options) Registry {
	if log == nil {
		log = logger.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DownloadDir == nil {
		opts.DownloadDir = func() string { return "." }
	}
	if opts.StuckTimeout <= 0 {
		opts.StuckTimeout = 30 * time.Second
	}
	if opts.RetireAfter <= 0 {
		opts.RetireAfter = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &registry{
		jobs:   make(map[string]*entry),
		stores: stores,
		engine: eng,
		files:  files,
		pub:    pub,
		log:    log.Component("registry"),
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
	if opts.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	return r
}

// Submit creates a job for a URL, or reports an existing failed record for it
func (r *registry) Submit(req types.SubmitRequest) (types.SubmitResponse, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return types.SubmitResponse{}, ErrEmptyURL
	}
	now := r.opts.Now()
	title := strings.TrimSpace(req.Title)

	if rec, ok := r.stores.Failed.FindByURL(rawURL); ok {
		updated, err := r.stores.Failed.BumpRetry(rec.ID, title, now)
		if err != nil {
			r.log.WithError(err).WithField(logger.FieldJobID, rec.ID).Warn("could not persist retry count")
			if updated.ID == "" {
				updated = rec
				updated.RetryCount++
			}
		}
		r.log.WithFields(logger.Fields{
			logger.FieldJobID: rec.ID,
			logger.FieldURL:   rawURL,
			"retry_count":     updated.RetryCount,
		}).Info("duplicate submission of failed download")
		return types.SubmitResponse{
			Success:            false,
			IsDuplicate:        true,
			ExistingDownloadID: rec.ID,
			RetryCount:         updated.RetryCount,
			OriginalError:      rec.Error,
			Message:            fmt.Sprintf("This URL already failed %d time(s). Original error: %s", updated.RetryCount, rec.Error),
		}, nil
	}

	e := &entry{
		named: title != "",
		job: types.Job{
			ID:         uuid.New().String(),
			URL:        rawURL,
			Title:      engine.CleanTitle(title),
			OpenFolder: req.OpenFolder,
			CreatedAt:  now,
		},
	}
	e.job.HistoryID = r.track(rawURL, title, now)

	r.mu.Lock()
	r.jobs[e.job.ID] = e
	r.start(e)
	job := e.job
	r.mu.Unlock()

	r.log.WithFields(logger.Fields{logger.FieldJobID: job.ID, logger.FieldURL: rawURL}).Info("download submitted")
	r.persist()
	r.publish("status", job)
	return types.SubmitResponse{Success: true, DownloadID: job.ID}, nil
}

// track adds the URL to the history and returns the entry id
func (r *registry) track(rawURL, title string, now time.Time) string {
	id, err := r.stores.History.Add(rawURL, title, now)
	if err != nil {
		r.log.WithError(err).WithField(logger.FieldURL, rawURL).Warn("could not update url history")
	}
	return id
}

// start resets e to preparing and spawns its task. Callers hold r.mu.
func (r *registry) start(e *entry) {
	e.gen++
	e.bucket = -1
	e.latch = make(chan struct{})
	ctx, stop := context.WithCancel(r.ctx)
	e.stop = stop

	e.job.Status = types.JobStatusPreparing
	e.job.Percent = 0
	e.job.Speed = ""
	e.job.ETA = ""
	e.job.Error = ""
	e.job.Cancelled = false
	e.job.Queued = true
	e.job.StartTime = time.Time{}
	e.job.FinishedAt = nil

	r.wg.Add(1)
	go r.run(ctx, task{id: e.job.ID, gen: e.gen, latch: e.latch, stop: stop})
}

// Get returns a copy of an active job
func (r *registry) Get(id string) (types.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[id]
	if !ok {
		return types.Job{}, false
	}
	return e.job, true
}

// Progress returns the last known state of an active job or failed record
func (r *registry) Progress(id string) (types.ProgressResponse, error) {
	if job, ok := r.Get(id); ok {
		return types.ProgressResponse{
			ID:         job.ID,
			Status:     job.Status,
			Percent:    job.Percent,
			Speed:      job.Speed,
			ETA:        job.ETA,
			Error:      job.Error,
			Title:      job.Title,
			URL:        job.URL,
			RetryCount: job.RetryCount,
			Queued:     job.Queued,
		}, nil
	}
	if rec, ok := r.stores.Failed.Get(id); ok {
		return types.ProgressResponse{
			ID:         rec.ID,
			Status:     types.JobStatusFailed,
			Error:      rec.Error,
			Title:      rec.Title,
			URL:        rec.URL,
			RetryCount: rec.RetryCount,
		}, nil
	}
	return types.ProgressResponse{}, ErrNotFound
}

// Jobs returns copies of the active jobs, oldest first
func (r *registry) Jobs() []types.Job {
	r.mu.Lock()
	jobs := make([]types.Job, 0, len(r.jobs))
	for _, e := range r.jobs {
		jobs = append(jobs, e.job)
	}
	r.mu.Unlock()

	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].ID < jobs[k].ID
		}
		return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
	})
	return jobs
}

// List returns active jobs and failed records, one row per title and URL
func (r *registry) List() []types.DownloadEntry {
	seen := make(map[string]bool)
	var out []types.DownloadEntry
	add := func(d types.DownloadEntry) {
		key := d.Title + "\x00" + d.URL
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, d)
	}

	for _, j := range r.Jobs() {
		add(types.DownloadEntry{
			ID:         j.ID,
			URL:        j.URL,
			Title:      j.Title,
			Status:     j.Status,
			Percent:    j.Percent,
			Error:      j.Error,
			RetryCount: j.RetryCount,
			Source:     string(types.MatchSourceActive),
		})
	}
	for _, rec := range r.stores.Failed.List() {
		add(types.DownloadEntry{
			ID:         rec.ID,
			URL:        rec.URL,
			Title:      rec.Title,
			Status:     types.JobStatusFailed,
			Error:      rec.Error,
			RetryCount: rec.RetryCount,
			Source:     string(types.MatchSourceFailed),
		})
	}
	return out
}

// Stats counts jobs by state
func (r *registry) Stats() types.Stats {
	var s types.Stats
	r.mu.Lock()
	for _, e := range r.jobs {
		switch {
		case e.job.Status.InProgress() && e.job.Queued:
			s.Queued++
		case e.job.Status.InProgress():
			s.Active++
		case e.job.Status == types.JobStatusCompleted:
			s.Completed++
		case e.job.Status == types.JobStatusCancelled:
			s.Cancelled++
		}
	}
	r.mu.Unlock()
	s.Failed = r.stores.Failed.Len()
	s.History = len(r.stores.History.List(""))
	return s
}

// UpdateProgress applies an engine event to a job
func (r *registry) UpdateProgress(id string, ev engine.Event) error {
	return r.progress(id, 0, ev)
}

func (r *registry) progress(id string, gen int, ev engine.Event) error {
	r.mu.Lock()
	e, ok := r.lookup(id, gen)
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if e.job.Status.Terminal() {
		r.mu.Unlock()
		return ErrInvalidState
	}

	prev := e.job.Status
	next := types.JobStatusDownloading
	if ev.Status == engine.EventFinished {
		next = types.JobStatusProcessing
	}
	if types.CanTransition(prev, next) {
		e.job.Status = next
	}

	switch {
	case ev.Status == engine.EventFinished:
		e.job.Percent = 100
	case ev.TotalBytes > 0:
		e.job.Percent = float64(ev.DownloadedBytes) / float64(ev.TotalBytes) * 100
	}
	e.job.Speed = ev.Speed
	e.job.ETA = ev.ETA
	if ev.Title != "" && !e.named {
		e.job.Title = engine.CleanTitle(ev.Title)
	}
	if ev.Filename != "" {
		e.job.Filename = filepath.Base(ev.Filename)
	}

	bucket := int(e.job.Percent) / 10
	save := bucket != e.bucket || prev != e.job.Status
	e.bucket = bucket
	job := e.job
	r.mu.Unlock()

	if save {
		r.persist()
	}
	r.publish("progress", job)
	return nil
}

// Cancel sets the cancellation latch of an active job
func (r *registry) Cancel(id string) error {
	r.mu.Lock()
	e, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		if _, failed := r.stores.Failed.Get(id); failed {
			return ErrNotCancellable
		}
		return ErrNotFound
	}
	if e.job.Status.Terminal() {
		r.mu.Unlock()
		return ErrNotCancellable
	}
	e.job.Cancelled = true
	e.closeLatch()
	if e.job.Queued {
		// nothing is running yet, release the wait for a slot
		e.stop()
	}
	job := e.job
	r.mu.Unlock()

	r.log.WithField(logger.FieldJobID, id).Info("cancellation requested")
	r.publish("status", job)
	return nil
}

// Complete marks a job completed and records what it produced
func (r *registry) Complete(id string, res engine.Result) error {
	return r.complete(id, 0, res)
}

func (r *registry) complete(id string, gen int, res engine.Result) error {
	now := r.opts.Now()

	r.mu.Lock()
	e, ok := r.lookup(id, gen)
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if !types.CanTransition(e.job.Status, types.JobStatusCompleted) {
		r.mu.Unlock()
		return ErrInvalidState
	}
	e.job.Status = types.JobStatusCompleted
	e.job.Percent = 100
	e.job.Speed = ""
	e.job.ETA = ""
	e.job.Queued = false
	e.job.FinishedAt = &now
	if res.Title != "" && !e.named {
		e.job.Title = engine.CleanTitle(res.Title)
	}
	if res.Filename != "" {
		e.job.Filename = filepath.Base(res.Filename)
	}
	job := e.job
	r.mu.Unlock()

	log := r.log.WithFields(logger.Fields{logger.FieldJobID: id, logger.FieldURL: job.URL})
	if job.HistoryID != "" {
		if err := r.stores.History.SetTitle(job.HistoryID, job.Title); err != nil {
			log.WithError(err).Warn("could not update history title")
		}
		if err := r.stores.History.MarkCompleted(job.HistoryID, now); err != nil {
			log.WithError(err).Warn("could not mark history completed")
		}
	}

	removed := r.files.CleanupMatching(r.opts.DownloadDir(), job.Title)

	if job.Filename != "" {
		rec := types.FileRecord{Filename: job.Filename, URL: job.URL, Title: job.Title, DownloadTime: now}
		if err := r.stores.Files.Add(rec); err != nil {
			log.WithError(err).Warn("could not record file metadata")
		}
	}

	log.WithFields(logger.Fields{logger.FieldFile: job.Filename, "partials_removed": len(removed)}).Info("download completed")
	r.persist()
	r.publish("complete", job)
	return nil
}

// Fail moves a job into the failed store
func (r *registry) Fail(id, errMsg string) error {
	return r.fail(id, 0, errMsg, nil)
}

// fail moves a job to the failed store when cond holds for it. A job
// whose cancellation latch is set ends cancelled instead.
func (r *registry) fail(id string, gen int, errMsg string, cond func(types.Job) bool) error {
	now := r.opts.Now()

	r.mu.Lock()
	e, ok := r.lookup(id, gen)
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if cond != nil && !cond(e.job) {
		r.mu.Unlock()
		return ErrInvalidState
	}
	if e.job.Cancelled {
		r.mu.Unlock()
		return r.cancelled(id, gen)
	}
	if !types.CanTransition(e.job.Status, types.JobStatusError) {
		r.mu.Unlock()
		return ErrInvalidState
	}
	e.job.Status = types.JobStatusError
	e.job.Error = errMsg
	e.job.Speed = ""
	e.job.ETA = ""
	e.stop()
	delete(r.jobs, id)
	job := e.job
	r.mu.Unlock()

	log := r.log.WithFields(logger.Fields{logger.FieldJobID: id, logger.FieldURL: job.URL})
	rec := store.NewFailedRecord(job.ID, job.URL, job.Title, errMsg, job.RetryCount, job.OpenFolder, now)
	if _, err := r.stores.Failed.Record(rec); err != nil {
		log.WithError(err).Warn("could not persist failed download")
	}
	if job.HistoryID != "" {
		if err := r.stores.History.MarkFailed(job.HistoryID, errMsg); err != nil {
			log.WithError(err).Warn("could not mark history failed")
		}
	}

	log.WithField("error", errMsg).Warn("download failed")
	r.persist()
	job.Status = types.JobStatusFailed
	r.publish("error", job)
	return nil
}

// cancelled moves a job whose latch was set into the cancelled state
func (r *registry) cancelled(id string, gen int) error {
	now := r.opts.Now()

	r.mu.Lock()
	e, ok := r.lookup(id, gen)
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if !types.CanTransition(e.job.Status, types.JobStatusCancelled) {
		r.mu.Unlock()
		return ErrInvalidState
	}
	e.job.Status = types.JobStatusCancelled
	e.job.Cancelled = true
	e.job.Queued = false
	e.job.Speed = ""
	e.job.ETA = ""
	e.job.FinishedAt = &now
	e.stop()
	job := e.job
	r.mu.Unlock()

	if job.HistoryID != "" {
		if err := r.stores.History.MarkFailed(job.HistoryID, MsgCancelledByUser); err != nil {
			r.log.WithError(err).WithField(logger.FieldJobID, id).Warn("could not update history")
		}
	}
	r.log.WithField(logger.FieldJobID, id).Info("download cancelled")
	r.persist()
	r.publish("status", job)
	return nil
}

// Retry restarts a failed record or a cancelled job under the same id
func (r *registry) Retry(id string) (types.RetryResponse, error) {
	now := r.opts.Now()
	retryable := func(s types.JobStatus) bool {
		return s == types.JobStatusCancelled || s == types.JobStatusError
	}

	if job, ok := r.Get(id); ok {
		if !retryable(job.Status) {
			return types.RetryResponse{}, ErrNotRetryable
		}
		historyID := r.track(job.URL, job.Title, now)

		r.mu.Lock()
		e, ok := r.jobs[id]
		if !ok || !retryable(e.job.Status) {
			r.mu.Unlock()
			return types.RetryResponse{}, ErrNotRetryable
		}
		e.job.RetryCount++
		e.job.HistoryID = historyID
		r.start(e)
		job = e.job
		r.mu.Unlock()
		return r.restarted(job), nil
	}

	rec, ok := r.stores.Failed.Get(id)
	if !ok {
		return types.RetryResponse{}, ErrNotFound
	}

	e := &entry{
		named: rec.Title != "" && rec.Title != engine.UnknownTitle,
		job: types.Job{
			ID:         rec.ID,
			URL:        rec.URL,
			Title:      engine.CleanTitle(rec.Title),
			RetryCount: rec.RetryCount + 1,
			OpenFolder: rec.OpenFolder,
			CreatedAt:  now,
			HistoryID:  r.track(rec.URL, rec.Title, now),
		},
	}

	r.mu.Lock()
	if _, taken := r.jobs[id]; taken {
		r.mu.Unlock()
		return types.RetryResponse{}, ErrNotRetryable
	}
	r.jobs[id] = e
	r.start(e)
	job := e.job
	r.mu.Unlock()

	if err := r.stores.Failed.Delete(id); err != nil && !errors.Is(err, store.ErrNotFound) {
		r.log.WithError(err).WithField(logger.FieldJobID, id).Warn("could not remove failed record")
	}
	return r.restarted(job), nil
}

func (r *registry) restarted(job types.Job) types.RetryResponse {
	r.log.WithFields(logger.Fields{
		logger.FieldJobID: job.ID,
		logger.FieldURL:   job.URL,
		"retry_count":     job.RetryCount,
	}).Info("download retried")
	r.persist()
	r.publish("status", job)
	return types.RetryResponse{
		Success:    true,
		Message:    fmt.Sprintf("Retry %d started", job.RetryCount),
		DownloadID: job.ID,
		RetryCount: job.RetryCount,
	}
}

// Delete drops a job or failed record and removes its partial files
func (r *registry) Delete(id string) ([]string, error) {
	var (
		title, historyID string
		running, found   bool
	)

	r.mu.Lock()
	if e, ok := r.jobs[id]; ok {
		found = true
		running = e.job.Status.InProgress()
		if running {
			e.job.Cancelled = true
			e.closeLatch()
		}
		e.stop()
		title, historyID = e.job.Title, e.job.HistoryID
		delete(r.jobs, id)
	}
	r.mu.Unlock()

	if rec, ok := r.stores.Failed.Get(id); ok {
		found = true
		if title == "" {
			title = rec.Title
		}
		if err := r.stores.Failed.Delete(id); err != nil {
			r.log.WithError(err).WithField(logger.FieldJobID, id).Warn("could not remove failed record")
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	if running && historyID != "" {
		if err := r.stores.History.MarkFailed(historyID, MsgCancelledByUser); err != nil {
			r.log.WithError(err).WithField(logger.FieldJobID, id).Warn("could not update history")
		}
	}
	removed := r.files.CleanupMatching(r.opts.DownloadDir(), title)

	r.log.WithFields(logger.Fields{logger.FieldJobID: id, "partials_removed": len(removed)}).Info("download deleted")
	r.persist()
	r.publish("deleted", types.Job{ID: id, Title: title, Status: types.JobStatusCancelled})
	return removed, nil
}

// Clear removes a finished job or failed record from the list, keeping files
func (r *registry) Clear(id string) error {
	r.mu.Lock()
	if e, ok := r.jobs[id]; ok {
		if !e.job.Status.Terminal() {
			r.mu.Unlock()
			return ErrNotClearable
		}
		delete(r.jobs, id)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	err := r.stores.Failed.Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Resolve finds the record a partial file most likely belongs to
func (r *registry) Resolve(filename string) types.ResolveResponse {
	history := fuzzy.Pool{Name: string(types.MatchSourceHistory)}
	for _, h := range r.stores.History.Incomplete() {
		history.Candidates = append(history.Candidates, fuzzy.Candidate{ID: h.ID, URL: h.URL, Title: h.Title})
	}
	failed := fuzzy.Pool{Name: string(types.MatchSourceFailed)}
	for _, rec := range r.stores.Failed.List() {
		failed.Candidates = append(failed.Candidates, fuzzy.Candidate{ID: rec.ID, URL: rec.URL, Title: rec.Title})
	}
	active := fuzzy.Pool{Name: string(types.MatchSourceActive)}
	for _, j := range r.Jobs() {
		active.Candidates = append(active.Candidates, fuzzy.Candidate{ID: j.ID, URL: j.URL, Title: j.Title})
	}

	m, ok := fuzzy.Best(filename, history, failed, active)
	if !ok {
		return types.ResolveResponse{Found: false, Message: "No matching download found"}
	}
	return types.ResolveResponse{
		Found:      true,
		Source:     types.MatchSource(m.Pool),
		ID:         m.Candidate.ID,
		URL:        m.Candidate.URL,
		Title:      m.Candidate.Title,
		Similarity: m.Score,
	}
}

// SweepStuck fails jobs that started but never left preparing
func (r *registry) SweepStuck() int {
	now := r.opts.Now()
	stuck := func(j types.Job) bool {
		return j.Status == types.JobStatusPreparing && !j.Queued && !j.StartTime.IsZero() &&
			now.Sub(j.StartTime) > r.opts.StuckTimeout
	}

	r.mu.Lock()
	var ids []string
	for id, e := range r.jobs {
		if stuck(e.job) {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	n := 0
	for _, id := range ids {
		if err := r.fail(id, 0, MsgStuck, stuck); err == nil {
			n++
		}
	}
	return n
}

// RetireFinished drops completed and cancelled jobs after the grace period
func (r *registry) RetireFinished() int {
	now := r.opts.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.jobs {
		if e.job.Status != types.JobStatusCompleted && e.job.Status != types.JobStatusCancelled {
			continue
		}
		if e.job.FinishedAt == nil || now.Sub(*e.job.FinishedAt) < r.opts.RetireAfter {
			continue
		}
		delete(r.jobs, id)
		n++
	}
	return n
}

// Shutdown stops every running task and waits for them. Jobs stay in the
// snapshot so the next start reconciles them.
func (r *registry) Shutdown() {
	r.cancel()
	r.wg.Wait()
}

// lookup returns the entry for id. A non-zero gen must match the entry.
// Callers hold r.mu.
func (r *registry) lookup(id string, gen int) (*entry, bool) {
	e, ok := r.jobs[id]
	if !ok || (gen != 0 && e.gen != gen) {
		return nil, false
	}
	return e, true
}

// persist rewrites the active snapshot from the in-progress jobs
func (r *registry) persist() {
	r.snapMu.Lock()
	defer r.snapMu.Unlock()

	r.mu.Lock()
	snaps := make([]types.JobSnapshot, 0, len(r.jobs))
	for _, e := range r.jobs {
		if e.job.Status.InProgress() {
			snaps = append(snaps, e.job.Snapshot())
		}
	}
	r.mu.Unlock()

	if err := r.stores.Snapshot.Save(snaps); err != nil {
		r.log.WithError(err).Warn("could not persist active downloads")
	}
}

func (r *registry) publish(kind string, job types.Job) {
	if r.pub == nil {
		return
	}
	r.pub.BroadcastProgress(types.NewProgressMessage(kind, job))
}
