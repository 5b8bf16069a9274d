package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vidsnatch/engine"
	"vidsnatch/logger"
	"vidsnatch/store"
	"vidsnatch/types"
)

const waitFor = 2 * time.Second

// clock is a manually advanced time source
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recorder keeps every published message
type recorder struct {
	mu   sync.Mutex
	msgs []types.ProgressMessage
}

func (r *recorder) BroadcastProgress(msg types.ProgressMessage) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) has(kind string, status types.JobStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.Type == kind && m.Status == status {
			return true
		}
	}
	return false
}

type fixture struct {
	reg    *registry
	stores *store.Stores
	dir    string
	pub    *recorder
	calls  *atomic.Int32
}

// newFixture wires a registry over fresh JSON stores. The engine is
// wrapped so calls are counted.
func newFixture(t *testing.T, eng engine.Func, opts Options) *fixture {
	t.Helper()

	stores, err := store.Open(store.BackendJSON, t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		stores: stores,
		dir:    t.TempDir(),
		pub:    &recorder{},
		calls:  &atomic.Int32{},
	}
	if opts.DownloadDir == nil {
		opts.DownloadDir = func() string { return f.dir }
	}
	counted := engine.Func(func(ctx context.Context, req engine.Request, events chan<- engine.Event) (engine.Result, error) {
		f.calls.Add(1)
		return eng(ctx, req, events)
	})

	log := logger.Discard()
	f.reg = NewRegistry(stores, counted, NewFileService(stores.Files, log), f.pub, log, opts).(*registry)
	t.Cleanup(func() {
		f.reg.Shutdown()
		_ = stores.Close()
	})
	return f
}

func (f *fixture) submit(t *testing.T, rawURL string) string {
	t.Helper()
	resp, err := f.reg.Submit(types.SubmitRequest{URL: rawURL})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.DownloadID)
	return resp.DownloadID
}

func (f *fixture) waitStatus(t *testing.T, id string, status types.JobStatus) types.Job {
	t.Helper()
	require.Eventually(t, func() bool {
		job, ok := f.reg.Get(id)
		return ok && job.Status == status
	}, waitFor, 5*time.Millisecond, "job %s never reached %s", id, status)
	job, _ := f.reg.Get(id)
	return job
}

func (f *fixture) waitStarted(t *testing.T, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		job, ok := f.reg.Get(id)
		return ok && !job.Queued && !job.StartTime.IsZero()
	}, waitFor, 5*time.Millisecond)
}

func (f *fixture) waitFailed(t *testing.T, id string) types.FailedRecord {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := f.stores.Failed.Get(id)
		return ok
	}, waitFor, 5*time.Millisecond, "job %s never reached the failed store", id)
	rec, _ := f.stores.Failed.Get(id)
	return rec
}

// waitPublished waits for a message, which is sent after the stores are updated
func (f *fixture) waitPublished(t *testing.T, kind string, status types.JobStatus) {
	t.Helper()
	require.Eventually(t, func() bool { return f.pub.has(kind, status) }, waitFor, 5*time.Millisecond,
		"no %s message with status %s", kind, status)
}

func (f *fixture) touch(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte("partial"), 0o644))
}

// finishingEngine reports progress, writes title.mp4 and succeeds
func finishingEngine(title string) engine.Func {
	return func(ctx context.Context, req engine.Request, events chan<- engine.Event) (engine.Result, error) {
		events <- engine.Event{Status: engine.EventDownloading, DownloadedBytes: 25, TotalBytes: 100, Speed: "1.00MiB/s", ETA: "00:03", Title: title}
		events <- engine.Event{Status: engine.EventFinished, Title: title}

		name := filepath.Join(req.OutputDir, title+".mp4")
		if err := os.WriteFile(name, []byte("video"), 0o644); err != nil {
			return engine.Result{}, engine.Transfer(err)
		}
		return engine.Result{Filename: name, Title: title}, nil
	}
}

// blockingEngine reports half progress and then waits to be stopped
func blockingEngine(ctx context.Context, req engine.Request, events chan<- engine.Event) (engine.Result, error) {
	select {
	case events <- engine.Event{Status: engine.EventDownloading, DownloadedBytes: 50, TotalBytes: 100, Speed: "2.00MiB/s", ETA: "00:01"}:
	case <-ctx.Done():
		return engine.Result{}, engine.ErrCancelled
	}
	<-ctx.Done()
	return engine.Result{}, engine.ErrCancelled
}

// idleEngine never reports anything
func idleEngine(ctx context.Context, req engine.Request, events chan<- engine.Event) (engine.Result, error) {
	<-ctx.Done()
	return engine.Result{}, ctx.Err()
}

func failingEngine(err error) engine.Func {
	return func(ctx context.Context, req engine.Request, events chan<- engine.Event) (engine.Result, error) {
		return engine.Result{}, err
	}
}
