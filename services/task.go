package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"vidsnatch/engine"
	"vidsnatch/logger"
	"vidsnatch/types"
)

// task identifies one run of a job. A retry starts a new generation, so
// events from an older run are dropped.
type task struct {
	id    string
	gen   int
	latch <-chan struct{}
	stop  context.CancelFunc
}

type outcome struct {
	res engine.Result
	err error
}

// run drives the engine for one job until it ends
func (r *registry) run(ctx context.Context, t task) {
	defer r.wg.Done()
	defer t.stop()

	log := r.log.WithField(logger.FieldJobID, t.id)

	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.finish(t, outcome{err: engine.ErrCancelled})
			return
		}
		defer r.sem.Release(1)
	}

	req, ok := r.begin(t)
	if !ok {
		r.finish(t, outcome{err: engine.ErrCancelled})
		return
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		r.finish(t, outcome{err: engine.Transfer(err)})
		return
	}

	events := make(chan engine.Event)
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.WithField("panic", p).Error("engine panicked")
				done <- outcome{err: fmt.Errorf("engine panic: %v", p)}
			}
		}()
		res, err := r.engine.Download(ctx, req, events)
		done <- outcome{res: res, err: err}
	}()

	latch := t.latch
	for {
		select {
		case ev := <-events:
			if err := r.progress(t.id, t.gen, ev); errors.Is(err, ErrNotFound) {
				// deleted or retried elsewhere
				t.stop()
			}
		case <-latch:
			log.Debug("cancel latch observed, stopping engine")
			t.stop()
			latch = nil
		case out := <-done:
			r.finish(t, out)
			return
		}
	}
}

// begin takes the job out of the queue and builds the engine request
func (r *registry) begin(t task) (engine.Request, bool) {
	now := r.opts.Now()

	r.mu.Lock()
	e, ok := r.lookup(t.id, t.gen)
	if !ok || e.job.Cancelled || e.job.Status != types.JobStatusPreparing {
		r.mu.Unlock()
		return engine.Request{}, false
	}
	e.job.Queued = false
	e.job.StartTime = now
	job := e.job
	r.mu.Unlock()

	if job.HistoryID != "" {
		if err := r.stores.History.MarkAttempting(job.HistoryID, now); err != nil {
			r.log.WithError(err).WithField(logger.FieldJobID, t.id).Warn("could not update history")
		}
	}
	r.persist()
	r.publish("status", job)

	r.log.WithFields(logger.Fields{logger.FieldJobID: t.id, logger.FieldURL: job.URL}).Info("download started")
	return engine.Request{
		URL:       job.URL,
		OutputDir: r.opts.DownloadDir(),
		Template:  r.opts.OutputTemplate,
		Options:   engine.OptionsFor(job.URL),
	}, true
}

// finish maps the engine outcome onto the job state machine
func (r *registry) finish(t task, out outcome) {
	r.mu.Lock()
	e, ok := r.lookup(t.id, t.gen)
	if !ok {
		r.mu.Unlock()
		return
	}
	userCancelled := e.job.Cancelled
	r.mu.Unlock()

	switch {
	case out.err == nil:
		if err := r.complete(t.id, t.gen, out.res); err != nil && userCancelled {
			r.cancelled(t.id, t.gen)
		}
	case userCancelled:
		r.cancelled(t.id, t.gen)
	case r.ctx.Err() != nil:
		// shutting down; the snapshot keeps the job for the next start
	default:
		r.fail(t.id, t.gen, FailureMessage(out.err), nil)
	}
}
