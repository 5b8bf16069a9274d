package services

import (
	"context"
	"time"

	"vidsnatch/logger"
	"vidsnatch/store"
)

// Monitor periodically fails jobs stuck in preparing
type Monitor struct {
	reg      Registry
	interval time.Duration
	log      *logger.Logger
}

// NewMonitor creates a stuck-job monitor
func NewMonitor(reg Registry, interval time.Duration, log *logger.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	return &Monitor{reg: reg, interval: interval, log: log.Component("monitor")}
}

// Run sweeps once immediately and then every interval until ctx is done
func (m *Monitor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m.RunOnce()

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
	}
}

// RunOnce performs one sweep and returns the number of jobs failed
func (m *Monitor) RunOnce() int {
	n := m.reg.SweepStuck()
	if n > 0 {
		m.log.WithField(logger.FieldCount, n).Warn("failed stuck downloads")
	}
	return n
}

// Janitor retires finished jobs and prunes old history entries
type Janitor struct {
	reg       Registry
	history   *store.HistoryStore
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	log       *logger.Logger
}

// NewJanitor creates the retirement loop. A zero retention keeps history forever.
func NewJanitor(reg Registry, history *store.HistoryStore, interval, retention time.Duration, log *logger.Logger) *Janitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	return &Janitor{
		reg:       reg,
		history:   history,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		log:       log.Component("janitor"),
	}
}

// Run retires jobs every interval until ctx is done
func (j *Janitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(j.interval):
		}

		j.RunOnce()
	}
}

// RunOnce retires finished jobs and removes expired history entries
func (j *Janitor) RunOnce() {
	if n := j.reg.RetireFinished(); n > 0 {
		j.log.WithField(logger.FieldCount, n).Debug("retired finished downloads")
	}
	if j.history == nil || j.retention <= 0 {
		return
	}
	n, err := j.history.CleanupCompleted(j.now().Add(-j.retention))
	if err != nil {
		j.log.WithError(err).Warn("history cleanup failed")
		return
	}
	if n > 0 {
		j.log.WithField(logger.FieldCount, n).Info("removed old history entries")
	}
}
