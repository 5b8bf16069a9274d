package services

import (
	"errors"
	"time"

	"vidsnatch/logger"
	"vidsnatch/store"
)

// RecoveryReport summarizes startup reconciliation
type RecoveryReport struct {
	// Interrupted is the number of snapshot jobs moved to the failed store
	Interrupted int
	// HistoryFailed is the number of history entries marked failed
	HistoryFailed int
}

// Recover reconciles the state left by a previous process. Jobs found in
// the active snapshot are never resumed: each becomes a failed record and
// the snapshot is cleared. History entries still pending or downloading
// are marked failed. Store errors are collected and returned, but every
// step still runs.
func Recover(stores *store.Stores, now time.Time, log *logger.Logger) (RecoveryReport, error) {
	if log == nil {
		log = logger.Default()
	}
	log = log.Component("recovery")

	var (
		report RecoveryReport
		errs   []error
	)

	for _, snap := range stores.Snapshot.All() {
		rec := store.NewFailedRecord(snap.ID, snap.URL, snap.Title, MsgInterrupted, snap.RetryCount, snap.OpenFolder, now)
		if _, err := stores.Failed.Record(rec); err != nil {
			errs = append(errs, err)
		}
		report.Interrupted++
		log.WithFields(logger.Fields{
			logger.FieldJobID:  snap.ID,
			logger.FieldURL:    snap.URL,
			logger.FieldStatus: snap.Status,
		}).Warn("download interrupted by restart")
	}
	if err := stores.Snapshot.Clear(); err != nil {
		errs = append(errs, err)
	}

	n, err := stores.History.MarkInterrupted(MsgHistoryRestart)
	if err != nil {
		errs = append(errs, err)
	}
	report.HistoryFailed = n

	log.WithFields(logger.Fields{
		"interrupted":    report.Interrupted,
		"history_failed": report.HistoryFailed,
	}).Info("startup reconciliation finished")
	return report, errors.Join(errs...)
}
