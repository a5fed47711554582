// Package reports answers the read-side questions about recorded visits.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"visitlog/internal/metrics"
	"visitlog/internal/visits"
)

// Status is the liveness summary served by /api/status.
type Status struct {
	Status        string  `json:"status"`
	VisitsCount   int64   `json:"visitsCount"`
	DBPath        string  `json:"dbPath"`
	UptimeSeconds float64 `json:"uptime"`
}

// BackupResult names the file a backup was written to.
type BackupResult struct {
	BackupPath string `json:"backupPath"`
}

// Options configures a Reporter.
type Options struct {
	RecentLimit int
	BackupDir   string
	StartedAt   time.Time
}

// Reporter serves recent visits, aggregates and backups from a Store.
type Reporter struct {
	store       visits.Store
	logger      *slog.Logger
	recentLimit int
	backupDir   string
	startedAt   time.Time
	now         func() time.Time
}

// NewReporter returns a Reporter reading from store.
func NewReporter(store visits.Store, logger *slog.Logger, opts Options) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RecentLimit <= 0 || opts.RecentLimit > MaxRecentVisits {
		opts.RecentLimit = MaxRecentVisits
	}
	if opts.BackupDir == "" && store.Path() != "" {
		opts.BackupDir = filepath.Dir(store.Path())
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	return &Reporter{
		store:       store,
		logger:      logger,
		recentLimit: opts.RecentLimit,
		backupDir:   opts.BackupDir,
		startedAt:   opts.StartedAt,
		now:         time.Now,
	}
}

// MaxRecentVisits caps GetRecentVisits.
const MaxRecentVisits = 1000

// GetRecentVisits returns up to the configured limit of visits, newest first.
func (r *Reporter) GetRecentVisits(ctx context.Context) ([]visits.Visit, error) {
	return r.store.ListRecentVisits(ctx, r.recentLimit)
}

// GetStats returns the aggregate over the whole table.
func (r *Reporter) GetStats(ctx context.Context) (visits.SummaryStats, error) {
	return r.store.ComputeSummaryStats(ctx)
}

// GetStatus reports the row count and process uptime.
func (r *Reporter) GetStatus(ctx context.Context) (Status, error) {
	count, err := r.store.CountAll(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Status:        "ok",
		VisitsCount:   count,
		DBPath:        r.store.Path(),
		UptimeSeconds: r.now().Sub(r.startedAt).Seconds(),
	}, nil
}

// BackupFileName returns the name used for a backup taken at t.
func BackupFileName(t time.Time) string {
	return fmt.Sprintf("analytics-backup-%d.db", t.UnixMilli())
}

// TriggerBackup copies the database file into the backup directory.
func (r *Reporter) TriggerBackup(ctx context.Context) (BackupResult, error) {
	if r.backupDir == "" {
		metrics.Backups.WithLabelValues("failed").Inc()
		return BackupResult{}, &visits.IOError{Op: "backup", Err: fmt.Errorf("no backup directory for in-memory store")}
	}

	destination := filepath.Join(r.backupDir, BackupFileName(r.now()))
	if err := r.store.Backup(ctx, destination); err != nil {
		metrics.Backups.WithLabelValues("failed").Inc()
		return BackupResult{}, err
	}

	metrics.Backups.WithLabelValues("ok").Inc()
	r.logger.Info("Backup created", slog.String("path", destination))
	return BackupResult{BackupPath: destination}, nil
}
