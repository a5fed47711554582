package jobs

import (
	"context"
	"log/slog"

	"visitlog/internal/reports"
)

// BackupTrigger takes a database backup.
type BackupTrigger interface {
	TriggerBackup(ctx context.Context) (reports.BackupResult, error)
}

// BackupJob copies the database file on every run.
type BackupJob struct {
	backups BackupTrigger
	logger  *slog.Logger
}

func NewBackupJob(backups BackupTrigger, logger *slog.Logger) *BackupJob {
	return &BackupJob{backups: backups, logger: logger}
}

func (j *BackupJob) Name() string { return "backup" }

// Run takes one backup.
func (j *BackupJob) Run(ctx context.Context) error {
	result, err := j.backups.TriggerBackup(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("Scheduled backup completed", slog.String("path", result.BackupPath))
	return nil
}
