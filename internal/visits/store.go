package visits

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"visitlog/internal/metrics"
)

// createdAtLayout matches SQLite's CURRENT_TIMESTAMP text format.
const createdAtLayout = "2006-01-02 15:04:05"

// Store is the storage gateway for the visits table.
type Store interface {
	InsertVisit(ctx context.Context, visit *Visit) (uint, error)
	UpdateLatestDuration(ctx context.Context, visitorID string, duration int) (int64, error)
	ListRecentVisits(ctx context.Context, limit int) ([]Visit, error)
	ComputeSummaryStats(ctx context.Context) (SummaryStats, error)
	CountAll(ctx context.Context) (int64, error)
	CountBy(ctx context.Context, column string) ([]GroupCount, error)
	Backup(ctx context.Context, destination string) error
	Path() string
}

// GormStore implements Store on top of a GORM SQLite connection.
type GormStore struct {
	db     *gorm.DB
	logger *slog.Logger
	path   string
}

var _ Store = (*GormStore)(nil)

// NewGormStore returns a store over db. path is the database file on disk and may be empty
// for in-memory databases, in which case Backup fails.
func NewGormStore(db *gorm.DB, logger *slog.Logger, path string) *GormStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormStore{db: db, logger: logger, path: path}
}

// Path returns the database file backing the store.
func (s *GormStore) Path() string {
	return s.path
}

// InsertVisit appends a row and returns its id.
func (s *GormStore) InsertVisit(ctx context.Context, visit *Visit) (uint, error) {
	if visit == nil || visit.VisitorID == "" || visit.Timestamp == "" {
		return 0, &StorageError{Op: "insert", Err: ErrMissingFields}
	}
	if visit.CreatedAt == "" {
		visit.CreatedAt = time.Now().UTC().Format(createdAtLayout)
	}
	visit.ID = 0

	defer metrics.ObserveStorage("insert", time.Now())

	err := sqlite.PerformWrite(s.logger, s.db.WithContext(ctx), func(tx *gorm.DB) error {
		return tx.Create(visit).Error
	})
	if err != nil {
		s.logger.Error("Failed to insert visit", slog.String("visitor_id", visit.VisitorID), slog.Any("error", err))
		return 0, &StorageError{Op: "insert", Err: err}
	}

	return visit.ID, nil
}

// UpdateLatestDuration sets the duration of the newest page view of a visitor.
// Newest means the greatest timestamp, with the greatest id winning ties.
// The row is selected and updated in one statement inside the write transaction.
func (s *GormStore) UpdateLatestDuration(ctx context.Context, visitorID string, duration int) (int64, error) {
	defer metrics.ObserveStorage("update_duration", time.Now())

	var updated int64
	err := sqlite.PerformWrite(s.logger, s.db.WithContext(ctx), func(tx *gorm.DB) error {
		result := tx.Exec(`UPDATE visits SET duration = ?
			WHERE id = (
				SELECT id FROM visits
				WHERE visitor_id = ? AND event_type = ?
				ORDER BY timestamp DESC, id DESC
				LIMIT 1
			)`, duration, visitorID, EventTypePageView)
		if result.Error != nil {
			return result.Error
		}
		updated = result.RowsAffected
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update duration", slog.String("visitor_id", visitorID), slog.Any("error", err))
		return 0, &StorageError{Op: "update duration", Err: err}
	}

	return updated, nil
}

// ListRecentVisits returns up to limit rows, newest timestamp first.
func (s *GormStore) ListRecentVisits(ctx context.Context, limit int) ([]Visit, error) {
	defer metrics.ObserveStorage("list_recent", time.Now())

	var rows []Visit
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, &StorageError{Op: "list recent visits", Err: err}
	}
	return rows, nil
}

// ComputeSummaryStats aggregates the whole table into one row.
func (s *GormStore) ComputeSummaryStats(ctx context.Context) (SummaryStats, error) {
	defer metrics.ObserveStorage("summary_stats", time.Now())

	var stats SummaryStats
	err := s.db.WithContext(ctx).Raw(`SELECT
			COUNT(*) AS total_visits,
			COUNT(DISTINCT visitor_id) AS unique_visitors,
			COALESCE(AVG(duration), 0) AS avg_duration,
			COALESCE(SUM(CASE WHEN device_type = ? THEN 1 ELSE 0 END), 0) AS mobile_visits,
			COALESCE(SUM(CASE WHEN device_type = ? THEN 1 ELSE 0 END), 0) AS desktop_visits
		FROM visits`, string(DeviceMobile), string(DeviceDesktop)).
		Scan(&stats).Error
	if err != nil {
		return SummaryStats{}, &StorageError{Op: "summary stats", Err: err}
	}
	return stats, nil
}

// CountAll returns the number of rows.
func (s *GormStore) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Visit{}).Count(&count).Error; err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return count, nil
}

// groupableColumns guards CountBy against arbitrary SQL.
var groupableColumns = map[string]bool{
	"device_type": true,
	"language":    true,
	"country":     true,
	"event_type":  true,
	"referrer":    true,
}

// CountBy counts rows per distinct value of column, largest bucket first.
func (s *GormStore) CountBy(ctx context.Context, column string) ([]GroupCount, error) {
	if !groupableColumns[column] {
		return nil, &StorageError{Op: "count by", Err: fmt.Errorf("column %q cannot be grouped", column)}
	}

	var rows []GroupCount
	err := s.db.WithContext(ctx).
		Model(&Visit{}).
		Select(column + " AS name, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Order("name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, &StorageError{Op: "count by " + column, Err: err}
	}
	return rows, nil
}

// Backup checkpoints the WAL and copies the database file to destination.
func (s *GormStore) Backup(ctx context.Context, destination string) error {
	if s.path == "" {
		return &IOError{Op: "backup", Err: errors.New("store is not backed by a file")}
	}

	// Fold the WAL into the main file so the copy is complete.
	if err := s.db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(FULL)").Error; err != nil {
		s.logger.Warn("Failed to checkpoint WAL before backup", slog.Any("error", err))
	}

	if err := copyFile(s.path, destination); err != nil {
		s.logger.Error("Backup failed", slog.String("source", s.path), slog.String("destination", destination), slog.Any("error", err))
		return err
	}

	s.logger.Info("Database backed up", slog.String("source", s.path), slog.String("destination", destination))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &IOError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(dst), Err: err}
	}

	out, err := os.Create(dst)
	if err != nil {
		return &IOError{Op: "create", Path: dst, Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return &IOError{Op: "copy", Path: dst, Err: err}
	}

	if err := out.Close(); err != nil {
		return &IOError{Op: "close", Path: dst, Err: err}
	}
	return nil
}
