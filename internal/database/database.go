package database

import (
	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"visitlog/internal/config"
	"visitlog/internal/visits"
)

// DBManager wraps cartridge's sqlite.Manager with the visits schema.
type DBManager struct {
	*sqlite.Manager
	logger *slog.Logger
	path   string
}

// NewDBManager creates a new database manager using cartridge's sqlite.Manager.
func NewDBManager(cfg *config.Config, logger *slog.Logger) *DBManager {
	sqliteCfg := sqlite.Config{
		Path:         cfg.DatabaseName,
		MaxOpenConns: cfg.GetMaxOpenConns(),
		MaxIdleConns: cfg.GetMaxIdleConns(),
		Logger:       logger,
		EnableWAL:    true,
		TxImmediate:  true,
		BusyTimeout:  5000,
	}

	return &DBManager{
		Manager: sqlite.NewManager(sqliteCfg),
		logger:  logger,
		path:    cfg.DatabaseName,
	}
}

// Path returns the database file the manager opens.
func (dm *DBManager) Path() string {
	return dm.path
}

// Init initializes the database connection.
func (dm *DBManager) Init() error {
	_, err := dm.Manager.Connect()
	return err
}

// MigrateDatabase creates the visits table and its indexes if they do not exist.
// Existing rows are never modified.
func (dm *DBManager) MigrateDatabase() error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	if err := Migrate(db); err != nil {
		dm.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	if err := dm.CheckpointWAL("FULL"); err != nil {
		dm.logger.Warn("Failed to checkpoint WAL after migration", slog.Any("error", err))
	}

	dm.logger.Info("Database migration completed successfully", slog.String("path", dm.path))
	return nil
}

// Migrate applies the schema to db inside a transaction.
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(&visits.Visit{})
	})
}

// TableNames lists the user tables of db, used by the diagnostics endpoint.
func TableNames(db *gorm.DB) ([]string, error) {
	var names []string
	err := db.Raw("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name").
		Scan(&names).Error
	return names, err
}

// SQLiteVersion returns the engine version string.
func SQLiteVersion(db *gorm.DB) (string, error) {
	var version string
	err := db.Raw("SELECT sqlite_version()").Scan(&version).Error
	return version, err
}
