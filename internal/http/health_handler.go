package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"
)

// HealthStatus is the /health body. Status stays "ok" while the process
// serves requests; DBStatus reports the database on its own.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
}

var errNoConnection = errors.New("database connection unavailable")

func pingDatabase(db *gorm.DB) error {
	if db == nil {
		return errNoConnection
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// HealthIndexAction handles GET and HEAD /health
func HealthIndexAction(ctx *cartridge.Context) error {
	health := HealthStatus{Status: "ok", Timestamp: time.Now().UTC(), DBStatus: "ok"}

	if err := pingDatabase(ctx.DBManager.GetConnection()); err != nil {
		health.DBStatus = "error"
		requestLogger(ctx).Error("Health check database ping failed", slog.Any("error", err))
	}

	return ctx.JSON(health)
}
