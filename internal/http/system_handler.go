package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/karloscodes/cartridge"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"visitlog/internal/database"
)

// StatusIndexAction handles GET /api/status
func (h *Handlers) StatusIndexAction(ctx *cartridge.Context) error {
	status, err := h.Reports.GetStatus(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err, "Failed to fetch status")
	}
	return ctx.JSON(status)
}

// BackupCreateAction handles GET /api/backup
func (h *Handlers) BackupCreateAction(ctx *cartridge.Context) error {
	result, err := h.Reports.TriggerBackup(ctx.UserContext())
	if err != nil {
		return respondError(ctx, err, "Backup failed")
	}

	requestLogger(ctx).Info("Backup requested", slog.String("path", result.BackupPath))
	return ctx.JSON(fiber.Map{
		"success":    true,
		"backupPath": result.BackupPath,
	})
}

// TestDBAction handles GET /api/test-db, a connectivity diagnostic.
func (h *Handlers) TestDBAction(ctx *cartridge.Context) error {
	db := h.DB.WithContext(ctx.UserContext())

	version, err := database.SQLiteVersion(db)
	if err != nil {
		requestLogger(ctx).Error("Database connection test failed", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database connection failed",
			"details": err.Error(),
		})
	}

	tables, err := database.TableNames(db)
	if err != nil {
		requestLogger(ctx).Error("Failed to list tables", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Database connection failed",
			"details": err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{
		"status":  "connected",
		"version": version,
		"tables":  tables,
		"dbPath":  h.DBPath,
	})
}

var metricsHandler = adaptor.HTTPHandler(promhttp.Handler())

// MetricsIndexAction exposes the Prometheus registry.
func MetricsIndexAction(ctx *cartridge.Context) error {
	return metricsHandler(ctx.Ctx)
}
