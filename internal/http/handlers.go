package http

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"visitlog/internal/http/middleware"
	"visitlog/internal/pkg/clientip"
	"visitlog/internal/reports"
	"visitlog/internal/visits"
)

// Handlers holds the services the actions are bound to.
// Routes register its methods as handlers.
type Handlers struct {
	Visits  *visits.Service
	Reports *reports.Reporter
	DB      *gorm.DB
	DBPath  string
}

// NewHandlers binds the actions to svc, reporter and db.
func NewHandlers(svc *visits.Service, reporter *reports.Reporter, db *gorm.DB, dbPath string) *Handlers {
	return &Handlers{
		Visits:  svc,
		Reports: reporter,
		DB:      db,
		DBPath:  dbPath,
	}
}

// requestLogger returns the request's logger tagged with its request id.
func requestLogger(ctx *cartridge.Context) *slog.Logger {
	logger := ctx.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if id := middleware.GetRequestID(ctx.Ctx); id != "" {
		logger = logger.With(slog.String("request_id", id))
	}
	return logger
}

// requestContext collects what ingestion needs from the transport.
func requestContext(ctx *cartridge.Context) visits.RequestContext {
	return visits.RequestContext{
		AcceptLanguage: ctx.Get(fiber.HeaderAcceptLanguage),
		ForwardedFor:   ctx.Get(fiber.HeaderXForwardedFor),
		RealIP:         ctx.Get("X-Real-IP"),
		RemoteAddr:     clientip.RemoteAddr(ctx.Ctx),
	}
}

// respondError translates a service error into the HTTP error body.
// generic is the message shown for storage failures.
func respondError(ctx *cartridge.Context, err error, generic string) error {
	logger := requestLogger(ctx)

	var validationErr *visits.ValidationError
	var ioErr *visits.IOError
	var storageErr *visits.StorageError

	switch {
	case errors.As(err, &validationErr):
		logger.Debug("Rejected request", slog.Any("error", err))
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": sentence(validationErr.Err.Error()),
		})
	case errors.As(err, &ioErr):
		logger.Error("Backup failed", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Backup failed",
			"details": ioErr.Error(),
		})
	case errors.As(err, &storageErr):
		logger.Error(generic, slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": generic,
		})
	default:
		logger.Error("Unexpected error", slog.String("path", ctx.Path()), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

// Recover converts panics raised by an action into a generic 500.
func Recover(action func(*cartridge.Context) error) func(*cartridge.Context) error {
	return func(ctx *cartridge.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				requestLogger(ctx).Error("Panic recovered in handler",
					slog.String("path", ctx.Path()),
					slog.Any("panic", r))
				err = ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Internal server error",
				})
			}
		}()
		return action(ctx)
	}
}

func sentence(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
