package internal

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"
	"gorm.io/gorm"

	"visitlog/internal/config"
	"visitlog/internal/http"
	"visitlog/internal/http/middleware"
	"visitlog/internal/reports"
	"visitlog/internal/visits"
)

// publicCORSConfig lets any site send beacons and read the API.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent, X-Request-ID",
}

// Services are the components the routes bind their handlers to.
type Services struct {
	Visits  *visits.Service
	Reports *reports.Reporter
	DB      *gorm.DB
	DBPath  string
}

// NewServices builds the ingestion and reporting services over db.
// countries may be nil to skip country enrichment.
func NewServices(cfg *config.Config, db *gorm.DB, logger *slog.Logger, countries visits.CountryLookup, startedAt time.Time) *Services {
	store := visits.NewGormStore(db, logger, cfg.GetDatabasePath())

	var opts []visits.Option
	if countries != nil {
		opts = append(opts, visits.WithCountryLookup(countries))
	}

	return &Services{
		Visits: visits.NewService(store, logger, opts...),
		Reports: reports.NewReporter(store, logger, reports.Options{
			RecentLimit: cfg.GetRecentVisitsLimit(),
			BackupDir:   cfg.GetBackupDirectory(),
			StartedAt:   startedAt,
		}),
		DB:     db,
		DBPath: cfg.GetDatabasePath(),
	}
}

// MountAppRoutes mounts all routes with services built from the server's
// database connection.
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()
	services := NewServices(cfg, srv.GetDBManager().GetConnection(), srv.GetLogger(), nil, time.Now())
	MountRoutes(srv, cfg, services)
}

// RouteMounter returns a mount function bound to services.
func RouteMounter(cfg *config.Config, services *Services) func(*cartridge.Server) {
	return func(srv *cartridge.Server) {
		MountRoutes(srv, cfg, services)
	}
}

// MountRoutes registers every endpoint on srv.
func MountRoutes(srv *cartridge.Server, cfg *config.Config, services *Services) {
	handlers := http.NewHandlers(services.Visits, services.Reports, services.DB, services.DBPath)

	// Rate limiting only applies in production; in development and test it
	// would interfere with local tooling.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	ingestRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(cfg.RateLimitPerMinute),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	requestID := middleware.RequestID()

	// Beacons: CORS + rate limiting. No Sec-Fetch-Site check, pixels and
	// sendBeacon calls do not always carry it.
	ingestConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         publicCORSConfig,
		WriteConcurrency:   false,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{requestID, ingestRateLimiter},
	}

	// Read API used by the dashboard and operators.
	apiConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         publicCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{requestID},
	}

	pageConfig := &cartridge.RouteConfig{
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{requestID},
	}

	preflight := func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}

	// === PAGES ===
	srv.Get("/", http.HomeIndexAction, pageConfig)
	srv.Get("/dashboard", http.DashboardIndexAction, pageConfig)

	// === HEALTH ===
	srv.Get("/health", http.HealthIndexAction, pageConfig)
	srv.Head("/health", http.HealthIndexAction, pageConfig)
	srv.Get("/metrics", http.MetricsIndexAction, pageConfig)

	// === INGESTION ===
	srv.Post("/api/track", http.Recover(handlers.TrackCreateAction), ingestConfig)
	srv.Options("/api/track", preflight, ingestConfig)
	srv.Get("/api/track-pixel", http.Recover(handlers.TrackPixelAction), ingestConfig)
	srv.Options("/api/track-pixel", preflight, ingestConfig)
	srv.Post("/api/update-duration", http.Recover(handlers.UpdateDurationAction), ingestConfig)
	srv.Options("/api/update-duration", preflight, ingestConfig)

	// === REPORTING ===
	srv.Get("/api/analytics/visits", http.Recover(handlers.VisitsIndexAction), apiConfig)
	srv.Get("/api/stats", http.Recover(handlers.StatsIndexAction), apiConfig)
	srv.Get("/api/stats/breakdown", http.Recover(handlers.StatsBreakdownAction), apiConfig)

	// === SYSTEM ===
	srv.Get("/api/status", http.Recover(handlers.StatusIndexAction), apiConfig)
	srv.Get("/api/backup", http.Recover(handlers.BackupCreateAction), apiConfig)
	srv.Get("/api/test-db", http.Recover(handlers.TestDBAction), apiConfig)
}
