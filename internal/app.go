// Package internal wires the visitlog application together.
package internal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"

	"visitlog/internal/config"
	"visitlog/internal/database"
	"visitlog/internal/jobs"
	"visitlog/internal/pkg/geoip"
)

// Application wraps cartridge.Application with visitlog-specific components
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager
	Services  *Services
	Geo       *geoip.Locator
	Logger    *slog.Logger
}

// NewServerConfig returns cartridge's defaults with the global Sec-Fetch-Site
// check disabled. Beacons arrive cross-site, and curl-style clients send no
// header at all, which that check always rejects.
func NewServerConfig() *cartridge.ServerConfig {
	serverCfg := cartridge.DefaultServerConfig()
	serverCfg.EnableSecFetchSite = false
	return serverCfg
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Always wired: a Locator without a database answers "" until Reload finds one.
	geo := geoip.Open(cfg.GeoDBPath, logger)
	services := NewServices(cfg, dbManager.GetConnection(), logger, geo, time.Now())

	scheduler := jobs.NewScheduler(services.Reports, logger, time.Duration(cfg.BackupIntervalSeconds)*time.Second)

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:            cfg,
		Logger:            logger,
		DBManager:         dbManager,
		ServerConfig:      NewServerConfig(),
		RouteMountFunc:    RouteMounter(cfg, services),
		BackgroundWorkers: []cartridge.BackgroundWorker{scheduler},
	})
	if err != nil {
		geo.Close()
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
		Services:    services,
		Geo:         geo,
		Logger:      logger,
	}, nil
}
