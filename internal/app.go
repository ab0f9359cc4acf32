package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"vitrine/internal/admin"
	"vitrine/internal/config"
	"vitrine/internal/database"
	"vitrine/internal/jobs"
	"vitrine/internal/pkg/geoip"
	"vitrine/internal/tracker"
)

// Application wraps cartridge.Application with vitrine-specific components
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager
	Hub       *admin.Hub
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	geoip.InitLogger(logger)

	// The tracker records visitor events; outside production it accepts
	// calls but stores nothing.
	tracker.SetDefault(tracker.New(dbManager, logger, tracker.NewRegistry(tracker.DefaultSessionTTL), cfg.IsProduction()))

	// The hub keeps the admin dashboard in sync with the database.
	hub := admin.NewHub(dbManager, logger)
	admin.SetDefault(hub)

	scheduler, err := jobs.NewScheduler(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:            cfg,
		Logger:            logger,
		DBManager:         dbManager,
		RouteMountFunc:    MountAppRoutes,
		BackgroundWorkers: []cartridge.BackgroundWorker{scheduler, hub},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
		Hub:         hub,
	}, nil
}
