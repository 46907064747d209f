package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/common"
	"github.com/ternarybob/reditus/internal/handlers"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/services/connect"
	"github.com/ternarybob/reditus/internal/services/continuity"
	"github.com/ternarybob/reditus/internal/services/events"
	"github.com/ternarybob/reditus/internal/services/providers"
	"github.com/ternarybob/reditus/internal/services/sessions"
	"github.com/ternarybob/reditus/internal/services/trust"
	"github.com/ternarybob/reditus/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	Feed              *events.Feed
	TrustService      interfaces.TrustService
	ContinuityService interfaces.ContinuityService
	ConnectService    interfaces.ConnectService
	ProviderCatalog   interfaces.ProviderCatalog
	SessionService    *sessions.Service

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	WindowHandler     *handlers.WindowHandler
	ConnectHandler    *handlers.ConnectHandler
	ContinuityHandler *handlers.ContinuityHandler
	SessionHandler    *handlers.SessionHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	sessionStorage := storageManager.SessionStorage()

	// Message feed first; the window transport publishes into it and the
	// connect coordinator subscribes from it
	app.Feed = events.NewFeed(logger)

	app.SessionService = sessions.NewService(sessionStorage, &cfg.Sessions, logger)
	app.TrustService = trust.NewService(sessionStorage, cfg.Connect.OwnOrigin, logger)
	app.ContinuityService = continuity.NewService(sessionStorage, logger)

	catalog := providers.NewCatalog(logger)
	if cfg.Providers.DefinitionsDir != "" {
		if err := catalog.LoadFromDir(cfg.Providers.DefinitionsDir); err != nil {
			logger.Warn().Err(err).Str("dir", cfg.Providers.DefinitionsDir).Msg("Failed to load provider definitions")
		}
	}
	app.ProviderCatalog = catalog

	// Window transport doubles as the WindowOpener for connect flows
	app.WindowHandler = handlers.NewWindowHandler(app.Feed, app.SessionService, &cfg.Connect, logger)

	app.ConnectService = connect.NewService(app.TrustService, app.Feed, app.WindowHandler, &cfg.Connect, logger)

	app.APIHandler = handlers.NewAPIHandler()
	app.ConnectHandler = handlers.NewConnectHandler(app.ConnectService, app.ProviderCatalog, app.SessionService, logger)
	app.ContinuityHandler = handlers.NewContinuityHandler(app.ContinuityService, app.SessionService, logger)
	app.SessionHandler = handlers.NewSessionHandler(app.SessionService, logger)

	if err := app.SessionService.StartSweeper(); err != nil {
		return nil, fmt.Errorf("failed to start session sweeper: %w", err)
	}

	logger.Info().Msg("Application initialized")
	return app, nil
}

// Shutdown stops background work and releases storage
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application...")

	a.SessionService.Stop()

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
