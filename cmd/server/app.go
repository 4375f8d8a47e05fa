package main

import (
	"fmt"

	"go.uber.org/zap"

	"heropage/internal/config"
	"heropage/internal/domain"
	"heropage/internal/logging"
	"heropage/internal/metrics"
	"heropage/internal/repository/sqlite"
	"heropage/internal/service"
)

// app holds what every command needs
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog *sqlite.Catalog
	metrics *metrics.Metrics
	bus     *service.EventBus
}

// newApp loads config, builds the logger and opens the catalog
func newApp() (*app, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Info("loaded config", zap.String("path", path))
	} else {
		logger.Info("no config file found, using defaults", zap.Strings("searched", config.SearchPaths()))
	}

	catalog, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		bus:     service.NewEventBus(),
	}
	if !cfg.Metrics.Disabled {
		a.metrics = metrics.New()
	}
	return a, nil
}

// content returns the hero content adjusted by config
func (a *app) content() domain.Content {
	content := domain.DefaultContent()
	if a.cfg.Images.MaxWidth > 0 {
		content.PortraitMax = a.cfg.Images.MaxWidth
	}
	return content
}

// sessionManager creates the session manager. Tooltip machines run on the
// content's transition duration, the same one the stylesheet animates with.
func (a *app) sessionManager(content domain.Content, opts ...service.SessionOption) *service.SessionManager {
	opts = append([]service.SessionOption{
		service.WithTransition(content.TransitionDuration),
		service.WithMaxSessions(a.cfg.Sessions.MaxSessions),
		service.WithSessionLogger(a.logger.Named("sessions")),
		service.WithSessionMetrics(a.metrics),
	}, opts...)
	return service.NewSessionManager(a.bus, opts...)
}

// heroService wires the hero service over the catalog
func (a *app) heroService(content domain.Content, sessions *service.SessionManager) (*service.HeroService, error) {
	return service.NewHeroService(content, a.catalog, sessions,
		service.WithCatalog(a.catalog),
		service.WithImageURLs(a.cfg.Images.URLPrefix, a.cfg.Images.MaxWidth),
		service.WithEventBus(a.bus),
		service.WithHeroLogger(a.logger.Named("hero")),
		service.WithHeroMetrics(a.metrics),
	)
}

func (a *app) close() {
	if err := a.catalog.Close(); err != nil {
		a.logger.Warn("failed to close catalog", zap.Error(err))
	}
	_ = a.logger.Sync()
}
