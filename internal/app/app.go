package app

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/templui/travelmap/internal/config"
	"github.com/templui/travelmap/internal/db"
	"github.com/templui/travelmap/internal/photo"
	"github.com/templui/travelmap/internal/repository"
	"github.com/templui/travelmap/internal/service"
	"github.com/templui/travelmap/internal/session"
	"github.com/templui/travelmap/internal/storage"
)

type App struct {
	Cfg                *config.Config
	DB                 *sqlx.DB
	Sessions           session.Store
	Pipeline           *photo.Pipeline
	AuthService        *service.AuthService
	LocationService    *service.LocationService
	CoupleImageService *service.CoupleImageService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection, cfg.DBMaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return Wire(cfg, database)
}

// Wire builds everything above the database. Split from New so tests can
// hand in an already migrated connection.
func Wire(cfg *config.Config, database *sqlx.DB) (*App, error) {
	// Repositories
	locationRepository := repository.NewLocationRepository(database)
	coupleImageRepository := repository.NewCoupleImageRepository(database)

	// Archive of original uploads
	archive, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Sessions
	sessions, err := session.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	// Image pipeline
	pipeline := photo.New(photo.Options{
		JPEGQuality:   cfg.JPEGQuality,
		PNGThreshold:  cfg.PNGRecompressThreshold,
		ThumbnailSize: cfg.ThumbnailSize,
	})

	// Services
	authService, err := service.NewAuthService(cfg.AccessCode, sessions, cfg.IsProduction())
	if err != nil {
		_ = sessions.Close()
		return nil, err
	}
	locationService := service.NewLocationService(
		locationRepository,
		pipeline,
		archive,
		photo.ParseStyle(cfg.ThumbnailStyle),
		cfg.MaxUploadSize,
	)
	coupleImageService := service.NewCoupleImageService(coupleImageRepository, pipeline, archive, cfg.MaxUploadSize)

	return &App{
		Cfg:                cfg,
		DB:                 database,
		Sessions:           sessions,
		Pipeline:           pipeline,
		AuthService:        authService,
		LocationService:    locationService,
		CoupleImageService: coupleImageService,
	}, nil
}

// Close releases the session store and the database.
func (a *App) Close() error {
	var errs []error
	if a.Sessions != nil {
		errs = append(errs, a.Sessions.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
