// Package server assembles the HTTP server from configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipeshare/backend/config"
	"github.com/pageza/recipeshare/backend/internal/api"
	"github.com/pageza/recipeshare/backend/internal/database"
	"github.com/pageza/recipeshare/backend/internal/metrics"
	"github.com/pageza/recipeshare/backend/internal/middleware"
	"github.com/pageza/recipeshare/backend/internal/service"
	"github.com/pageza/recipeshare/backend/internal/session"
	"github.com/pageza/recipeshare/backend/internal/storage"
)

const sessionSweepInterval = time.Hour

// Deps are the collaborators New wires into the HTTP layer
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Images   storage.ImageStore
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// expiredSessionSweeper is implemented by stores that do not expire
// sessions on their own
type expiredSessionSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	http    *http.Server
	logger  *zap.Logger
	sweeper expiredSessionSweeper

	closers []func() error
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a server routing requests to services built from deps
func New(cfg *config.Config, deps Deps) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	manager := session.NewManager(deps.Sessions, cfg.Session.Secret, cfg.Session.Lifetime)

	router := gin.New()
	router.MaxMultipartMemory = cfg.Storage.MaxUploadBytes
	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger, deps.Metrics),
		middleware.Recovery(logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.ErrorHandler(logger),
		middleware.BodyLimit(cfg.Storage.MaxUploadBytes),
		middleware.Session(manager, cfg.Session.CookieName, logger),
	)

	authService := service.NewAuthService(deps.DB, cfg.Auth.BcryptCost, deps.Metrics)
	recipeService := service.NewRecipeService(deps.DB, deps.Images, logger, deps.Metrics)

	handlers := api.Handlers{
		Auth: api.NewAuthHandler(authService, manager, api.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
		}),
		Recipes:  api.NewRecipeHandler(recipeService, cfg.Storage.MaxUploadBytes),
		Images:   api.NewImageHandler(deps.Images),
		Frontend: api.NewFrontendHandler(cfg.Server.FrontendDir),
		Health: func(ctx context.Context) error {
			return database.HealthCheck(ctx, deps.DB)
		},
	}
	if deps.Metrics != nil {
		handlers.Metrics = deps.Metrics.Handler()
	}
	api.RegisterRoutes(router, handlers)

	s := &Server{
		router: router,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		logger: logger,
		stop:   make(chan struct{}),
	}
	if sweeper, ok := deps.Sessions.(expiredSessionSweeper); ok {
		s.sweeper = sweeper
	}
	return s
}

// Bootstrap connects the database, session store and image store named by
// cfg and returns a server owning them
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	var closers []func() error
	fail := func(err error) (*Server, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() error { return database.Close(db) })

	if err := database.Migrate(ctx, db, logger); err != nil {
		return fail(fmt.Errorf("failed to migrate database: %w", err))
	}

	var sessions session.Store
	switch cfg.Session.Store {
	case "redis":
		client, err := database.NewRedisClient(cfg.Redis, logger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, client.Close)
		sessions = session.NewRedisStore(client)
	default:
		sessions = session.NewGormStore(db)
	}

	var images storage.ImageStore
	switch cfg.Storage.Provider {
	case "s3":
		client, err := config.NewS3Client(ctx, cfg.Storage.S3)
		if err != nil {
			return fail(err)
		}
		images = storage.NewS3Store(client, cfg.Storage.S3.Bucket, cfg.Storage.S3.Prefix)
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			return fail(err)
		}
		images = local
	}
	logger.Info("storage configured",
		zap.String("sessions", cfg.Session.Store),
		zap.String("images", cfg.Storage.Provider))

	s := New(cfg, Deps{
		DB:       db,
		Sessions: sessions,
		Images:   images,
		Metrics:  metrics.New(),
		Logger:   logger,
	})
	s.closers = closers
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	if s.sweeper != nil {
		s.wg.Add(1)
		go s.sweepSessions()
	}

	s.logger.Info("starting server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and releases its resources
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()

	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i](); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Server) sweepSessions() {
	defer s.wg.Done()
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := s.sweeper.DeleteExpired(ctx)
			cancel()
			if err != nil {
				s.logger.Warn("failed to delete expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("deleted expired sessions", zap.Int64("count", n))
			}
		}
	}
}
