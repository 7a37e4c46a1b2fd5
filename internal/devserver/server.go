// Package devserver is a local stand-in for the fitnest backend: the REST
// endpoints and chat relay the client needs, backed by gorm. It implements
// no real matching.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fitnest/client/internal/config"
	"fitnest/client/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server bundles the store, hub and HTTP handler.
type Server struct {
	Store   *Store
	Hub     *Hub
	Handler *Handler
	cfg     config.DevServerConfig
	logger  *zap.Logger
}

// New opens the database, migrates it and optionally seeds it.
func New(ctx context.Context, cfg config.DevServerConfig, logger *zap.Logger) (*Server, error) {
	logger = logging.OrNop(logger)
	db, err := OpenDB(cfg.DBDriver, cfg.DBPath, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	if cfg.Seed {
		if err := Seed(ctx, store, logger); err != nil {
			return nil, err
		}
	}
	return NewServer(store, cfg, logger), nil
}

// NewServer assembles a server around an existing store.
func NewServer(store *Store, cfg config.DevServerConfig, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	hub := NewHub(store, cfg.EchoToSender, logger.Named("hub"))
	return &Server{
		Store:   store,
		Hub:     hub,
		Handler: NewHandler(store, hub, NewTokens(cfg.JWTSecret), logger.Named("http")),
		cfg:     cfg,
		logger:  logger,
	}
}

// Run serves until ctx ends, then shuts the HTTP server and hub down.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:           s.cfg.Addr,
		Handler:        s.Handler.Router(),
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		s.logger.Info("devserver listening", zap.String("addr", s.cfg.Addr), zap.Bool("echo_sender", s.cfg.EchoToSender))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
