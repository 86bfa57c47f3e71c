package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chatkaro/server/internal/db"
	"github.com/chatkaro/server/internal/handlers"
	"github.com/chatkaro/server/internal/logger"
	"github.com/chatkaro/server/internal/repository/postgres"
	"github.com/chatkaro/server/internal/service/auth"
	"github.com/chatkaro/server/internal/service/tokencleaner"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger

	cleaner *tokencleaner.Cleaner
	close   func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize auth service
	authService, err := auth.NewService(auth.Config{
		SecretKey:        c.SecretKey,
		Alg:              c.JWTAlgorithm,
		Issuer:           c.JWTIssuer,
		AccessTTL:        time.Duration(c.AccessTTLMinutes) * time.Minute,
		RefreshTTL:       time.Duration(c.RefreshTTLDays) * 24 * time.Hour,
		RefreshSecretLen: c.RefreshBytes,
		CookieSecure:     c.Environment != logger.EnvDevelopment,
		Logger:           log,
	}, storage)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	mux := handlers.NewRouter(authService, pool, log)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     log,
		cleaner:    tokencleaner.New(0, storage.Refresh(), log),
		close:      pool.Close,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	// Start background cleanup of expired refresh tokens
	cleanerStopped := s.cleaner.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close connections gracefully
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-cleanerStopped

	return err
}
