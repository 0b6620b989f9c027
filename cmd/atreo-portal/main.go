// @title           Atreo Portal API
// @version         1.0
// @description     Session, navigation and authorization front for the Atreo admin and employee portal.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atreo/portal/internal/api"
	"github.com/atreo/portal/internal/api/handler"
	"github.com/atreo/portal/internal/api/middleware"
	"github.com/atreo/portal/internal/core/service"
	"github.com/atreo/portal/internal/infrastructure/backend"
	"github.com/atreo/portal/internal/infrastructure/config"
	"github.com/atreo/portal/internal/infrastructure/db/mongo"
	"github.com/atreo/portal/internal/infrastructure/db/redis"
	"github.com/atreo/portal/internal/infrastructure/queue"
	"github.com/atreo/portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "atreo-portal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "atreo-portal",
		Env:     cfg.Env,
	})

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	mirror := mongo.NewSessionMirrorRepository(db, cfg.Session.TTL)
	auditRepo := mongo.NewAuditRepository(db)
	if err := mirror.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	sessionStore := redis.NewSessionStore(redisClient, cfg.Session.TTL)
	tabStore := redis.NewTabStore(redisClient, cfg.Session.TabTTL)

	restAPI, err := backend.NewClient(backend.Config{BaseURL: cfg.Backend.URL, Timeout: cfg.Backend.Timeout}, logger.Component("backend"))
	if err != nil {
		return err
	}

	// --- Services ---
	auditSvc := service.NewAuditService(auditRepo, logger.Component("audit"))
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditSvc, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	sessions := service.NewSessionService(restAPI, sessionStore, mirror, dispatcher, logger.Component("session"))
	navigation := service.NewNavigationService(tabStore, dispatcher, logger.Component("navigation"))
	portal := service.NewPortalService(restAPI, dispatcher, logger.Component("portal"))

	e := api.NewRouter(api.Dependencies{
		Sessions:   sessions,
		Navigation: navigation,
		Portal:     portal,
		Audit:      auditSvc,
		Tokens:     middleware.NewPortalTokens(cfg.Portal.Secret, cfg.Portal.TokenTTL),
		Health: map[string]handler.Pinger{
			"mongo":   mongo.NewPinger(mongoClient),
			"redis":   redis.NewPinger(redisClient),
			"backend": restAPI,
		},
		CORSOrigins: cfg.HTTP.CORSOrigins,
		AuthRate:    cfg.HTTP.AuthRate,
		Log:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.Backend.URL).Msg("portal listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
