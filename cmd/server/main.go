// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tallerpiolin/inventory-backend/internal/config"
	"github.com/tallerpiolin/inventory-backend/internal/database"
	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/middleware"
	"github.com/tallerpiolin/inventory-backend/internal/realtime"
	"github.com/tallerpiolin/inventory-backend/internal/router"
	"github.com/tallerpiolin/inventory-backend/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}

	// Run database migrations
	if err := database.RunMigrations(db, cfg.Realtime.Channel); err != nil {
		database.Close(db)
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, db)
	stop()
	database.Close(db)

	if err != nil {
		logrus.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}
	logrus.Info("Server exited")
}

// run serves HTTP and the realtime feed until ctx ends or one of them fails.
func run(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	var hub *realtime.Hub
	var feed gateway.Feed
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(cfg.Realtime.HubBuffer)
		feed = hub
	}

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		return err
	}

	gw := gateway.New(db, cfg.Store.Timeout, feed)
	svc := services.New(gw, storage, cfg.Business)
	if err := svc.Load(ctx); err != nil {
		return fmt.Errorf("failed to load catalog and notifications: %w", err)
	}
	svc.Subscribe()
	defer svc.Unsubscribe()

	limiter := middleware.NewRateLimiterFromConfig(cfg.RateLimit)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Initialize(svc, hub, limiter, cfg),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logrus.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error { return limiter.Run(ctx) })

	if hub != nil {
		listener := realtime.NewListener(cfg.Database.DSN(), cfg.Realtime.Channel,
			cfg.Realtime.MinReconnect, cfg.Realtime.MaxReconnect, hub)

		g.Go(func() error { return hub.Run(ctx) })
		g.Go(func() error { return listener.Run(ctx) })
	}

	return g.Wait()
}
