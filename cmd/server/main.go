package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/linklet/linklet/internal/config"
	"github.com/linklet/linklet/internal/events"
	"github.com/linklet/linklet/internal/infra"
	"github.com/linklet/linklet/internal/observability"
	"github.com/linklet/linklet/internal/server"
	"github.com/linklet/linklet/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.Setup(ctx, observability.Config{
		ServiceName:  "linklet",
		Environment:  cfg.App.Environment,
		OTLPEndpoint: cfg.App.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to setup observability: %v", err)
	}
	logger := obs.Logger

	db, err := infra.NewPostgresPool(ctx, cfg.Database.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		return
	}
	defer db.Close()
	logger.Info("database connected")

	// Cache and broker are optional: the gateway degrades to
	// uncached lookups and disabled fan-out when they are absent.
	cache, err := infra.NewCacheClient(ctx, cfg.Cache.ConnectionString())
	if err != nil {
		logger.Warn("cache unavailable, continuing without it", slog.String("error", err.Error()))
		cache = nil
	} else {
		defer cache.Close()
		logger.Info("cache connected")
	}

	var publisher service.EventPublisher
	if cfg.Broker.Host != "" {
		conn, err := infra.NewBrokerConn(cfg.Broker.ConnectionString())
		if err != nil {
			logger.Warn("broker unavailable, click fan-out disabled", slog.String("error", err.Error()))
		} else {
			defer conn.Close()
			pub, err := events.NewPublisher(conn, cfg.Broker.Exchange)
			if err != nil {
				logger.Warn("failed to create publisher, click fan-out disabled", slog.String("error", err.Error()))
			} else {
				defer pub.Close()
				publisher = pub
				logger.Info("broker connected", slog.String("exchange", cfg.Broker.Exchange))
			}
		}
	}

	if cfg.App.Environment == "production" {
		// gin's release mode; set before the router is built
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.NewServer(cfg, db, cache, publisher, obs)
	metricsSrv := server.NewMetricsServer(cfg, obs)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			slog.String("port", cfg.Server.Port),
			slog.String("base_url", cfg.App.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("metrics listening", slog.String("port", cfg.Server.MetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed", slog.String("error", err.Error()))
		}
		obs.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("server exited gracefully")
}
