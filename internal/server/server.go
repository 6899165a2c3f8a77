package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/linklet/linklet/internal/api"
	"github.com/linklet/linklet/internal/config"
	"github.com/linklet/linklet/internal/middleware"
	"github.com/linklet/linklet/internal/observability"
	"github.com/linklet/linklet/internal/repository"
	"github.com/linklet/linklet/internal/service"
)

// redisPinger adapts *redis.Client to api.CacheInterface. A disabled
// cache (nil client) reports healthy since it is not a dependency.
type redisPinger struct{ client *redis.Client }

func (r *redisPinger) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// NewRouter initializes all dependencies and returns a configured Gin
// router. Useful for testing where the full HTTP server is not needed.
func NewRouter(cfg *config.Config, db *pgxpool.Pool, cache *redis.Client,
	publisher service.EventPublisher, obs *observability.Observability) *gin.Engine {
	baseRepo := repository.NewLinkRepository(db)
	linkStore := repository.NewCachedLinkRepository(baseRepo, cache, cfg.Cache.TTL)
	clickRepo := repository.NewClickRepository(db)

	gate := service.SHA256Gate{}
	links := service.NewLinkService(linkStore, gate, cfg.App.BaseURL, cfg.App.ShortCodeLen, cfg.App.ShortCodeRetries)
	resolver := service.NewResolver(linkStore, clickRepo, publisher, gate, obs.Logger, obs.Metrics)

	handler := api.NewHandler(links, resolver, db, &redisPinger{client: cache}, obs.Logger)

	r := gin.New()
	r.Use(middleware.Recovery(obs.Logger))
	r.Use(middleware.Logging(obs.Logger))
	r.Use(otelgin.Middleware("linklet"))
	handler.RegisterRoutes(r)
	return r
}

// NewServer initializes all dependencies and returns a configured HTTP
// server with timeouts applied.
func NewServer(cfg *config.Config, db *pgxpool.Pool, cache *redis.Client,
	publisher service.EventPublisher, obs *observability.Observability) *http.Server {
	router := NewRouter(cfg, db, cache, publisher, obs)

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMetricsServer exposes the Prometheus registry on its own listener
// so the public surface stays limited to redirects and the API.
func NewMetricsServer(cfg *config.Config, obs *observability.Observability) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:         ":" + cfg.Server.MetricsPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
