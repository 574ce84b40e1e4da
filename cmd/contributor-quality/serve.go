package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urfave/cli/v2"

	_ "github.com/jdiegosierra/contributor-quality/internal/apidocs"
	"github.com/jdiegosierra/contributor-quality/internal/cache"
	"github.com/jdiegosierra/contributor-quality/internal/config"
	"github.com/jdiegosierra/contributor-quality/internal/errors"
	"github.com/jdiegosierra/contributor-quality/internal/monitoring"
	"github.com/jdiegosierra/contributor-quality/internal/security"
)

const (
	cachePruneInterval = time.Minute
	shutdownTimeout    = 30 * time.Second
)

// server answers score requests. Each request gets its own fetch client so
// quota state is never shared between evaluations.
type server struct {
	mu  sync.RWMutex
	cfg *config.Config

	logger     *monitoring.Logger
	metrics    *monitoring.Metrics
	results    *cache.Cache
	newFetcher fetcherFactory
	now        func() time.Time
}

func newServer(cfg *config.Config, logger *monitoring.Logger, metrics *monitoring.Metrics, newFetcher fetcherFactory) *server {
	return &server{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		results:    cache.New(cfg.Server.CacheTTL),
		newFetcher: newFetcher,
		now:        time.Now,
	}
}

func (s *server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// setConfig swaps in a reloaded config. Cached scores were computed with
// the old settings, so they are dropped.
func (s *server) setConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.results.Clear()
}

func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(security.Headers(security.HeadersConfig{HSTS: s.config().Server.HSTS}))
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(errors.ErrorHandler())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/v1")
	v1.GET("/contributors/:login/score", s.handleScore)

	return r
}

func (s *server) handleHealth(c *gin.Context) {
	cfg := s.config()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   version,
		"mode":      cfg.Mode,
		"threshold": cfg.MinimumScoreThreshold,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics": s.metrics.GetStats(),
		"cache":   s.results.Stats(),
	})
}

func (s *server) handleScore(c *gin.Context) {
	cfg := s.config()
	login := normalizeLogin(c.Param("login"))
	key := cache.Key(login, cfg)

	if result, ok := s.results.Get(key); ok {
		s.metrics.IncrementCacheHit()
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, result)
		return
	}
	s.metrics.IncrementCacheMiss()

	fetcher := s.newFetcher(cfg.Fetch, s.logger, s.metrics)
	result, err := evaluate(c.Request.Context(), cfg, fetcher, login, s.now().UTC(), s.logger, s.metrics)
	if err != nil {
		_ = c.Error(err)
		return
	}

	s.results.Set(key, result)
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, result)
}

func serveCommand(newFetcher fetcherFactory) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve scores over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address, overrides server.addr",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Value: true,
				Usage: "reload the config file when it changes",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.Logging.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx := c.Context
			s := newServer(cfg, logger, monitoring.NewMetrics(), newFetcher)

			if path := c.String("config"); path != "" && c.Bool("watch") {
				go func() {
					if err := config.Watch(ctx, path, s.setConfig); err != nil {
						logger.Error("Config watch stopped", "path", path, "error", err)
					}
				}()
			}
			go s.results.Run(ctx, cachePruneInterval)

			addr := cfg.Server.Addr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           s.router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Server starting", "addr", addr, "mode", cfg.Mode)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
