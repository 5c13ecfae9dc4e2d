package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	appservice "github.com/redlinehq/redline/internal/application/service"
	"github.com/redlinehq/redline/internal/config"
	"github.com/redlinehq/redline/internal/infrastructure/crypto"
	"github.com/redlinehq/redline/internal/infrastructure/events"
	"github.com/redlinehq/redline/internal/infrastructure/memstore"
	"github.com/redlinehq/redline/internal/infrastructure/monitoring"
	"github.com/redlinehq/redline/internal/infrastructure/persistence/gormstore"
	redisstore "github.com/redlinehq/redline/internal/infrastructure/persistence/redis"
	"github.com/redlinehq/redline/internal/infrastructure/secrets"
	"github.com/redlinehq/redline/internal/interfaces/http/middleware"
	"github.com/redlinehq/redline/pkg/constants"
	"github.com/redlinehq/redline/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog := logger.New(constants.LogLevel(cfg.Log.Level))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Error(ctx, "server exited", err)
	}
}

func run(ctx context.Context, cfg *config.Config, appLog logger.Logger) error {
	// An empty inline secret defers to Vault when an address is configured.
	// Absence stays fatal only at token creation/verification time.
	if cfg.Auth.Secret == "" && cfg.Vault.Address != "" {
		source, err := secrets.NewVaultSource(cfg.Vault, appLog)
		if err != nil {
			return fmt.Errorf("vault source: %w", err)
		}
		secret, err := source.SigningSecret(ctx)
		if err != nil {
			return fmt.Errorf("vault secret: %w", err)
		}
		cfg.Auth.Secret = secret
	}

	shutdownTracing, err := monitoring.InitTracing(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			appLog.Warn(flushCtx, "tracer shutdown", logger.Err(err))
		}
	}()

	db, err := gormstore.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := gormstore.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	publisher := events.NewKafkaRevocationPublisher(cfg.Kafka, appLog)
	defer publisher.Close()
	consumer := events.NewRevocationConsumer(cfg.Kafka, rdb, appLog)

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	tokens := crypto.NewJWTManager(cfg.Auth, appLog)
	revocations := redisstore.NewRevocationCache(
		rdb,
		gormstore.NewRevocationRepository(db, appLog),
		publisher,
		appLog,
	)
	limiter := memstore.New(memstore.WithRateLimitBypass(cfg.RateLimit.Disabled))

	gate := appservice.NewAccessGate(
		tokens,
		revocations,
		gormstore.NewResetTokenRepository(db, appLog),
		limiter,
		metrics,
		appLog,
	)

	router := newRouter(cfg, gate, appLog)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		appLog.Info(gctx, "http server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return consumer.Run(gctx)
	})

	group.Go(func() error {
		<-gctx.Done()
		appLog.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func newRouter(cfg *config.Config, gate *appservice.AccessGate, appLog logger.Logger) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	if cfg.Server.Debug {
		pprof.Register(router)
	}

	router.GET("/livez", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// A verification-only endpoint for sidecar-style deployments; the
	// embedding service mounts its own routes behind RequireAuth.
	authed := router.Group("/v1")
	authed.Use(middleware.RequireAuth(gate, "auth:introspect",
		appservice.RateLimit{MaxCalls: 300, Period: time.Minute}, appLog))
	authed.GET("/introspect", func(c *gin.Context) {
		claims, _ := middleware.ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"sub":  claims.Subject(),
			"role": string(claims.Role()),
			"jti":  claims.JTI(),
		})
	})

	return router
}
