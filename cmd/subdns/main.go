package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	v1 "go_subdns/api/v1"
	"go_subdns/internal/auth"
	"go_subdns/internal/bootstrap"
	"go_subdns/internal/cache"
	"go_subdns/internal/config"
	"go_subdns/internal/crypto"
	"go_subdns/internal/db"
	"go_subdns/internal/dns/providers"
	"go_subdns/internal/logger"
	"go_subdns/internal/ratelimit"
)

func main() {
	iniPath := flag.String("config", "", "path to INI config file (environment variables take precedence)")
	flag.Parse()

	// 1. Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *iniPath != "" {
		cfg, err = config.LoadFromINI(*iniPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.New("info", "text").Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	mainLog := logger.Component(log, "main")
	mainLog.Info("configuration loaded")

	// 2. Initialize database
	gdb, err := db.Open(cfg.Database, logger.Component(log, "db"))
	if err != nil {
		mainLog.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(gdb)

	if cfg.Migrate || cfg.Database.Driver == "sqlite" {
		if err := db.Migrate(gdb); err != nil {
			mainLog.Fatalf("Failed to migrate database: %v", err)
		}
	}
	if err := bootstrap.Seed(context.Background(), gdb, logger.Component(log, "bootstrap")); err != nil {
		mainLog.Fatalf("Failed to seed database: %v", err)
	}

	// 3. Initialize Redis; rate limiting degrades to memory without it
	if err := cache.InitRedis(cfg.Redis, logger.Component(log, "cache")); err != nil {
		mainLog.WithError(err).Warn("redis unavailable, using in-memory rate limiting")
	}
	defer cache.Close()

	// 4. Credential codec, JWT and provider factory
	codec, err := crypto.NewCodec(cfg.EncryptionKey)
	if err != nil {
		mainLog.Fatalf("Failed to initialize credential codec: %v", err)
	}
	auth.InitJWT(cfg.JWT.Secret)

	timeout := time.Duration(cfg.Provider.TimeoutSec) * time.Second
	factory := providers.NewFactory(providers.Options{
		Timeout: timeout,
		Logger:  logger.Component(log, "provider"),
	})

	deps := v1.NewDeps(gdb, codec, factory, cfg.JWT, timeout, ratelimit.New(cache.Client, logger.Component(log, "ratelimit")), log)
	if cache.Client != nil {
		deps.RedisPing = cache.Ping
	}

	// 5. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	v1.SetupRouter(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		mainLog.Infof("server starting on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mainLog.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		mainLog.WithError(err).Error("server shutdown failed")
	}
}
