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

	_ "go.uber.org/automaxprocs"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-gin-gorm-crm/internal/app"
	"go-gin-gorm-crm/internal/core/config"
	"go-gin-gorm-crm/internal/core/database"
	"go-gin-gorm-crm/internal/core/logger"
	"go-gin-gorm-crm/internal/core/server"
	"go-gin-gorm-crm/internal/core/session"
	"go-gin-gorm-crm/internal/transport/http/handler"
	"go-gin-gorm-crm/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	src, err := config.Open(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := src.Config()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	lg, cleanup := logger.New(logger.Options{
		Level:     cfg.Log.Level,
		JSON:      cfg.Log.JSON,
		AddCaller: true,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.File.Enable,
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	defer cleanup()
	log := lg.Logger
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	// 配置文件变更时热更新日志级别
	src.OnChange(func(c *config.Config, e fsnotify.Event) {
		if lg.SetLevel(c.Log.Level) {
			log.Info("log level changed", zap.String("level", c.Log.Level), zap.String("file", e.Name))
		}
	})

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 数据库（失败会直接 Fatal）
	db, err := app.OpenDB(cfg, log)
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := database.Ping(pingCtx, db); err != nil {
		cancelPing()
		log.Fatal("db ping", zap.Error(err))
	}
	cancelPing()

	// 迁移
	if cfg.DB.AutoMigrate {
		mg, err := app.NewMigrator(cfg, log)
		if err != nil {
			log.Fatal("migrator", zap.Error(err))
		}
		if err := mg.Up(); err != nil {
			log.Fatal("migrate up", zap.Error(err))
		}
		v, _, _ := mg.Version()
		_ = mg.Close()
		log.Info("migrations applied", zap.Uint("version", v))
	}

	a, err := app.New(cfg, log, db)
	if err != nil {
		log.Fatal("wire app", zap.Error(err))
	}
	defer a.Close()

	if err := a.Bootstrap(context.Background()); err != nil {
		log.Fatal("bootstrap admin", zap.Error(err))
	}

	// 过期会话清理
	cleaner := session.NewCleanup(a.Sessions, log, time.Duration(cfg.Session.CleanupIntervalMin)*time.Minute)
	cleaner.Start()
	defer cleaner.Stop()

	// 路由
	r := router.NewAPIEngine(router.Options{
		AllowOrigins:   cfg.CORS.AllowOrigins,
		MaxBodyBytes:   cfg.App.HTTP.MaxBodyBytes,
		MaxInFlight:    cfg.App.HTTP.MaxInFlight,
		RequestTimeout: time.Duration(cfg.App.HTTP.RequestTimeoutSec) * time.Second,
		Metrics:        true,
	}, router.Deps{
		Logger:   log,
		Sessions: a.Sessions,
		Health:   &handler.Health{Check: func(ctx context.Context) error { return database.Ping(ctx, db) }},
		Modules: []router.APIModule{
			handler.NewAuth(a.Auth, a.Sessions),
			handler.NewCompanies(a.Companies),
			handler.NewContacts(a.Contacts),
			handler.NewActivities(a.Activities),
			handler.NewUsers(a.Users),
		},
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("crm api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
	)

	// 异步启动
	errCh := make(chan error, 1)
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		log.Error("crm api start FAILED", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("crm api stopped gracefully")
}
