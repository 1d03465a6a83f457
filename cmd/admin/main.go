package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-gin-gorm-crm/internal/app"
	"go-gin-gorm-crm/internal/core/config"
	"go-gin-gorm-crm/internal/core/logger"
)

var configPath string

// rootCmd 运维命令入口
var rootCmd = &cobra.Command{
	Use:           "crm-admin",
	Short:         "Operator commands for the CRM API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")
}

func loadConfig() (*config.Config, *zap.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	lg, cleanup := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	return cfg, lg.Logger, cleanup, nil
}

// withApp 打开数据库并组装服务，结束后统一释放
func withApp(fn func(a *app.App) error) error {
	cfg, log, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()
	db, err := app.OpenDB(cfg, log)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, log, db)
	if err != nil {
		if sqlDB, e := db.DB(); e == nil {
			_ = sqlDB.Close()
		}
		return err
	}
	defer a.Close()
	return fn(a)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
