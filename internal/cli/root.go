// Package cli содержит административные команды contestctl
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/contest-api/internal/app"
	"github.com/yourusername/contest-api/internal/config"
	"github.com/yourusername/contest-api/pkg/database"
)

var configPath string

// Execute запускает CLI
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "contestctl",
		Short:        "Administrative tool for the contest API",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(newMigrateCmd(&configPath))
	cmd.AddCommand(newPrizesCmd(&configPath))
	cmd.AddCommand(newCacheCmd(&configPath))
	return cmd
}

// openDB открывает только подключение к БД, без кеша и сервисов
func openDB(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewPostgresDB(cfg.Database, logger.Warn)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// openApp поднимает все зависимости сервиса
func openApp(ctx context.Context, configPath string) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}
