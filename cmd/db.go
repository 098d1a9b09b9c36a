package cmd

import (
	"context"
	"fmt"

	"jsr_backend/internal/config"
	"jsr_backend/internal/service"
	"jsr_backend/pkg/database"
	"jsr_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			return migrate(cfg)
		},
	}
	return command
}

func migrate(cfg *config.Config) error {
	db, err := database.InitDB(&cfg.Database, cfg.IsDebug())
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	if err := database.Migrate(db); err != nil {
		return err
	}
	logger.Log.Info("Database migration completed", zap.String("driver", cfg.Database.Driver))
	return nil
}

func seedCmd() *cobra.Command {
	var admin service.SeedAdmin
	command := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample categories, types, users and resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := application.Services.Seed.Seed(ctx, admin); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			return nil
		},
	}
	command.Flags().StringVar(&admin.Name, "admin-name", "Admin", "name of the seeded admin")
	command.Flags().StringVar(&admin.Email, "admin-email", "", "email of the seeded admin, empty to skip")
	command.Flags().StringVar(&admin.Password, "admin-password", "", "password of the seeded admin")
	return command
}
