package cmd

import (
	"context"

	"jsr_backend/internal/config"
	"jsr_backend/pkg/configwatcher"
	"jsr_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var migrate bool
	command := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	command.Flags().BoolVar(&migrate, "migrate", false, "run database migrations on startup even in release mode")
	return command
}

func runServe(ctx context.Context, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	application, err := bootstrap(migrate)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 配置文件变更时更新日志级别
	go func() {
		err := configwatcher.WatchConfig(ctx, configDir, func(cfg *config.Config) {
			application.ApplyConfig(cfg)
		})
		if err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}()

	return application.Run(ctx)
}
