package cmd

import (
	"os"

	"jsr_backend/internal/app"
	"jsr_backend/internal/config"
	"jsr_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var configDir string

// rootCmd 不带子命令时启动服务
var rootCmd = &cobra.Command{
	Use:   "jsr",
	Short: "JSR JavaScript resources API",
	Example: `jsr serve --config configs
jsr migrate
jsr seed --admin-email admin@example.com --admin-password <password>
jsr create-admin --email admin@example.com --name Admin --password <password>
jsr verify-votes --repair`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), false)
	},
}

// Execute 由 main.main 调用
func Execute() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "configs", "directory containing config.yaml")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(verifyVotesCmd())
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}

func loadConfig(forceMigrate bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}
	cfg.ForceMigrate = forceMigrate
	logger.InitLogger(cfg)
	return cfg, nil
}

// bootstrap 子命令共用的初始化流程
func bootstrap(forceMigrate bool) (*app.App, error) {
	cfg, err := loadConfig(forceMigrate)
	if err != nil {
		return nil, err
	}
	return app.Bootstrap(cfg)
}
