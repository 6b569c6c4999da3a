package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sngm3741/inspection-intake/api/internal/config"
	"github.com/sngm3741/inspection-intake/api/internal/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig(config.Load)

	client, err := connectMongo(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("MongoDB 接続に失敗しました")
	}

	// Backend clients keep this context for token refresh, so it must outlive startup.
	app, err := server.New(context.Background(), cfg, logger, client)
	if err != nil {
		if config.IsConfigurationError(err) {
			logger.Fatal().Err(err).Msg("バックエンドの初期化に失敗しました")
		}
		return err
	}
	return app.Run()
}
