package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/inspection-intake/api/internal/config"
	"github.com/sngm3741/inspection-intake/api/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Inspection intake API",
	Long:  `Accepts inspection submissions, stores photos and appends rows to the inspection log.`,
	RunE:  runServe,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "env file read on top of the process environment (CONFIG_FILE)")
	rootCmd.SilenceUsage = true
}

// loadConfig reads configuration with load and builds the process logger.
// Configuration errors are fatal.
func loadConfig(load func() (config.Config, error)) (config.Config, zerolog.Logger) {
	if cfgFile != "" {
		os.Setenv("CONFIG_FILE", cfgFile)
	}

	cfg, err := load()
	if err != nil {
		bootstrap := logging.New("inspection-api", "info", false)
		if config.IsConfigurationError(err) {
			bootstrap.Fatal().Err(err).Msg("設定の読み込みに失敗しました")
		}
		bootstrap.Fatal().Err(err).Msg("起動に失敗しました")
	}
	return cfg, logging.New("inspection-api", cfg.LogLevel, cfg.LogPretty)
}

// connectMongo returns nil when no component uses MongoDB.
func connectMongo(cfg config.Config) (*mongo.Client, error) {
	if !cfg.MongoEnabled() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	return mongo.Connect(ctx, clientOptions)
}
