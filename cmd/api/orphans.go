package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/sngm3741/inspection-intake/api/internal/config"
	mongodoc "github.com/sngm3741/inspection-intake/api/internal/infrastructure/mongo"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

var (
	orphanStatus string
	orphanStore  string
	orphanLimit  int
)

func init() {
	orphansCmd.Flags().StringVar(&orphanStatus, "status", domain.OrphanStatusPending, "pending, resolved or empty for all")
	orphansCmd.Flags().StringVar(&orphanStore, "store", "", "filter by store name")
	orphansCmd.Flags().IntVar(&orphanLimit, "limit", 50, "maximum number of records")
	rootCmd.AddCommand(orphansCmd)
}

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List photos that were stored while their row append failed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig(config.LoadMongo)

		client, err := connectMongo(cfg)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		repo := mongodoc.NewOrphanRepository(client.Database(cfg.MongoDatabase), cfg.OrphanCollection)
		service := application.NewOrphanService(repo)
		orphans, err := service.List(ctx, application.OrphanFilter{Status: orphanStatus, StoreName: orphanStore}, application.Paging{Page: 1, Limit: orphanLimit})
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		for _, orphan := range orphans {
			if err := encoder.Encode(orphan); err != nil {
				return err
			}
		}
		logger.Debug().Int("count", len(orphans)).Msg("孤立アップロードを出力")
		return nil
	},
}
