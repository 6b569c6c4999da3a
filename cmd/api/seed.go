package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sngm3741/inspection-intake/api/internal/config"
	mongodoc "github.com/sngm3741/inspection-intake/api/internal/infrastructure/mongo"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

const defaultSeed = 20240601

var (
	seedOrphans    int
	seedDrop       bool
	seedRandomSeed int64
)

func init() {
	seedCmd.Flags().IntVar(&seedOrphans, "orphans", 5, "生成する孤立アップロード数")
	seedCmd.Flags().BoolVar(&seedDrop, "drop", false, "既存コレクションを削除してから投入する")
	seedCmd.Flags().Int64Var(&seedRandomSeed, "seed", defaultSeed, "乱数シード（再現用）")
	rootCmd.AddCommand(seedCmd)
}

var sampleStores = []string{"Shibuya Store", "Umeda Store", "Tenjin Store", "Sakae Store"}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create MongoDB indexes and sample orphaned uploads for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig(config.LoadMongo)

		client, err := connectMongo(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		db := client.Database(cfg.MongoDatabase)
		collections := mongodoc.Collections{
			Orphans:             cfg.OrphanCollection,
			FailedNotifications: cfg.FailedNotifCollection,
		}
		if cfg.TabularBackend == config.TabularMongo {
			collections.Rows = cfg.RowCollection
		}

		if seedDrop {
			if err := mongodoc.DropCollections(ctx, db, collections); err != nil {
				return fmt.Errorf("コレクション削除に失敗しました: %w", err)
			}
			logger.Info().Msg("既存コレクションを削除しました")
		}
		if err := mongodoc.EnsureIndexes(ctx, db, collections); err != nil {
			return fmt.Errorf("インデックス作成に失敗しました: %w", err)
		}

		rng := rand.New(rand.NewSource(seedRandomSeed))
		formatter := application.NewRowFormatter(cfg.RowLayout, cfg.PhotoCell)
		repo := mongodoc.NewOrphanRepository(db, cfg.OrphanCollection)
		for i := 0; i < seedOrphans; i++ {
			orphan := sampleOrphan(rng, formatter, time.Now().Add(-time.Duration(i)*time.Hour))
			if err := repo.RecordOrphan(ctx, orphan); err != nil {
				return fmt.Errorf("孤立アップロードの挿入に失敗しました: %w", err)
			}
		}

		logger.Info().Int("orphans", seedOrphans).Str("db", cfg.MongoDatabase).Msg("Seed 完了")
		return nil
	},
}

func sampleOrphan(rng *rand.Rand, formatter application.RowFormatter, at time.Time) domain.OrphanedUpload {
	storeName := sampleStores[rng.Intn(len(sampleStores))]
	submission := domain.Submission{
		ID:         uuid.NewString(),
		StoreName:  storeName,
		ItemType:   domain.DefaultItemTypes[rng.Intn(len(domain.DefaultItemTypes))],
		Level:      domain.DefaultLevels[rng.Intn(len(domain.DefaultLevels))],
		Notes:      "seed",
		ReceivedAt: at,
	}
	fileID := fmt.Sprintf("seed-%d", rng.Int63())
	photo := domain.UploadedPhoto{
		FileID:      fileID,
		DisplayName: application.DisplayFileName(storeName, "photo.jpg", at),
		ViewLink:    "https://example.invalid/" + fileID,
	}
	return domain.OrphanedUpload{
		ID:           uuid.NewString(),
		SubmissionID: submission.ID,
		StoreName:    submission.StoreName,
		ItemType:     submission.ItemType,
		Level:        submission.Level,
		Notes:        submission.Notes,
		FileID:       photo.FileID,
		FileName:     photo.DisplayName,
		ViewLink:     photo.ViewLink,
		Row:          formatter.Format(submission, &photo),
		Error:        "seeded",
		Status:       domain.OrphanStatusPending,
		CreatedAt:    at.UTC(),
	}
}
