package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections は本サービスが使うコレクション名の組。
type Collections struct {
	Rows                string
	Orphans             string
	FailedNotifications string
}

// EnsureIndexes は運用者 API と行ログの検索に必要なインデックスを作成する。
func EnsureIndexes(ctx context.Context, db *mongo.Database, cfg Collections) error {
	if cfg.Rows != "" {
		if _, err := db.Collection(cfg.Rows).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "sheet", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("idx_rows_sheet_created"),
		}); err != nil {
			return err
		}
	}

	if _, err := db.Collection(cfg.Orphans).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_orphan_status_created"),
		},
		{
			Keys:    bson.D{{Key: "submissionId", Value: 1}},
			Options: options.Index().SetName("uniq_orphan_submission").SetUnique(true),
		},
	}); err != nil {
		return err
	}

	if _, err := db.Collection(cfg.FailedNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_failed_status_created"),
	}); err != nil {
		return err
	}

	return nil
}

// DropCollections は開発環境の投入前に既存データを削除する。
// Drop は存在しないコレクションでもエラーにならない。
func DropCollections(ctx context.Context, db *mongo.Database, cfg Collections) error {
	for _, name := range []string{cfg.Rows, cfg.Orphans, cfg.FailedNotifications} {
		if name == "" {
			continue
		}
		if err := db.Collection(name).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}
