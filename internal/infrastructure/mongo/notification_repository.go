package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// FailedNotificationRepository は送信できなかった通知を failed_notifications に退避する。
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

// NewFailedNotificationRepository は通知失敗コレクションを束縛したリポジトリを生成する。
func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

// SaveFailure は失敗した通知を pending 状態で保存する。
func (r *FailedNotificationRepository) SaveFailure(ctx context.Context, target string, payload map[string]any, cause error, attempts int) error {
	now := time.Now().UTC()
	doc := FailedNotificationDocument{
		Target:      target,
		Payload:     payload,
		Error:       cause.Error(),
		Attempts:    attempts,
		Status:      "pending",
		CreatedAt:   now,
		LastTriedAt: now,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
