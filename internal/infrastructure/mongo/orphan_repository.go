package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// OrphanRepository は孤立した写真アップロードを MongoDB に記録・検索するリポジトリ。
type OrphanRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewOrphanRepository は orphaned_uploads コレクションを束縛したリポジトリを生成する。
func NewOrphanRepository(db *mongo.Database, collectionName string) *OrphanRepository {
	return &OrphanRepository{collection: db.Collection(collectionName), now: time.Now}
}

// RecordOrphan は行追加に失敗したアップロードを pending 状態で保存する。
func (r *OrphanRepository) RecordOrphan(ctx context.Context, orphan domain.OrphanedUpload) error {
	doc := toOrphanDocument(orphan)
	if doc.Status == "" {
		doc.Status = domain.OrphanStatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = r.now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert orphaned upload: %w", err)
	}
	return nil
}

// Find は状態・店舗名で絞り込み、新しい順に返す。
func (r *OrphanRepository) Find(ctx context.Context, filter application.OrphanFilter, paging application.Paging) ([]domain.OrphanedUpload, error) {
	mongoFilter := bson.M{}
	if status := strings.TrimSpace(filter.Status); status != "" {
		mongoFilter["status"] = status
	}
	if storeName := strings.TrimSpace(filter.StoreName); storeName != "" {
		mongoFilter["storeName"] = primitive.Regex{Pattern: regexp.QuoteMeta(storeName), Options: "i"}
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if paging.Limit > 0 {
		findOpts.SetLimit(int64(paging.Limit))
		if paging.Page > 1 {
			findOpts.SetSkip(int64((paging.Page - 1) * paging.Limit))
		}
	}

	cursor, err := r.collection.Find(ctx, mongoFilter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orphans := make([]domain.OrphanedUpload, 0)
	for cursor.Next(ctx) {
		var doc OrphanedUploadDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		orphans = append(orphans, fromOrphanDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return orphans, nil
}

// MarkResolved は手動での照合が済んだ記録を resolved に更新する。
func (r *OrphanRepository) MarkResolved(ctx context.Context, id string) (*domain.OrphanedUpload, error) {
	resolvedAt := r.now().UTC()
	update := bson.M{"$set": bson.M{
		"status":     domain.OrphanStatusResolved,
		"resolvedAt": resolvedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc OrphanedUploadDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrOrphanNotFound
	}
	if err != nil {
		return nil, err
	}
	orphan := fromOrphanDocument(doc)
	return &orphan, nil
}

func toOrphanDocument(orphan domain.OrphanedUpload) OrphanedUploadDocument {
	return OrphanedUploadDocument{
		ID:           orphan.ID,
		SubmissionID: orphan.SubmissionID,
		StoreName:    orphan.StoreName,
		StoreAddress: orphan.StoreAddress,
		ItemType:     orphan.ItemType,
		Level:        orphan.Level,
		Notes:        orphan.Notes,
		FileID:       orphan.FileID,
		FileName:     orphan.FileName,
		FolderID:     orphan.FolderID,
		ViewLink:     orphan.ViewLink,
		Row:          append([]any{}, orphan.Row...),
		Error:        orphan.Error,
		Status:       orphan.Status,
		CreatedAt:    orphan.CreatedAt,
		ResolvedAt:   orphan.ResolvedAt,
	}
}

func fromOrphanDocument(doc OrphanedUploadDocument) domain.OrphanedUpload {
	return domain.OrphanedUpload{
		ID:           doc.ID,
		SubmissionID: doc.SubmissionID,
		StoreName:    doc.StoreName,
		StoreAddress: doc.StoreAddress,
		ItemType:     doc.ItemType,
		Level:        doc.Level,
		Notes:        doc.Notes,
		FileID:       doc.FileID,
		FileName:     doc.FileName,
		FolderID:     doc.FolderID,
		ViewLink:     doc.ViewLink,
		Row:          domain.Row(append([]any{}, doc.Row...)),
		Error:        doc.Error,
		Status:       doc.Status,
		CreatedAt:    doc.CreatedAt,
		ResolvedAt:   doc.ResolvedAt,
	}
}
