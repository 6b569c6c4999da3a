package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// RowRepository は application.TabularAppender を MongoDB コレクションで実装する。
// 1 行 = 1 ドキュメントで、InsertOne が呼び出し単位で原子的であることに依存する。
type RowRepository struct {
	collection *mongo.Collection
	sheet      string
	now        func() time.Time
}

// NewRowRepository は行ログ用コレクションを束縛したリポジトリを生成する。
// sheet は論理的なシート名で、複数のログを 1 コレクションに同居させるために使う。
func NewRowRepository(db *mongo.Database, collectionName, sheet string) *RowRepository {
	return &RowRepository{
		collection: db.Collection(collectionName),
		sheet:      sheet,
		now:        time.Now,
	}
}

// AppendRow は行をそのままの列順で保存する。
func (r *RowRepository) AppendRow(ctx context.Context, row domain.Row) error {
	_, err := r.collection.InsertOne(ctx, newRowDocument(r.sheet, row, r.now()))
	if err != nil {
		return fmt.Errorf("mongo append row: %w", err)
	}
	return nil
}

func newRowDocument(sheet string, row domain.Row, at time.Time) RowDocument {
	doc := RowDocument{
		Sheet:     sheet,
		Cells:     append([]any{}, row...),
		CreatedAt: at.UTC(),
	}
	if len(row) > 0 {
		doc.StoreName, _ = row[0].(string)
	}
	if len(row) > 2 {
		doc.ItemType, _ = row[2].(string)
	}
	return doc
}
