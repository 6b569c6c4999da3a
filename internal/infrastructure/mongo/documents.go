package mongo

import (
	"time"
)

// RowDocument は表形式ログの 1 行を MongoDB 上で表現したもの。
// cells は列順を保持したまま保存する。
type RowDocument struct {
	Sheet     string    `bson:"sheet"`
	Cells     []any     `bson:"cells"`
	StoreName string    `bson:"storeName,omitempty"`
	ItemType  string    `bson:"itemType,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

// OrphanedUploadDocument は行追加に失敗した写真アップロードの記録。
type OrphanedUploadDocument struct {
	ID           string     `bson:"_id"`
	SubmissionID string     `bson:"submissionId"`
	StoreName    string     `bson:"storeName"`
	StoreAddress string     `bson:"storeAddress,omitempty"`
	ItemType     string     `bson:"itemType"`
	Level        int        `bson:"level"`
	Notes        string     `bson:"notes,omitempty"`
	FileID       string     `bson:"fileId"`
	FileName     string     `bson:"fileName"`
	FolderID     string     `bson:"folderId,omitempty"`
	ViewLink     string     `bson:"viewLink,omitempty"`
	Row          []any      `bson:"row,omitempty"`
	Error        string     `bson:"error"`
	Status       string     `bson:"status"`
	CreatedAt    time.Time  `bson:"createdAt"`
	ResolvedAt   *time.Time `bson:"resolvedAt,omitempty"`
}

// FailedNotificationDocument は送信に失敗したオペレーター通知を保持する。
type FailedNotificationDocument struct {
	Target      string         `bson:"target"`
	Payload     map[string]any `bson:"payload"`
	Error       string         `bson:"error"`
	Attempts    int            `bson:"attempts"`
	Status      string         `bson:"status"`
	CreatedAt   time.Time      `bson:"createdAt"`
	LastTriedAt time.Time      `bson:"lastTriedAt"`
}
