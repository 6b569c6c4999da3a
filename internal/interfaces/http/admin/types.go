package admin

import (
	"time"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

type orphanResponse struct {
	ID           string     `json:"id"`
	SubmissionID string     `json:"submissionId"`
	StoreName    string     `json:"storeName"`
	StoreAddress string     `json:"storeAddress,omitempty"`
	ItemType     string     `json:"itemType"`
	Level        int        `json:"level"`
	Notes        string     `json:"notes,omitempty"`
	FileID       string     `json:"fileId"`
	FileName     string     `json:"fileName"`
	FolderID     string     `json:"folderId,omitempty"`
	ViewLink     string     `json:"viewLink"`
	Row          []any      `json:"row"`
	Error        string     `json:"error,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
}

type orphanListResponse struct {
	Items []orphanResponse `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type orphanResolveRequest struct {
	Status string `json:"status"`
}

// toOrphanResponse は孤立アップロードを運用者向けレスポンスへ変換する。
func toOrphanResponse(orphan domain.OrphanedUpload) orphanResponse {
	row := []any(orphan.Row)
	if row == nil {
		row = []any{}
	}
	return orphanResponse{
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
		Row:          row,
		Error:        orphan.Error,
		Status:       orphan.Status,
		CreatedAt:    orphan.CreatedAt,
		ResolvedAt:   orphan.ResolvedAt,
	}
}
