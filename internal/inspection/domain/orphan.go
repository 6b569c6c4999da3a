package domain

import "time"

// Orphan statuses.
const (
	OrphanStatusPending  = "pending"
	OrphanStatusResolved = "resolved"
)

// OrphanedUpload records a photo that was stored while its row append failed.
// Operators reconcile these by hand.
type OrphanedUpload struct {
	ID           string
	SubmissionID string
	StoreName    string
	StoreAddress string
	ItemType     string
	Level        int
	Notes        string
	FileID       string
	FileName     string
	FolderID     string
	ViewLink     string
	Row          Row
	Error        string
	Status       string
	CreatedAt    time.Time
	ResolvedAt   *time.Time
}
