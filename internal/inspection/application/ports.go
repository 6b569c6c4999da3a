package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// ObjectStorage is the port onto the photo store (Drive, S3, local disk).
// Implementations must be safe for concurrent use.
type ObjectStorage interface {
	// ListFolders returns non-deleted child folders of parentID named exactly name.
	ListFolders(ctx context.Context, parentID, name string) ([]domain.FolderRef, error)
	CreateFolder(ctx context.Context, parentID, name string) (string, error)
	// CreateFile streams body into a new file. ViewLink may be empty.
	CreateFile(ctx context.Context, parentID, name, mimeType string, body io.Reader) (domain.StoredFile, error)
	// ViewLink derives a stable link from a file id when the backend returned none.
	ViewLink(fileID string) string
}

// TabularAppender is the port onto the inspection log (Google Sheets, Mongo).
type TabularAppender interface {
	AppendRow(ctx context.Context, row domain.Row) error
}

// OrphanRecorder persists uploads whose row append failed.
type OrphanRecorder interface {
	RecordOrphan(ctx context.Context, orphan domain.OrphanedUpload) error
}

// OrphanNotifier alerts operators about an orphaned upload.
type OrphanNotifier interface {
	NotifyOrphan(ctx context.Context, orphan domain.OrphanedUpload) error
}

// OrphanRepository backs the operator reconciliation use-cases.
type OrphanRepository interface {
	OrphanRecorder
	Find(ctx context.Context, filter OrphanFilter, paging Paging) ([]domain.OrphanedUpload, error)
	MarkResolved(ctx context.Context, id string) (*domain.OrphanedUpload, error)
}

// ErrOrphanNotFound is returned when no orphaned upload matches an id.
var ErrOrphanNotFound = errors.New("orphaned upload not found")

// OrphanFilter expresses search criteria for orphaned uploads.
type OrphanFilter struct {
	Status    string
	StoreName string
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
