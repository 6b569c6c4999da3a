package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// FolderPolicy decides where photos land under the intake root.
type FolderPolicy string

const (
	// FolderPerStore groups photos in one child folder per sanitized store name.
	FolderPerStore FolderPolicy = "per-store"
	// FolderFlat writes photos directly into the intake root.
	FolderFlat FolderPolicy = "flat"
)

// ParseFolderPolicy maps a config value onto a FolderPolicy.
func ParseFolderPolicy(value string) (FolderPolicy, error) {
	switch FolderPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case FolderPerStore, "":
		return FolderPerStore, nil
	case FolderFlat:
		return FolderFlat, nil
	default:
		return "", fmt.Errorf("unknown folder policy %q", value)
	}
}

// PhotoUploader streams photos into object storage.
//
// It never touches per-file sharing. On shared drives such calls fail with an
// inherited-permission error; links must be readable through the sharing of
// the intake folder itself.
type PhotoUploader struct {
	storage ObjectStorage
	locator *StorageLocator
	policy  FolderPolicy
	now     Clock
}

// NewPhotoUploader creates an uploader.
func NewPhotoUploader(storage ObjectStorage, locator *StorageLocator, policy FolderPolicy, now Clock) *PhotoUploader {
	if now == nil {
		now = time.Now
	}
	if policy == "" {
		policy = FolderPerStore
	}
	return &PhotoUploader{storage: storage, locator: locator, policy: policy, now: now}
}

// Upload stores photo for storeName below rootID.
func (u *PhotoUploader) Upload(ctx context.Context, photo domain.Photo, storeName, rootID string) (domain.UploadedPhoto, error) {
	const op = "upload photo"

	folderID := rootID
	if u.policy == FolderPerStore {
		location, err := u.locator.Resolve(ctx, rootID, storeName)
		if err != nil {
			return domain.UploadedPhoto{}, err
		}
		folderID = location.FolderID
	}

	displayName := DisplayFileName(storeName, photo.Filename, u.now())
	mimeType := strings.TrimSpace(photo.ContentType)
	if mimeType == "" {
		mimeType = domain.DefaultPhotoContentType
	}

	stored, err := u.storage.CreateFile(ctx, folderID, displayName, mimeType, photo.Body)
	if err != nil {
		return domain.UploadedPhoto{}, domain.NewError(domain.KindUpload, op, fmt.Errorf("create %q: %w", displayName, err))
	}
	if stored.ID == "" {
		return domain.UploadedPhoto{}, domain.NewError(domain.KindUpload, op, errors.New("file created without an id"))
	}

	if name := strings.TrimSpace(stored.Name); name != "" {
		displayName = name
	}

	link := strings.TrimSpace(stored.ViewLink)
	if link == "" {
		link = u.storage.ViewLink(stored.ID)
	}

	return domain.UploadedPhoto{
		FileID:      stored.ID,
		DisplayName: displayName,
		ViewLink:    link,
		FolderID:    folderID,
	}, nil
}

// DisplayFileName builds "{sanitized store} - {epoch millis}.{ext}".
func DisplayFileName(storeName, filename string, at time.Time) string {
	return fmt.Sprintf("%s - %d.%s", domain.SanitizeName(storeName), at.UnixMilli(), domain.PhotoExtension(filename))
}
