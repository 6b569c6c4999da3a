package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

// StorageLocator finds or creates the per-store folder under an intake root.
//
// Lookup and create are two separate backend calls, so two concurrent first
// submissions for the same store may both create a folder. That duplicate is
// accepted; the backend stays the source of truth and the first listed match
// wins on later lookups.
type StorageLocator struct {
	storage ObjectStorage
}

// NewStorageLocator creates a locator on top of storage.
func NewStorageLocator(storage ObjectStorage) *StorageLocator {
	return &StorageLocator{storage: storage}
}

// Resolve returns the folder for storeName under rootID, creating it on first use.
func (l *StorageLocator) Resolve(ctx context.Context, rootID, storeName string) (domain.StorageLocation, error) {
	const op = "resolve store folder"

	name := domain.SanitizeName(storeName)
	folders, err := l.storage.ListFolders(ctx, rootID, name)
	if err != nil {
		return domain.StorageLocation{}, domain.NewError(domain.KindStorageBackend, op, fmt.Errorf("lookup %q: %w", name, err))
	}
	for _, folder := range folders {
		if folder.Name == name && folder.ID != "" {
			return domain.StorageLocation{FolderID: folder.ID}, nil
		}
	}

	id, err := l.storage.CreateFolder(ctx, rootID, name)
	if err != nil {
		return domain.StorageLocation{}, domain.NewError(domain.KindStorageBackend, op, fmt.Errorf("create %q: %w", name, err))
	}
	if id == "" {
		return domain.StorageLocation{}, domain.NewError(domain.KindStorageBackend, op, errors.New("folder created without an id"))
	}
	return domain.StorageLocation{FolderID: id}, nil
}
