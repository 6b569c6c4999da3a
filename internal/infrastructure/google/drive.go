package google

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	viewLinkFormat = "https://drive.google.com/file/d/%s/view"
)

// DriveStorage implements application.ObjectStorage on Google Drive.
//
// Every call sets supportsAllDrives and listings set includeItemsFromAllDrives,
// since the intake root usually lives in a shared drive. Sharing is inherited
// from the intake folder; no permissions are created here.
type DriveStorage struct {
	files *drive.FilesService
}

// NewDriveStorage creates a Drive client from service-account credentials.
// Extra client options (endpoint, HTTP client) are appended after the token source.
func NewDriveStorage(ctx context.Context, creds Credentials, opts ...option.ClientOption) (*DriveStorage, error) {
	ts, err := creds.TokenSource(ctx, DriveScope)
	if err != nil {
		return nil, err
	}
	return NewDriveStorageWithOptions(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

// NewDriveStorageWithOptions creates a Drive client from raw client options.
func NewDriveStorageWithOptions(ctx context.Context, opts ...option.ClientOption) (*DriveStorage, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveStorage{files: svc.Files}, nil
}

// ListFolders returns non-trashed folders named name directly under parentID.
func (d *DriveStorage) ListFolders(ctx context.Context, parentID, name string) ([]domain.FolderRef, error) {
	res, err := d.files.List().
		Q(folderQuery(parentID, name)).
		Fields("files(id, name)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive list folders: %w", err)
	}

	folders := make([]domain.FolderRef, 0, len(res.Files))
	for _, f := range res.Files {
		folders = append(folders, domain.FolderRef{ID: f.Id, Name: f.Name})
	}
	return folders, nil
}

// CreateFolder creates a folder named name under parentID.
func (d *DriveStorage) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	folder := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}
	created, err := d.files.Create(folder).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive create folder: %w", err)
	}
	return created.Id, nil
}

// CreateFile streams body into a new file under parentID.
func (d *DriveStorage) CreateFile(ctx context.Context, parentID, name, mimeType string, body io.Reader) (domain.StoredFile, error) {
	file := &drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{parentID},
	}
	created, err := d.files.Create(file).
		Media(body, googleapi.ContentType(mimeType)).
		Fields("id, webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("drive create file: %w", err)
	}
	return domain.StoredFile{ID: created.Id, ViewLink: created.WebViewLink}, nil
}

// ViewLink returns the canonical Drive viewer URL for fileID.
func (d *DriveStorage) ViewLink(fileID string) string {
	return fmt.Sprintf(viewLinkFormat, fileID)
}

func folderQuery(parentID, name string) string {
	return fmt.Sprintf("'%s' in parents and mimeType = '%s' and name = '%s' and trashed = false",
		escapeQueryValue(parentID), folderMimeType, escapeQueryValue(name))
}

// escapeQueryValue escapes a literal for the Drive search grammar.
func escapeQueryValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `'`, `\'`)
}
