// Package local stores intake photos on the local filesystem. It is meant for
// development and single-node deployments.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

const maxNameAttempts = 100

// Storage implements application.ObjectStorage on a base directory. Ids are
// slash separated paths relative to the base directory.
type Storage struct {
	baseDir      string
	mediaBaseURL string
}

// NewStorage creates the base directory when missing.
func NewStorage(baseDir, mediaBaseURL string) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Storage{baseDir: baseDir, mediaBaseURL: strings.TrimRight(mediaBaseURL, "/")}, nil
}

// ListFolders reports the directory name under parentID, if it exists.
func (s *Storage) ListFolders(ctx context.Context, parentID, name string) ([]domain.FolderRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := joinID(parentID, name)
	info, err := os.Stat(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat folder: %w", err)
	}
	if !info.IsDir() {
		return nil, nil
	}
	return []domain.FolderRef{{ID: id, Name: name}}, nil
}

// CreateFolder creates the directory name under parentID.
func (s *Storage) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := joinID(parentID, name)
	if err := os.MkdirAll(s.path(id), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	return id, nil
}

// CreateFile copies body into parentID/name. An existing file is never
// overwritten; the name gets a " (n)" suffix instead. The mime type is not persisted.
func (s *Storage) CreateFile(ctx context.Context, parentID, name, _ string, body io.Reader) (domain.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredFile{}, err
	}
	if err := os.MkdirAll(s.path(strings.Trim(parentID, "/")), 0o755); err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to create directory: %w", err)
	}

	for n := 1; n <= maxNameAttempts; n++ {
		candidate := domain.NumberedFileName(name, n)
		id := joinID(parentID, candidate)
		target := s.path(id)

		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return domain.StoredFile{}, fmt.Errorf("failed to create file: %w", err)
		}
		if _, err := io.Copy(f, body); err != nil {
			f.Close()
			os.Remove(target)
			return domain.StoredFile{}, fmt.Errorf("failed to save file: %w", err)
		}
		if err := f.Close(); err != nil {
			return domain.StoredFile{}, fmt.Errorf("failed to save file: %w", err)
		}
		return domain.StoredFile{ID: id, Name: candidate, ViewLink: s.ViewLink(id)}, nil
	}
	return domain.StoredFile{}, fmt.Errorf("failed to create file: %d names taken for %q", maxNameAttempts, name)
}

// ViewLink returns MEDIA_BASE_URL/<id> when configured, a file:// URL otherwise.
func (s *Storage) ViewLink(fileID string) string {
	if s.mediaBaseURL != "" {
		segments := strings.Split(fileID, "/")
		for i, segment := range segments {
			segments[i] = url.PathEscape(segment)
		}
		return s.mediaBaseURL + "/" + strings.Join(segments, "/")
	}
	abs, err := filepath.Abs(s.path(fileID))
	if err != nil {
		abs = s.path(fileID)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

func (s *Storage) path(id string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(id))
}

func joinID(parent, name string) string {
	parent = strings.Trim(parent, "/")
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
