package domain

import (
	"io"
	"time"
)

// DefaultPhotoContentType is used when the client does not declare a MIME type.
const DefaultPhotoContentType = "image/jpeg"

// DefaultPhotoExtension is used when the uploaded filename has no extension.
const DefaultPhotoExtension = "jpg"

// Submission represents one validated inspection record.
type Submission struct {
	ID           string
	StoreName    string
	StoreAddress string
	ItemType     string
	Level        int
	Notes        string
	Photo        *Photo
	ReceivedAt   time.Time
}

// HasPhoto reports whether a non-empty photo is attached.
func (s Submission) HasPhoto() bool {
	return s.Photo != nil && s.Photo.Size > 0
}

// Photo is the optional binary part of a submission. Body is streamed to storage
// and is only valid for the lifetime of the request.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StorageLocation identifies the container a photo is written into.
type StorageLocation struct {
	FolderID string
}

// FolderRef is a child container returned by an object storage listing.
type FolderRef struct {
	ID   string
	Name string
}

// StoredFile is the minimal identity returned after a file was created. Name is
// the name the backend actually used; it may differ from the requested one.
type StoredFile struct {
	ID       string
	Name     string
	ViewLink string
}

// UploadedPhoto is the reference embedded into the appended row.
type UploadedPhoto struct {
	FileID      string
	DisplayName string
	ViewLink    string
	FolderID    string
}

// Row is the ordered list of cell values appended to the tabular log.
type Row []any

// PhotoColumn is the index of the photo cell, the only cell that may hold a
// generated formula. Every other string cell is user text.
const PhotoColumn = 5
