package application_test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

type createdFile struct {
	ParentID string
	Name     string
	MimeType string
	Body     []byte
}

// fakeStorage is an in-memory ObjectStorage that records every call.
type fakeStorage struct {
	mu sync.Mutex

	folders map[string]string // "parent/name" -> id
	files   []createdFile

	listCalls   int
	createCalls int
	fileCalls   int

	listErr       error
	createErr     error
	fileErr       error
	emptyFolderID bool
	emptyFileID   bool
	omitViewLink  bool
	storedName    string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{folders: map[string]string{}}
}

func (f *fakeStorage) ListFolders(_ context.Context, parentID, name string) ([]domain.FolderRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if id, ok := f.folders[parentID+"/"+name]; ok {
		return []domain.FolderRef{{ID: id, Name: name}}, nil
	}
	return nil, nil
}

func (f *fakeStorage) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.emptyFolderID {
		return "", nil
	}
	id := fmt.Sprintf("folder-%d", f.createCalls)
	f.folders[parentID+"/"+name] = id
	return id, nil
}

func (f *fakeStorage) CreateFile(_ context.Context, parentID, name, mimeType string, body io.Reader) (domain.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileCalls++
	if f.fileErr != nil {
		return domain.StoredFile{}, f.fileErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return domain.StoredFile{}, err
	}
	f.files = append(f.files, createdFile{ParentID: parentID, Name: name, MimeType: mimeType, Body: data})
	if f.emptyFileID {
		return domain.StoredFile{}, nil
	}
	id := fmt.Sprintf("file-%d", len(f.files))
	stored := domain.StoredFile{ID: id, Name: f.storedName}
	if !f.omitViewLink {
		stored.ViewLink = "https://storage.test/view/" + id
	}
	return stored, nil
}

func (f *fakeStorage) ViewLink(fileID string) string {
	return "https://storage.test/derived/" + fileID
}

func (f *fakeStorage) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls + f.createCalls + f.fileCalls
}

type fakeAppender struct {
	mu   sync.Mutex
	rows []domain.Row
	err  error
	hits int
}

func (f *fakeAppender) AppendRow(_ context.Context, row domain.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

type fakeOrphans struct {
	mu       sync.Mutex
	recorded []domain.OrphanedUpload
	ctxErr   error
}

func (f *fakeOrphans) RecordOrphan(ctx context.Context, orphan domain.OrphanedUpload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	f.recorded = append(f.recorded, orphan)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []domain.OrphanedUpload
	ctxErr   error
	err      error
	// release, when set, blocks NotifyOrphan until it is closed.
	release chan struct{}
}

func (f *fakeNotifier) NotifyOrphan(ctx context.Context, orphan domain.OrphanedUpload) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	f.notified = append(f.notified, orphan)
	return f.err
}

func (f *fakeNotifier) snapshot() []domain.OrphanedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrphanedUpload(nil), f.notified...)
}
