package google

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestFolderQueryEscapesLiterals(t *testing.T) {
	q := folderQuery("root-id", `Joe's \ Store`)
	assert.Equal(t,
		`'root-id' in parents and mimeType = 'application/vnd.google-apps.folder' and name = 'Joe\'s \\ Store' and trashed = false`,
		q)
}

func TestDriveViewLink(t *testing.T) {
	d := &DriveStorage{}
	assert.Equal(t, "https://drive.google.com/file/d/abc123/view", d.ViewLink("abc123"))
}

type driveRecorder struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func newDriveTestServer(t *testing.T, rec *driveRecorder) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, r)
		rec.bodies = append(rec.bodies, string(body))
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"files":[{"id":"folder-1","name":"Metro 83"}]}`)
		case strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/"):
			_, _ = io.WriteString(w, `{"id":"file-1","webViewLink":"https://drive.google.com/file/d/file-1/view?usp=drivesdk"}`)
		default:
			_, _ = io.WriteString(w, `{"id":"folder-2"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestDrive(t *testing.T, srv *httptest.Server) *DriveStorage {
	t.Helper()
	d, err := NewDriveStorageWithOptions(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return d
}

func TestDriveListFolders(t *testing.T) {
	rec := &driveRecorder{}
	d := newTestDrive(t, newDriveTestServer(t, rec))

	folders, err := d.ListFolders(context.Background(), "root", "Metro 83")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "folder-1", folders[0].ID)
	assert.Equal(t, "Metro 83", folders[0].Name)

	require.Len(t, rec.requests, 1)
	query := rec.requests[0].URL.Query()
	assert.Equal(t, folderQuery("root", "Metro 83"), query.Get("q"))
	assert.Equal(t, "true", query.Get("supportsAllDrives"))
	assert.Equal(t, "true", query.Get("includeItemsFromAllDrives"))
}

func TestDriveCreateFolder(t *testing.T) {
	rec := &driveRecorder{}
	d := newTestDrive(t, newDriveTestServer(t, rec))

	id, err := d.CreateFolder(context.Background(), "root", "Metro 83")
	require.NoError(t, err)
	assert.Equal(t, "folder-2", id)

	require.Len(t, rec.requests, 1)
	assert.Equal(t, http.MethodPost, rec.requests[0].Method)
	assert.Equal(t, "true", rec.requests[0].URL.Query().Get("supportsAllDrives"))

	var file map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.bodies[0]), &file))
	assert.Equal(t, "Metro 83", file["name"])
	assert.Equal(t, folderMimeType, file["mimeType"])
	assert.Equal(t, []any{"root"}, file["parents"])
}

func TestDriveCreateFileStreamsMedia(t *testing.T) {
	rec := &driveRecorder{}
	d := newTestDrive(t, newDriveTestServer(t, rec))

	stored, err := d.CreateFile(context.Background(), "folder-1", "Metro 83 - 1.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "file-1", stored.ID)
	assert.Equal(t, "https://drive.google.com/file/d/file-1/view?usp=drivesdk", stored.ViewLink)

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, "true", req.URL.Query().Get("supportsAllDrives"))

	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/related", mediaType)

	reader := multipart.NewReader(strings.NewReader(rec.bodies[0]), params["boundary"])
	metaPart, err := reader.NextPart()
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.NewDecoder(metaPart).Decode(&meta))
	assert.Equal(t, "Metro 83 - 1.jpg", meta["name"])
	assert.Equal(t, []any{"folder-1"}, meta["parents"])

	mediaPart, err := reader.NextPart()
	require.NoError(t, err)
	media, err := io.ReadAll(mediaPart)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(media))
	assert.Equal(t, "image/jpeg", mediaPart.Header.Get("Content-Type"))
}
