package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/inspection-intake/api/internal/config"
	"github.com/sngm3741/inspection-intake/api/internal/infrastructure/local"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/application"
	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
	"github.com/sngm3741/inspection-intake/api/internal/server"
)

const (
	testIssuer   = "ops-portal"
	testAudience = "inspection-ops"
)

var testSecret = []byte("operator-secret")

type memoryAppender struct {
	mu   sync.Mutex
	rows []domain.Row
	err  error
}

func (a *memoryAppender) AppendRow(_ context.Context, row domain.Row) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, row)
	return nil
}

type memoryOrphans struct {
	mu       sync.Mutex
	recorded []domain.OrphanedUpload
}

func (o *memoryOrphans) RecordOrphan(_ context.Context, orphan domain.OrphanedUpload) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	orphan.Status = domain.OrphanStatusPending
	o.recorded = append(o.recorded, orphan)
	return nil
}

func (o *memoryOrphans) Find(_ context.Context, _ application.OrphanFilter, _ application.Paging) ([]domain.OrphanedUpload, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.OrphanedUpload(nil), o.recorded...), nil
}

func (o *memoryOrphans) MarkResolved(_ context.Context, id string) (*domain.OrphanedUpload, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.recorded {
		if o.recorded[i].ID == id {
			o.recorded[i].Status = domain.OrphanStatusResolved
			orphan := o.recorded[i]
			return &orphan, nil
		}
	}
	return nil, application.ErrOrphanNotFound
}

type fixture struct {
	handler  http.Handler
	baseDir  string
	appender *memoryAppender
	orphans  *memoryOrphans
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	baseDir := t.TempDir()
	storage, err := local.NewStorage(baseDir, "https://media.test")
	require.NoError(t, err)

	cfg := config.Config{
		AllowedOrigins:      []string{"https://form.example.com"},
		FolderPolicy:        application.FolderPerStore,
		RowLayout:           application.LayoutExtended,
		PhotoCell:           application.PhotoCellHyperlink,
		OperatorJWT:         []config.JWTConfig{{Issuer: testIssuer, Secret: testSecret}},
		OperatorJWTAudience: testAudience,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{baseDir: baseDir, appender: &memoryAppender{}, orphans: &memoryOrphans{}}
	srv := server.NewWithGateways(cfg, zerolog.Nop(), server.Gateways{
		Storage:  storage,
		Appender: f.appender,
		Orphans:  f.orphans,
	})
	f.handler = srv.Handler()
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func submissionRequest(t *testing.T, storeName string, photo []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("storeName", storeName))
	require.NoError(t, writer.WriteField("storeAddress", "1 Main St"))
	require.NoError(t, writer.WriteField("itemType", "door sweep"))
	require.NoError(t, writer.WriteField("level", "2"))
	if photo != nil {
		part, err := writer.CreateFormFile("photo", "IMG_0001.JPG")
		require.NoError(t, err)
		_, err = part.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/inspection", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func signToken(t *testing.T, secret []byte, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   "operator-1",
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestSubmissionWithPhotoEndToEnd(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(submissionRequest(t, "Metro #83!", []byte("jpeg-bytes")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		OK       bool   `json:"ok"`
		PhotoURL string `json:"photoUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.True(t, strings.HasPrefix(resp.PhotoURL, "https://media.test/Metro%2083/Metro%2083%20-%20"), resp.PhotoURL)

	entries, err := os.ReadDir(filepath.Join(f.baseDir, "Metro 83"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".jpg"))
	data, err := os.ReadFile(filepath.Join(f.baseDir, "Metro 83", entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.Len(t, f.appender.rows, 1)
	row := f.appender.rows[0]
	require.Len(t, row, 9)
	assert.Equal(t, "Metro #83!", row[0])
	assert.Equal(t, "Door Sweep", row[2])
	assert.True(t, strings.HasPrefix(row[5].(string), `=HYPERLINK("https://media.test/Metro%2083/`), row[5])
	assert.Equal(t, []any{"", "", ""}, []any(row[6:]))
}

func TestSubmissionReusesStoreFolder(t *testing.T) {
	f := newFixture(t, nil)

	require.Equal(t, http.StatusOK, f.do(submissionRequest(t, "Metro 83", []byte("one"))).Code)
	time.Sleep(2 * time.Millisecond)
	require.Equal(t, http.StatusOK, f.do(submissionRequest(t, "  Metro   83 ", []byte("two"))).Code)

	dirs, err := os.ReadDir(f.baseDir)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "Metro 83", dirs[0].Name())

	files, err := os.ReadDir(filepath.Join(f.baseDir, "Metro 83"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestSubmissionFlatLayoutWithoutPhoto(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.RowLayout = application.LayoutFlat
	})

	rec := f.do(submissionRequest(t, "Corner Shop", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	require.Len(t, f.appender.rows, 1)
	assert.Len(t, f.appender.rows[0], 6)
	assert.Equal(t, "", f.appender.rows[0][5])

	entries, err := os.ReadDir(f.baseDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmissionValidationHasNoSideEffects(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(submissionRequest(t, "   ", []byte("jpeg-bytes")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	entries, err := os.ReadDir(f.baseDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, f.appender.rows)
}

func TestAppendFailureRecordsOrphan(t *testing.T) {
	f := newFixture(t, nil)
	f.appender.err = errors.New("quota exceeded")

	rec := f.do(submissionRequest(t, "Metro 83", []byte("jpeg-bytes")))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to submit inspection", resp["error"])
	assert.Contains(t, resp["details"], "quota exceeded")

	require.Len(t, f.orphans.recorded, 1)
	orphan := f.orphans.recorded[0]
	assert.Equal(t, "Metro 83", orphan.StoreName)
	assert.NotEmpty(t, orphan.FileID)
	assert.FileExists(t, filepath.Join(f.baseDir, filepath.FromSlash(orphan.FileID)))
}

func TestCORS(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/inspection", nil)
	req.Header.Set("Origin", "https://form.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := f.do(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://form.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	req = httptest.NewRequest(http.MethodGet, "/api/item-types", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = f.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthzWithoutMongo(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	require.Equal(t, http.StatusOK, f.do(submissionRequest(t, "Metro 83", nil)).Code)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "inspection_submissions_total")
}

func TestAdminRequiresToken(t *testing.T) {
	f := newFixture(t, nil)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"someone-else"}
	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "elsewhere"
	noSubject := validClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic abc",
		"wrong secret":    "Bearer " + signToken(t, []byte("other"), validClaims()),
		"expired":         "Bearer " + signToken(t, testSecret, expired),
		"wrong audience":  "Bearer " + signToken(t, testSecret, wrongAudience),
		"wrong issuer":    "Bearer " + signToken(t, testSecret, wrongIssuer),
		"missing subject": "Bearer " + signToken(t, testSecret, noSubject),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/orphaned-uploads", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
		})
	}
}

func TestAdminReconcilesOrphan(t *testing.T) {
	f := newFixture(t, nil)
	f.appender.err = errors.New("quota exceeded")
	require.Equal(t, http.StatusInternalServerError, f.do(submissionRequest(t, "Metro 83", []byte("jpeg"))).Code)
	require.Len(t, f.orphans.recorded, 1)
	orphanID := f.orphans.recorded[0].ID
	require.NotEmpty(t, orphanID)

	token := "Bearer " + signToken(t, testSecret, validClaims())

	req := httptest.NewRequest(http.MethodGet, "/admin/orphaned-uploads?status=pending", nil)
	req.Header.Set("Authorization", token)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, orphanID, list.Items[0].ID)

	req = httptest.NewRequest(http.MethodPatch, "/admin/orphaned-uploads/"+orphanID, strings.NewReader(`{"status":"resolved"}`))
	req.Header.Set("Authorization", token)
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.OrphanStatusResolved, f.orphans.recorded[0].Status)
}

func TestAdminDisabledWithoutJWT(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.OperatorJWT = nil
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/orphaned-uploads", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
	assert.Equal(t, http.StatusNotFound, f.do(req).Code)
}
