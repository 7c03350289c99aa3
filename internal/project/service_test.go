// AngelaMos | 2026
// service_test.go

package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltl-studio/backend/internal/core"
	"github.com/ltl-studio/backend/internal/storage"
)

type memoryRepository struct {
	mu       sync.Mutex
	projects map[string]string
	files    []File
	seq      int64
	err      error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{projects: make(map[string]string)}
}

func (m *memoryRepository) AddFile(_ context.Context, email string, f *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	id, ok := m.projects[email]
	if !ok {
		id = fmt.Sprintf("project-%d", len(m.projects)+1)
		m.projects[email] = id
	}
	m.seq++
	f.ProjectID = id
	f.Seq = m.seq
	m.files = append(m.files, *f)
	return nil
}

func (m *memoryRepository) ListFiles(_ context.Context, email string) ([]File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []File{}
	id, ok := m.projects[email]
	if !ok {
		return out, nil
	}
	for _, f := range m.files {
		if f.ProjectID == id {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *memoryRepository) DeleteFile(_ context.Context, email, fileID string) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.projects[email]
	if !ok {
		return nil, fmt.Errorf("delete project file: %w: %w", core.ErrNotFound, ErrProjectNotFound)
	}
	for i, f := range m.files {
		if f.ID == fileID && f.ProjectID == id {
			m.files = append(m.files[:i], m.files[i+1:]...)
			return &f, nil
		}
	}
	return nil, fmt.Errorf("delete project file: %w: %w", core.ErrNotFound, ErrFileNotFound)
}

type memoryBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	deleteErr error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: make(map[string][]byte)}
}

func (b *memoryBlobs) Put(
	_ context.Context,
	key string,
	r io.Reader,
	_ int64,
	_ string,
) (*storage.Object, error) {
	if b.putErr != nil {
		return nil, b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return &storage.Object{
		Key:  key,
		URL:  "https://files.example.com/" + key,
		Size: int64(len(data)),
	}, nil
}

func (b *memoryBlobs) Delete(_ context.Context, key string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memoryBlobs) Ping(context.Context) error { return nil }

func (b *memoryBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func newTestService() (*Service, *memoryRepository, *memoryBlobs) {
	repo := newMemoryRepository()
	blobs := newMemoryBlobs()
	svc := NewService(repo, blobs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo, blobs
}

func upload(email, name, body string) Upload {
	return Upload{
		UserEmail:   email,
		FileName:    name,
		ContentType: "audio/wav",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestUploadCreatesProjectLazily(t *testing.T) {
	svc, _, blobs := newTestService()
	ctx := context.Background()

	empty, err := svc.ListFiles(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := svc.Upload(ctx, upload("New@Example.com", "demo.wav", "abc"))
	require.NoError(t, err)
	second, err := svc.Upload(ctx, upload("new@example.com", "final.wav", "defg"))
	require.NoError(t, err)

	assert.Equal(t, first.ProjectID, second.ProjectID)
	assert.True(t, strings.HasPrefix(first.ObjectKey, "projects/new@example.com/"))
	assert.Equal(t, int64(4), second.Size)
	assert.Equal(t, 2, blobs.count())

	files, err := svc.ListFiles(ctx, "new@example.com")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "demo.wav", files[0].Name)
	assert.Equal(t, "final.wav", files[1].Name)
}

func TestUploadStorageFailure(t *testing.T) {
	svc, repo, blobs := newTestService()
	blobs.putErr = fmt.Errorf("put object: %w", core.ErrUpstream)

	_, err := svc.Upload(context.Background(), upload("x@example.com", "a.wav", "1"))
	assert.ErrorIs(t, err, core.ErrUpstream)
	assert.Empty(t, repo.files)
}

func TestUploadRecordFailureRemovesBlob(t *testing.T) {
	svc, repo, blobs := newTestService()
	repo.err = errors.New("database down")

	_, err := svc.Upload(context.Background(), upload("x@example.com", "a.wav", "1"))
	require.Error(t, err)
	assert.Equal(t, 0, blobs.count())
}

func TestDeleteFile(t *testing.T) {
	svc, _, blobs := newTestService()
	ctx := context.Background()

	f, err := svc.Upload(ctx, upload("d@example.com", "a.wav", "1"))
	require.NoError(t, err)

	err = svc.DeleteFile(ctx, "nobody@example.com", f.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	err = svc.DeleteFile(ctx, "d@example.com", "missing")
	assert.ErrorIs(t, err, ErrFileNotFound)

	require.NoError(t, svc.DeleteFile(ctx, "d@example.com", f.ID))
	assert.Equal(t, 0, blobs.count())

	err = svc.DeleteFile(ctx, "d@example.com", f.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDeleteFileBlobFailureIsBestEffort(t *testing.T) {
	svc, _, blobs := newTestService()
	ctx := context.Background()

	f, err := svc.Upload(ctx, upload("d@example.com", "a.wav", "1"))
	require.NoError(t, err)

	blobs.deleteErr = errors.New("minio unreachable")
	assert.NoError(t, svc.DeleteFile(ctx, "d@example.com", f.ID))
}

func TestCleanFileName(t *testing.T) {
	assert.Equal(t, "mix.wav", cleanFileName("../../etc/mix.wav"))
	assert.Equal(t, "track.mp3", cleanFileName(`C:\Users\me\track.mp3`))
	assert.Equal(t, "upload", cleanFileName("  "))
	assert.Equal(t, "a_b.wav", cleanFileName("a?b.wav"))
}

func multipartBody(t *testing.T, email, name, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if email != "" {
		require.NoError(t, mw.WriteField("userEmail", email))
	}
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandlerUploadListDelete(t *testing.T) {
	svc, _, _ := newTestService()
	r := chi.NewRouter()
	NewHandler(svc, 1<<20).RegisterRoutes(r)

	body, contentType := multipartBody(t, "h@example.com", "song.wav", "riff")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"fileName":"song.wav"`)

	files, err := svc.ListFiles(context.Background(), "h@example.com")
	require.NoError(t, err)
	require.Len(t, files, 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/h@example.com", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), files[0].ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete,
		"/projects/h@example.com/files/"+files[0].ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"File deleted successfully."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete,
		"/projects/ghost@example.com/files/"+files[0].ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Project not found.")
}

func TestHandlerUploadWithoutFile(t *testing.T) {
	svc, _, _ := newTestService()
	r := chi.NewRouter()
	NewHandler(svc, 1<<20).RegisterRoutes(r)

	body, contentType := multipartBody(t, "h@example.com", "", "")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file uploaded.")
}

func TestHandlerUploadTooLarge(t *testing.T) {
	svc, _, _ := newTestService()
	r := chi.NewRouter()
	NewHandler(svc, 64).RegisterRoutes(r)

	body, contentType := multipartBody(t, "h@example.com", "big.wav", strings.Repeat("x", 1024))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
