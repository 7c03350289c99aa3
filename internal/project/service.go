// AngelaMos | 2026
// service.go

package project

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ltl-studio/backend/internal/core"
	"github.com/ltl-studio/backend/internal/storage"
)

type Upload struct {
	UserEmail   string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	repo   Repository
	blobs  storage.BlobStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, blobs storage.BlobStore, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
		now:    time.Now,
	}
}

// Upload stores the blob first and records it second. If recording
// fails the blob is removed again.
func (s *Service) Upload(ctx context.Context, up Upload) (*File, error) {
	email := core.NormalizeEmail(up.UserEmail)
	if email == "" {
		return nil, fmt.Errorf("%w: userEmail is required", core.ErrInvalidInput)
	}

	name := cleanFileName(up.FileName)
	id := uuid.New().String()
	key := fmt.Sprintf("projects/%s/%s-%s", email, id, name)

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := s.blobs.Put(ctx, key, up.Body, up.Size, contentType)
	if err != nil {
		return nil, err
	}

	f := &File{
		ID:          id,
		Name:        name,
		URL:         obj.URL,
		ObjectKey:   obj.Key,
		ContentType: contentType,
		Size:        obj.Size,
		UploadedAt:  s.now().UTC(),
	}

	if err := s.repo.AddFile(ctx, email, f); err != nil {
		s.removeBlob(ctx, key)
		return nil, err
	}

	s.logger.Info("project file uploaded",
		"email", email,
		"file_id", f.ID,
		"size", f.Size,
	)

	return f, nil
}

func (s *Service) ListFiles(ctx context.Context, email string) ([]File, error) {
	return s.repo.ListFiles(ctx, core.NormalizeEmail(email))
}

// DeleteFile drops the record; the stored blob is removed best-effort.
func (s *Service) DeleteFile(ctx context.Context, email, fileID string) error {
	f, err := s.repo.DeleteFile(ctx, core.NormalizeEmail(email), fileID)
	if err != nil {
		return err
	}

	s.removeBlob(ctx, f.ObjectKey)
	return nil
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("blob removal failed", "key", key, "error", err)
	}
}

func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '/', r == '?', r == '#':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))

	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}
