// AngelaMos | 2026
// repository.go

package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ltl-studio/backend/internal/core"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrFileNotFound    = errors.New("file not found")
)

type Repository interface {
	// AddFile appends f to the project of email, creating the project on
	// first upload. f.ProjectID and f.Seq are filled in.
	AddFile(ctx context.Context, email string, f *File) error
	ListFiles(ctx context.Context, email string) ([]File, error)
	DeleteFile(ctx context.Context, email, fileID string) (*File, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const fileColumns = `f.id, f.seq, f.project_id, f.name, f.url, f.object_key,
		       f.content_type, f.size, f.uploaded_at`

func (r *repository) AddFile(ctx context.Context, email string, f *File) error {
	query := `
		WITH p AS (
			INSERT INTO projects (id, user_email, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_email)
			DO UPDATE SET user_email = EXCLUDED.user_email
			RETURNING id
		)
		INSERT INTO project_files (
			id, project_id, name, url, object_key, content_type, size, uploaded_at
		)
		SELECT $4, p.id, $5, $6, $7, $8, $9, $3 FROM p
		RETURNING project_id, seq`

	row := r.db.QueryRowxContext(ctx, query,
		uuid.New().String(),
		email,
		f.UploadedAt,
		f.ID,
		f.Name,
		f.URL,
		f.ObjectKey,
		f.ContentType,
		f.Size,
	)
	if err := row.Scan(&f.ProjectID, &f.Seq); err != nil {
		return fmt.Errorf("add project file: %w", err)
	}

	return nil
}

func (r *repository) ListFiles(ctx context.Context, email string) ([]File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM project_files f
		JOIN projects p ON p.id = f.project_id
		WHERE p.user_email = $1
		ORDER BY f.seq ASC`

	files := []File{}
	if err := r.db.SelectContext(ctx, &files, query, email); err != nil {
		return nil, fmt.Errorf("list project files: %w", err)
	}

	return files, nil
}

func (r *repository) DeleteFile(ctx context.Context, email, fileID string) (*File, error) {
	var projectID string
	err := r.db.GetContext(ctx, &projectID,
		`SELECT id FROM projects WHERE user_email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delete project file: %w: %w", core.ErrNotFound, ErrProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("delete project file: %w", err)
	}

	if _, err := uuid.Parse(fileID); err != nil {
		return nil, fmt.Errorf("delete project file: %w: %w", core.ErrNotFound, ErrFileNotFound)
	}

	query := `
		DELETE FROM project_files f
		WHERE f.id = $1 AND f.project_id = $2
		RETURNING ` + fileColumns

	var f File
	err = r.db.GetContext(ctx, &f, query, fileID, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("delete project file: %w: %w", core.ErrNotFound, ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("delete project file: %w", err)
	}

	return &f, nil
}
