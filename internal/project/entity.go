// AngelaMos | 2026
// entity.go

package project

import (
	"time"
)

type File struct {
	ID          string    `db:"id"`
	Seq         int64     `db:"seq"`
	ProjectID   string    `db:"project_id"`
	Name        string    `db:"name"`
	URL         string    `db:"url"`
	ObjectKey   string    `db:"object_key"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	UploadedAt  time.Time `db:"uploaded_at"`
}
