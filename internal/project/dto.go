// AngelaMos | 2026
// dto.go

package project

import (
	"time"
)

type FileResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	FileURL     string    `json:"fileUrl"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type UploadResponse struct {
	Success bool         `json:"success"`
	File    FileResponse `json:"file"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ToFileResponse(f *File) FileResponse {
	return FileResponse{
		ID:          f.ID,
		FileName:    f.Name,
		FileURL:     f.URL,
		ContentType: f.ContentType,
		Size:        f.Size,
		UploadedAt:  f.UploadedAt,
	}
}

func ToFileResponseList(files []File) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for i := range files {
		out = append(out, ToFileResponse(&files[i]))
	}
	return out
}
