// AngelaMos | 2026
// handler.go

package project

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ltl-studio/backend/internal/core"
)

const multipartMemory = 8 << 20

type Handler struct {
	service        *Service
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Get("/projects/{email}", h.ListFiles)
	r.Delete("/projects/{email}/files/{fileId}", h.DeleteFile)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.JSONError(w, core.NewAppError(
				err,
				"File is too large.",
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
			))
			return
		}
		core.BadRequest(w, "No file uploaded.")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		core.BadRequest(w, "No file uploaded.")
		return
	}
	defer func() { _ = file.Close() }()

	f, err := h.service.Upload(r.Context(), Upload{
		UserEmail:   r.FormValue("userEmail"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "userEmail is required.")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UploadResponse{Success: true, File: ToFileResponse(f)})
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListFiles(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		core.BadRequest(w, err.Error())
		return
	}

	core.OK(w, ToFileResponseList(files))
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteFile(r.Context(),
		chi.URLParam(r, "email"),
		chi.URLParam(r, "fileId"),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrProjectNotFound):
			core.NotFound(w, "project")
		case errors.Is(err, ErrFileNotFound):
			core.NotFound(w, "file")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, DeleteResponse{
		Success: true,
		Message: "File deleted successfully.",
	})
}
