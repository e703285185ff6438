package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/storage"
)

const uploadField = "file"

// Upload stores a receipt sent as the "file" part of a multipart form and returns its URL
// for use as an expense receiptRef.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// room for the multipart framing around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Storage.MaxUploadSize+64<<10)

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.fail(w, r, domain.NewValidationError(uploadField, storage.ErrTooLarge.Error()))
		default:
			h.fail(w, r, domain.NewValidationError(uploadField, "a file part is required"))
		}
		return
	}
	defer file.Close()

	obj, err := h.files.Put(r.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrUnsupportedType):
			h.fail(w, r, domain.NewValidationError(uploadField, err.Error()))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.createdResponse(w, r, "file uploaded", obj)
}

func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	f, contentType, err := h.files.Open(chi.URLParam(r, "name"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			h.fail(w, r, domain.ErrNotFound)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, f); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", map[string]string{
		"status":      "available",
		"environment": h.config.Environment,
	})
}
