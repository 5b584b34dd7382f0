package handlers

import (
	"errors"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/service"
)

// multipartMemory bounds how much of an upload is buffered in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

type PhotoHandler struct {
	photoService   *service.PhotoService
	maxUploadBytes int64
}

func NewPhotoHandler(photoService *service.PhotoService, maxUploadBytes int64) *PhotoHandler {
	return &PhotoHandler{photoService: photoService, maxUploadBytes: maxUploadBytes}
}

func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	photos, err := h.photoService.List(r.Context(), p, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

// Upload accepts multipart "photo" parts and optional complete=true and note
// fields.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(min(h.maxUploadBytes, multipartMemory)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, err)
			return
		}
		WriteError(w, r, apperrors.InvalidArgument("invalid multipart body: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	complete := false
	if raw := r.FormValue("complete"); raw != "" {
		complete, err = strconv.ParseBool(raw)
		if err != nil {
			WriteError(w, r, apperrors.InvalidArgument("complete must be a boolean"))
			return
		}
	}

	headers := r.MultipartForm.File["photo"]
	uploads := make([]service.PhotoUpload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			WriteError(w, r, apperrors.InvalidArgument("unreadable photo "+fh.Filename))
			return
		}
		files = append(files, f)
		uploads = append(uploads, service.PhotoUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	photos, err := h.photoService.Upload(r.Context(), p, id, uploads, complete, r.FormValue("note"))
	if err != nil {
		if len(photos) > 0 {
			log.Printf("partial photo upload task_id=%d stored=%d err=%v", id, len(photos), err)
		}
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"photos": photos})
}

func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	photo, f, err := h.photoService.Open(r.Context(), p, id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": photo.Filename}))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, photo.Filename, photo.CreatedAt, f)
}
