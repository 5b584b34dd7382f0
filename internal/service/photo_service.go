package service

import (
	"bytes"
	"context"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
	"github.com/TWRT/courier-dispatch/internal/storage"
)

type PhotoService struct {
	store *repository.Store
	blobs *storage.BlobStore
	tasks *TaskService
}

func NewPhotoService(store *repository.Store, blobs *storage.BlobStore, tasks *TaskService) *PhotoService {
	return &PhotoService{store: store, blobs: blobs, tasks: tasks}
}

type PhotoUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Upload stores each photo against the task. When complete is set the task
// is marked completed in the same call and note is kept on the status event.
func (s *PhotoService) Upload(ctx context.Context, p auth.Principal, taskID int64, uploads []PhotoUpload, complete bool, note string) ([]models.TaskPhoto, error) {
	if len(uploads) == 0 {
		return nil, apperrors.InvalidArgument("at least one photo is required")
	}
	note = strings.TrimSpace(note)
	if note != "" && !complete {
		return nil, apperrors.InvalidArgument("note is only accepted with complete=true")
	}
	task, err := s.tasks.Get(ctx, p, taskID)
	if err != nil {
		return nil, err
	}

	photos := make([]models.TaskPhoto, 0, len(uploads))
	for _, up := range uploads {
		photo, err := s.put(ctx, p, task.ID, up)
		if err != nil {
			return photos, err
		}
		photos = append(photos, photo)
	}

	if complete {
		summary := english.Plural(len(photos), "photo", "photos") + " uploaded"
		if note != "" {
			summary += ": " + note
		}
		err := s.store.WithTx(ctx, func(tx *repository.Store) error {
			return setStatus(ctx, tx, task, models.TaskStatusCompleted, p, summary)
		})
		if err != nil {
			return photos, err
		}
	}
	return photos, nil
}

func (s *PhotoService) put(ctx context.Context, p auth.Principal, taskID int64, up PhotoUpload) (models.TaskPhoto, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return models.TaskPhoto{}, apperrors.InvalidArgument("photo " + up.Filename + " is empty")
		}
		return models.TaskPhoto{}, apperrors.Internal("read photo", err)
	}
	head = head[:n]

	contentType := up.ContentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(head)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return models.TaskPhoto{}, apperrors.InvalidArgument("photo " + up.Filename + " is not an image")
	}

	filename := filepath.Base(strings.TrimSpace(up.Filename))
	if filename == "." || filename == string(filepath.Separator) {
		filename = "photo"
	}
	ext := filepath.Ext(filename)
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}

	key := storage.NewKey(ext)
	size, err := s.blobs.Put(key, io.MultiReader(bytes.NewReader(head), up.Body))
	if err != nil {
		return models.TaskPhoto{}, apperrors.Internal("store photo", err)
	}

	photo := models.TaskPhoto{
		TaskID:      taskID,
		StorageKey:  key,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   size,
	}
	if p.UserID != 0 {
		photo.UploadedBy = ptr(p.UserID)
	}
	id, err := s.store.TaskPhotos.Create(ctx, &photo)
	if err != nil {
		if delErr := s.blobs.Delete(key); delErr != nil {
			log.Printf("orphaned photo blob key=%s task_id=%d err=%v", key, taskID, delErr)
		}
		return models.TaskPhoto{}, apperrors.Internal("record photo", err)
	}
	photo, err = s.store.TaskPhotos.Get(ctx, id)
	if err != nil {
		return models.TaskPhoto{}, apperrors.Internal("load photo", err)
	}
	photo.SizeHuman = humanize.Bytes(uint64(photo.SizeBytes))
	return photo, nil
}

func (s *PhotoService) List(ctx context.Context, p auth.Principal, taskID int64) ([]models.TaskPhoto, error) {
	if _, err := s.tasks.Get(ctx, p, taskID); err != nil {
		return nil, err
	}
	photos, err := s.store.TaskPhotos.ListByTask(ctx, taskID)
	if err != nil {
		return nil, apperrors.Internal("list photos", err)
	}
	for i := range photos {
		photos[i].SizeHuman = humanize.Bytes(uint64(photos[i].SizeBytes))
	}
	return photos, nil
}

// Open returns the photo's metadata and file. The caller closes the file.
func (s *PhotoService) Open(ctx context.Context, p auth.Principal, id int64) (models.TaskPhoto, *os.File, error) {
	photo, err := s.store.TaskPhotos.Get(ctx, id)
	if err != nil {
		return models.TaskPhoto{}, nil, notFoundOr(err, "photo")
	}
	if _, err := s.tasks.Get(ctx, p, photo.TaskID); err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return models.TaskPhoto{}, nil, apperrors.NotFound("photo not found")
		}
		return models.TaskPhoto{}, nil, err
	}
	f, err := s.blobs.Open(photo.StorageKey)
	if err != nil {
		return models.TaskPhoto{}, nil, apperrors.Internal("open photo", err)
	}
	return photo, f, nil
}
