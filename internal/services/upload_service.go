package services

import (
	"context"
	"fmt"
	"io"

	"scholarline/internal/storage"
	"scholarline/pkg/logger"
	scholarline_errors "scholarline/pkg/errors"

	"github.com/google/uuid"
)

// BlobStore is the slice of the storage client the binder needs.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	FileURL(key string) string
}

type UploadResult struct {
	StorageKey string
	FileURL    string
	FileName   string
}

// UploadService binds a binary payload to blob storage ahead of a message
// send. A failed upload aborts the enclosing send; no orphaned message is
// created.
type UploadService struct {
	store BlobStore
	log   *logger.Logger
}

func NewUploadService(store BlobStore, log *logger.Logger) *UploadService {
	return &UploadService{store: store, log: log}
}

// Upload sanitizes the file name, stores the payload under a
// conversation-scoped key and returns the locator. The original file name
// is preserved in the result for attachment metadata.
func (s *UploadService) Upload(ctx context.Context, conversationID uuid.UUID, fileName, contentType string, body io.Reader) (UploadResult, error) {
	if s.store == nil {
		return UploadResult{}, scholarline_errors.ErrUploadFailed
	}
	if conversationID == uuid.Nil || fileName == "" {
		return UploadResult{}, scholarline_errors.ErrInvalidInput
	}

	key := storage.ObjectKey(conversationID, fileName)
	if err := s.store.Put(ctx, key, contentType, body); err != nil {
		if s.log != nil {
			s.log.Errorf("blob upload failed for %s: %v", key, err)
		}
		return UploadResult{}, fmt.Errorf("%w: %v", scholarline_errors.ErrUploadFailed, err)
	}

	return UploadResult{
		StorageKey: key,
		FileURL:    s.store.FileURL(key),
		FileName:   fileName,
	}, nil
}
