package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/life-master/apiserver/internal/events"
	"github.com/life-master/apiserver/internal/storage"
	"github.com/life-master/apiserver/internal/store"
	"github.com/life-master/apiserver/types"
)

// ErrUnknownEntityType is returned for entity types outside the fixed set.
var ErrUnknownEntityType = errors.New("unknown entity type")

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// FileRepository defines persistence operations for attachment metadata.
type FileRepository interface {
	Create(ctx context.Context, file types.FileAttachment) (types.FileAttachment, error)
	Get(ctx context.Context, ownerID, id int64) (types.FileAttachment, error)
	ListByEntity(ctx context.Context, ownerID int64, kind types.Kind, entityID int64) ([]types.FileAttachment, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// Upload is an incoming file payload.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// FileService binds uploaded payloads to user-owned resources. Metadata is
// persisted in the file repository, payloads in object storage under a
// generated key.
type FileService struct {
	repo     FileRepository
	entities EntityResolver
	blobs    *storage.Storage
	maxBytes int64
	bus      *events.Bus
}

func NewFileService(repo FileRepository, entities EntityResolver, blobs *storage.Storage, maxBytes int64, bus *events.Bus) *FileService {
	return &FileService{
		repo:     repo,
		entities: entities,
		blobs:    blobs,
		maxBytes: maxBytes,
		bus:      bus,
	}
}

// MaxBytes is the configured upload ceiling.
func (s *FileService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates and stores a file. Validation order: entity type, size,
// target entity ownership. Nothing is written when validation fails.
func (s *FileService) Upload(ctx context.Context, ownerID int64, entityType string, entityID int64, up Upload) (types.FileAttachment, error) {
	kind, ok := types.ParseKind(entityType)
	if !ok {
		return types.FileAttachment{}, ErrUnknownEntityType
	}

	if int64(len(up.Data)) > s.maxBytes {
		return types.FileAttachment{}, ErrFileTooLarge
	}

	exists, err := s.entities.Exists(ctx, ownerID, kind, entityID)
	if err != nil {
		return types.FileAttachment{}, err
	}
	if !exists {
		return types.FileAttachment{}, store.ErrNotFound
	}

	contentType := strings.TrimSpace(up.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := uuid.NewString()
	if err := s.blobs.Put(ctx, key, bytes.NewReader(up.Data), int64(len(up.Data)), contentType); err != nil {
		return types.FileAttachment{}, err
	}

	file, err := s.repo.Create(ctx, types.FileAttachment{
		UserID:      ownerID,
		EntityType:  kind,
		EntityID:    entityID,
		FileName:    up.FileName,
		ContentType: contentType,
		SizeBytes:   int64(len(up.Data)),
		StorageKey:  key,
	})
	if err != nil {
		// Roll back the orphaned payload.
		_ = s.blobs.Delete(ctx, key)
		return types.FileAttachment{}, err
	}

	s.publish(ctx, "file.uploaded", file)
	return file, nil
}

// Download returns the attachment metadata and a reader over its payload.
func (s *FileService) Download(ctx context.Context, ownerID, id int64) (types.FileAttachment, io.ReadCloser, error) {
	file, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return types.FileAttachment{}, nil, err
	}
	reader, err := s.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		return types.FileAttachment{}, nil, err
	}
	return file, reader, nil
}

// ListByEntity lists the caller's attachments bound to one resource.
// A missing or foreign resource reads as not found.
func (s *FileService) ListByEntity(ctx context.Context, ownerID int64, entityType string, entityID int64) ([]types.FileAttachment, error) {
	kind, ok := types.ParseKind(entityType)
	if !ok {
		return nil, ErrUnknownEntityType
	}

	exists, err := s.entities.Exists(ctx, ownerID, kind, entityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	return s.repo.ListByEntity(ctx, ownerID, kind, entityID)
}

// Delete removes the metadata row first, then the payload best-effort.
func (s *FileService) Delete(ctx context.Context, ownerID, id int64) error {
	file, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	_ = s.blobs.Delete(ctx, file.StorageKey)

	s.publish(ctx, "file.deleted", file)
	return nil
}

func (s *FileService) publish(ctx context.Context, eventType string, file types.FileAttachment) {
	_ = s.bus.Publish(ctx, events.Event{
		Type:       eventType,
		OwnerID:    file.UserID,
		EntityType: file.EntityType,
		EntityID:   file.EntityID,
	})
}
