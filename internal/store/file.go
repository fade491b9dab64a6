package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/life-master/apiserver/types"
)

// FileRepository handles persistence for file-attachment metadata.
// Payload bytes live in object storage, keyed by storage_key.
type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

const fileColumns = `id, user_id, entity_type, entity_id, file_name, content_type, size_bytes, storage_key, created_at`

func (r *FileRepository) Create(ctx context.Context, file types.FileAttachment) (types.FileAttachment, error) {
	file.UploadDate = time.Now()

	const query = `
		INSERT INTO file_attachments (user_id, entity_type, entity_id, file_name, content_type, size_bytes, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		file.UserID,
		file.EntityType,
		file.EntityID,
		file.FileName,
		file.ContentType,
		file.SizeBytes,
		file.StorageKey,
		file.UploadDate,
	).Scan(&file.ID); err != nil {
		return types.FileAttachment{}, err
	}
	return file, nil
}

func (r *FileRepository) Get(ctx context.Context, ownerID, id int64) (types.FileAttachment, error) {
	const query = `
		SELECT ` + fileColumns + `
		FROM file_attachments
		WHERE id = $1 AND user_id = $2`
	var file types.FileAttachment
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&file.ID,
		&file.UserID,
		&file.EntityType,
		&file.EntityID,
		&file.FileName,
		&file.ContentType,
		&file.SizeBytes,
		&file.StorageKey,
		&file.UploadDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.FileAttachment{}, ErrNotFound
		}
		return types.FileAttachment{}, err
	}
	return file, nil
}

// ListByEntity returns all attachments the owner has bound to one resource.
func (r *FileRepository) ListByEntity(ctx context.Context, ownerID int64, kind types.Kind, entityID int64) ([]types.FileAttachment, error) {
	const query = `
		SELECT ` + fileColumns + `
		FROM file_attachments
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID, kind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]types.FileAttachment, 0)
	for rows.Next() {
		var file types.FileAttachment
		if err := rows.Scan(
			&file.ID,
			&file.UserID,
			&file.EntityType,
			&file.EntityID,
			&file.FileName,
			&file.ContentType,
			&file.SizeBytes,
			&file.StorageKey,
			&file.UploadDate,
		); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *FileRepository) Delete(ctx context.Context, ownerID, id int64) error {
	const query = `DELETE FROM file_attachments WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
