package types

import "time"

// FileAttachment is the metadata record for an uploaded file bound to a
// user-owned resource. The payload itself lives in object storage under
// StorageKey; only metadata is kept in the database.
type FileAttachment struct {
	// ID is the unique identifier of the attachment.
	ID int64 `json:"id" db:"id"`

	// UserID is the uploading (and owning) user.
	UserID int64 `json:"userId" db:"user_id"`

	// EntityType is the kind of resource the file is attached to.
	EntityType Kind `json:"entityType" db:"entity_type"`

	// EntityID is the id of the resource the file is attached to.
	// The referenced resource is owned by the same user.
	EntityID int64 `json:"entityId" db:"entity_id"`

	// FileName is the original name of the uploaded file.
	FileName string `json:"fileName" db:"file_name"`

	// ContentType is the MIME type reported at upload time.
	ContentType string `json:"fileType" db:"content_type"`

	// SizeBytes is the payload size in bytes.
	SizeBytes int64 `json:"fileSize" db:"size_bytes"`

	// StorageKey is the object-storage key of the payload.
	StorageKey string `json:"-" db:"storage_key"`

	// UploadDate is the timestamp when the file was uploaded.
	UploadDate time.Time `json:"uploadDate" db:"created_at"`
}
