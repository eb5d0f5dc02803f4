package storage

import (
	"context"
	"fmt"
	"io"
)

// Media is a stored object. StorageID is the handle needed to delete it later.
type Media struct {
	URL       string `json:"url"`
	StorageID string `json:"storage_id"`
}

// MediaStorage uploads and removes user supplied media
type MediaStorage interface {
	Upload(ctx context.Context, r io.Reader, folder, filename, contentType string) (*Media, error)
	Delete(ctx context.Context, storageID string) error
}

const MaxUploadSize = 10 << 20 // 10MB

var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// ValidateFileSize validates the file size
func ValidateFileSize(size int64, maxSize int64) error {
	if size > maxSize {
		return fmt.Errorf("file size exceeds maximum allowed size of %d bytes", maxSize)
	}
	return nil
}

// ValidateContentType validates the content type
func ValidateContentType(contentType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("content type %s is not allowed", contentType)
}
