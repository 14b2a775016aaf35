package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotConfigured is returned when no storage backend credentials are set.
var ErrNotConfigured = errors.New("image storage is not configured")

// UploadedImage identifies a stored image.
type UploadedImage struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

// StorageService defines the interface for image storage operations.
type StorageService interface {
	UploadImage(ctx context.Context, file io.Reader, folder, name string) (*UploadedImage, error)
	DeleteFile(ctx context.Context, publicID string) error
}

// DisabledStorageService rejects every upload.
type DisabledStorageService struct{}

func (DisabledStorageService) UploadImage(context.Context, io.Reader, string, string) (*UploadedImage, error) {
	return nil, ErrNotConfigured
}

func (DisabledStorageService) DeleteFile(context.Context, string) error {
	return ErrNotConfigured
}
