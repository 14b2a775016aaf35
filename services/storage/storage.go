package storage

import (
	"context"
	"fmt"
	"io"

	"tecnicosrd/config"
	"tecnicosrd/utils"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryStorageService stores images in Cloudinary.
type CloudinaryStorageService struct {
	cld *cloudinary.Cloudinary
}

// NewFromConfig builds the Cloudinary backend, or DisabledStorageService when
// credentials are missing.
func NewFromConfig(cfg config.Config) (StorageService, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		utils.GetLogger().Warn("cloudinary credentials not set; image uploads disabled")
		return DisabledStorageService{}, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStorageService{cld: cld}, nil
}

// UploadImage uploads under folder/name, overwriting a previous image with the same name.
func (s *CloudinaryStorageService) UploadImage(ctx context.Context, file io.Reader, folder, name string) (*UploadedImage, error) {
	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     name,
		Overwrite:    api.Bool(true),
		ResourceType: "image",
	}
	result, err := s.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return nil, fmt.Errorf("CloudinaryStorageService: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("CloudinaryStorageService: upload rejected: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return nil, fmt.Errorf("CloudinaryStorageService: no public ID returned")
	}
	utils.GetLogger().Debug("image uploaded", zap.String("publicID", result.PublicID))
	return &UploadedImage{PublicID: result.PublicID, URL: result.SecureURL}, nil
}

// DeleteFile deletes a file from Cloudinary given its public ID.
func (s *CloudinaryStorageService) DeleteFile(ctx context.Context, publicID string) error {
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("CloudinaryStorageService: failed to delete file: %w", err)
	}
	return nil
}
