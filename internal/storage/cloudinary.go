package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/Pesokrava/park_reviewer/internal/config"
)

// cloudinaryAPI is the subset of the Cloudinary upload API used by CloudinaryStore
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore keeps objects in Cloudinary; the reference is the public ID
type CloudinaryStore struct {
	api       cloudinaryAPI
	cloudName string
	folder    string
}

// NewCloudinaryStore creates a Cloudinary store from storage settings
func NewCloudinaryStore(cfg config.StorageConfig) (*CloudinaryStore, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary configuration is missing")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return newCloudinaryStore(&cld.Upload, cfg.CloudinaryCloudName, cfg.CloudinaryFolder), nil
}

func newCloudinaryStore(api cloudinaryAPI, cloudName, folder string) *CloudinaryStore {
	return &CloudinaryStore{
		api:       api,
		cloudName: cloudName,
		folder:    strings.Trim(folder, "/"),
	}
}

// publicID maps a storage path to a Cloudinary public ID, which carries no extension
func (s *CloudinaryStore) publicID(p string) string {
	id := strings.TrimSuffix(p, path.Ext(p))
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

// Put uploads body and returns its public ID
func (s *CloudinaryStore) Put(ctx context.Context, p string, body []byte, contentType string) (string, error) {
	overwrite := true
	result, err := s.api.Upload(ctx, bytes.NewReader(body), uploader.UploadParams{
		PublicID:     s.publicID(p),
		Overwrite:    &overwrite,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %s: %w", p, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %s: %w", p, errors.New(result.Error.Message))
	}

	return result.PublicID, nil
}

// Delete destroys the image with the given public ID; "not found" counts as deleted
func (s *CloudinaryStore) Delete(ctx context.Context, reference string) error {
	result, err := s.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     reference,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", reference, err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %w", reference, errors.New(result.Error.Message))
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("cloudinary destroy %s: unexpected result %q", reference, result.Result)
	}

	return nil
}

// PublicURL returns the delivery URL of the public ID
func (s *CloudinaryStore) PublicURL(reference string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", s.cloudName, reference)
}
