package services

import (
	"context"

	"github.com/dmitrijs2005/foodable/internal/apperr"
	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/storage"
)

// ImageStore presigns uploads of donation images.
type ImageStore interface {
	PresignUpload(ctx context.Context, contentType string) (*storage.Upload, error)
}

// ImagesService hands out presigned upload URLs so clients can put donation
// photos straight into object storage and then store the returned image URL
// on the donation.
type ImagesService struct {
	store  ImageStore
	logger logging.Logger
}

func NewImagesService(store ImageStore, logger logging.Logger) *ImagesService {
	return &ImagesService{store: store, logger: logger}
}

func (s *ImagesService) CreateUploadURL(ctx context.Context, userID int64, contentType string) (*storage.Upload, error) {
	up, err := s.store.PresignUpload(ctx, contentType)
	if err != nil {
		return nil, apperr.Internal("Failed to create upload URL", err)
	}
	s.logger.Info(ctx, "image upload url created", "user_id", userID, "key", up.Key)
	return up, nil
}
