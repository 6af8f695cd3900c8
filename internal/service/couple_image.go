package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/templui/travelmap/internal/model"
	"github.com/templui/travelmap/internal/repository"
	"github.com/templui/travelmap/internal/storage"
)

// CoupleImageService manages the single logo image shown on the login page.
type CoupleImageService struct {
	coupleImageRepo repository.CoupleImageRepository
	images          ImageProcessor
	archive         storage.Storage
	maxUploadSize   int64
}

func NewCoupleImageService(
	coupleImageRepo repository.CoupleImageRepository,
	images ImageProcessor,
	archive storage.Storage,
	maxUploadSize int64,
) *CoupleImageService {
	return &CoupleImageService{
		coupleImageRepo: coupleImageRepo,
		images:          images,
		archive:         archive,
		maxUploadSize:   maxUploadSize,
	}
}

// Upload normalizes the image and replaces the current one.
func (s *CoupleImageService) Upload(ctx context.Context, upload *Upload) (*model.CoupleImage, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, ErrImageRequired
	}

	n, err := normalizeUpload(s.images, s.maxUploadSize, upload)
	if err != nil {
		return nil, err
	}

	img := &model.CoupleImage{
		ID:        uuid.New().String(),
		Image:     n.Data,
		ImageType: n.MimeType,
		CreatedAt: time.Now(),
	}

	err = s.coupleImageRepo.Replace(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to store couple image: %w", err)
	}

	archiveOriginal(ctx, s.archive, "originals/couple/", upload)

	slog.Info("couple image replaced", "image_type", img.ImageType, "image_bytes", len(img.Image))
	return img, nil
}

func (s *CoupleImageService) Current(ctx context.Context) (*model.CoupleImage, error) {
	return s.coupleImageRepo.Current(ctx)
}
