package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/templui/travelmap/internal/metrics"
	"github.com/templui/travelmap/internal/model"
	"github.com/templui/travelmap/internal/photo"
	"github.com/templui/travelmap/internal/repository"
	"github.com/templui/travelmap/internal/storage"
)

// LocationInput carries the descriptive fields of a create or edit.
type LocationInput struct {
	Title        string
	Description  string
	VisitedMonth *string
	Latitude     float64
	Longitude    float64
}

// BatchResult summarizes an admin batch job. Processed counts rows that were
// actually rewritten.
type BatchResult struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type LocationService struct {
	locationRepo  repository.LocationRepository
	images        ImageProcessor
	archive       storage.Storage
	style         photo.Style
	maxUploadSize int64
}

func NewLocationService(
	locationRepo repository.LocationRepository,
	images ImageProcessor,
	archive storage.Storage,
	style photo.Style,
	maxUploadSize int64,
) *LocationService {
	return &LocationService{
		locationRepo:  locationRepo,
		images:        images,
		archive:       archive,
		style:         style,
		maxUploadSize: maxUploadSize,
	}
}

// Create stores a new location. An image is required.
func (s *LocationService) Create(ctx context.Context, in LocationInput, upload *Upload) (*model.Location, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, ErrImageRequired
	}

	n, err := normalizeUpload(s.images, s.maxUploadSize, upload)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	location := &model.Location{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		VisitedMonth: in.VisitedMonth,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Image:        n.Data,
		ImageType:    &n.MimeType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	location.Thumbnail, location.ThumbnailType = s.thumbnail(n.Data)

	err = s.locationRepo.Create(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	archiveOriginal(ctx, s.archive, originalsPrefix(location.ID), upload)

	slog.Info("location created",
		"location_id", location.ID,
		"image_type", n.MimeType,
		"image_bytes", len(n.Data),
		"has_thumbnail", location.HasThumbnail(),
	)
	return location, nil
}

// Update edits the descriptive fields and, when upload is non-nil, replaces
// the image and its thumbnail. Concurrent edits are last writer wins.
func (s *LocationService) Update(ctx context.Context, id string, in LocationInput, upload *Upload) (*model.Location, error) {
	location, err := s.locationRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var n photo.Normalized
	hasUpload := upload != nil && len(upload.Data) > 0
	if hasUpload {
		// Run the pipeline before touching the row so a rejected image leaves it as it was
		n, err = normalizeUpload(s.images, s.maxUploadSize, upload)
		if err != nil {
			return nil, err
		}
	}

	location.Title = in.Title
	location.Description = in.Description
	location.VisitedMonth = in.VisitedMonth
	location.Latitude = in.Latitude
	location.Longitude = in.Longitude

	if !hasUpload {
		err = s.locationRepo.Update(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("failed to update location: %w", err)
		}
		return s.locationRepo.ByID(ctx, id)
	}

	location.Image = n.Data
	location.ImageType = &n.MimeType
	location.Thumbnail, location.ThumbnailType = s.thumbnail(n.Data)

	err = s.locationRepo.UpdateWithImage(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	archiveOriginal(ctx, s.archive, originalsPrefix(id), upload)
	slog.Info("location image replaced", "location_id", id, "image_type", n.MimeType)

	return s.locationRepo.ByID(ctx, id)
}

func (s *LocationService) Delete(ctx context.Context, id string) error {
	err := s.locationRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	err = s.archive.Delete(ctx, originalsPrefix(id))
	if err != nil {
		slog.Error("failed to delete archived originals", "error", err, "location_id", id)
	}

	slog.Info("location deleted", "location_id", id)
	return nil
}

func (s *LocationService) ByID(ctx context.Context, id string) (*model.Location, error) {
	return s.locationRepo.ByID(ctx, id)
}

func (s *LocationService) Summaries(ctx context.Context) ([]*model.LocationSummary, error) {
	return s.locationRepo.Summaries(ctx)
}

// Image returns the stored full image of a location.
func (s *LocationService) Image(ctx context.Context, id string) (*ImageData, error) {
	location, err := s.locationRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !location.HasImage() {
		return nil, ErrNoImage
	}
	return &ImageData{Data: location.Image, ContentType: *location.ImageType}, nil
}

// Thumbnail returns the stored thumbnail, generating and persisting it on the
// first read. A thumbnail that cannot be generated falls back to the full
// image; a thumbnail that cannot be persisted is still served.
func (s *LocationService) Thumbnail(ctx context.Context, id string) (*ImageData, error) {
	location, err := s.locationRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if location.HasThumbnail() {
		metrics.ThumbnailCacheHits.Inc()
		return &ImageData{Data: location.Thumbnail, ContentType: *location.ThumbnailType}, nil
	}
	if !location.HasImage() {
		return nil, ErrNoImage
	}
	metrics.ThumbnailCacheMisses.Inc()

	thumb, thumbType := s.images.MakeThumbnail(location.Image, s.style)
	if thumb == nil {
		slog.Warn("thumbnail generation failed, serving full image", "location_id", id)
		return &ImageData{Data: location.Image, ContentType: *location.ImageType}, nil
	}

	err = s.locationRepo.UpdateThumbnail(ctx, id, thumb, thumbType)
	if err != nil {
		slog.Error("failed to persist thumbnail", "error", err, "location_id", id)
	}

	return &ImageData{Data: thumb, ContentType: thumbType}, nil
}

// OptimizeImages re-runs normalization over every stored image and keeps the
// result only when it is strictly smaller. Rows are processed one at a time;
// a failing row is counted and skipped.
func (s *LocationService) OptimizeImages(ctx context.Context) (BatchResult, error) {
	return s.eachImage(ctx, "optimize_images", s.optimizeOne)
}

// GenerateThumbnails rebuilds the thumbnail of every location with an image.
func (s *LocationService) GenerateThumbnails(ctx context.Context) (BatchResult, error) {
	return s.eachImage(ctx, "generate_thumbnails", s.thumbnailOne)
}

// eachImage applies fn to every location with an image. fn reports whether
// the row was rewritten.
func (s *LocationService) eachImage(ctx context.Context, job string, fn func(context.Context, *model.Location) (bool, error)) (BatchResult, error) {
	ids, err := s.locationRepo.ImageIDs(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to list images: %w", err)
	}

	result := BatchResult{Total: len(ids)}
	start := time.Now()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		written, err := s.processRow(ctx, id, fn)
		switch {
		case err != nil:
			result.Failed++
			metrics.BatchRowsTotal.WithLabelValues(job, metrics.OutcomeFailed).Inc()
			slog.Warn("batch row failed", "job", job, "location_id", id, "error", err)
		case written:
			result.Processed++
			metrics.BatchRowsTotal.WithLabelValues(job, metrics.OutcomeOK).Inc()
		default:
			metrics.BatchRowsTotal.WithLabelValues(job, metrics.OutcomeSkipped).Inc()
		}
	}

	slog.Info("batch job finished",
		"job", job,
		"total", result.Total,
		"processed", result.Processed,
		"failed", result.Failed,
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *LocationService) processRow(ctx context.Context, id string, fn func(context.Context, *model.Location) (bool, error)) (written bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	location, err := s.locationRepo.ByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !location.HasImage() {
		return false, nil
	}
	return fn(ctx, location)
}

func (s *LocationService) optimizeOne(ctx context.Context, location *model.Location) (bool, error) {
	n, err := s.images.Normalize(location.Image, *location.ImageType, "")
	if err != nil {
		return false, err
	}
	if n.Degraded {
		return false, fmt.Errorf("image could not be re-encoded: %w", n.Cause)
	}
	if len(n.Data) >= len(location.Image) {
		return false, nil
	}

	err = s.locationRepo.UpdateImage(ctx, location.ID, n.Data, n.MimeType, location.Thumbnail, location.ThumbnailType)
	if err != nil {
		return false, err
	}

	metrics.ImageBytesSaved.Add(float64(len(location.Image) - len(n.Data)))
	return true, nil
}

func (s *LocationService) thumbnailOne(ctx context.Context, location *model.Location) (bool, error) {
	thumb, thumbType := s.images.MakeThumbnail(location.Image, s.style)
	if thumb == nil {
		return false, fmt.Errorf("thumbnail generation failed for %s image", *location.ImageType)
	}

	err := s.locationRepo.ReplaceThumbnail(ctx, location.ID, thumb, thumbType)
	if err != nil {
		return false, err
	}
	return true, nil
}

// thumbnail builds the thumbnail for freshly normalized bytes. A failure
// yields no thumbnail; it is regenerated lazily on first read.
func (s *LocationService) thumbnail(data []byte) ([]byte, *string) {
	thumb, thumbType := s.images.MakeThumbnail(data, s.style)
	if thumb == nil {
		return nil, nil
	}
	return thumb, &thumbType
}

func originalsPrefix(locationID string) string {
	return "originals/" + locationID + "/"
}
