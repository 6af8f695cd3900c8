package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/templui/travelmap/internal/metrics"
	"github.com/templui/travelmap/internal/photo"
	"github.com/templui/travelmap/internal/storage"
	"github.com/templui/travelmap/internal/validation"
)

var (
	ErrImageRequired    = errors.New("an image is required")
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrNoImage          = errors.New("no image stored")
)

// Upload is an image received at the HTTP boundary, already size checked.
type Upload struct {
	Data         []byte
	DeclaredType string
	Filename     string
}

// ImageProcessor is the part of the photo pipeline the services depend on.
type ImageProcessor interface {
	Normalize(data []byte, declaredMime, filename string) (photo.Normalized, error)
	MakeThumbnail(data []byte, style photo.Style) ([]byte, string)
}

// ImageData is a stored image ready to be written to a response.
type ImageData struct {
	Data        []byte
	ContentType string
}

// normalizeUpload runs the size ceiling and the pipeline for one upload.
// Only fatal pipeline errors are returned; degraded results are logged and kept.
func normalizeUpload(images ImageProcessor, maxSize int64, upload *Upload) (photo.Normalized, error) {
	if maxSize > 0 && int64(len(upload.Data)) > maxSize {
		return photo.Normalized{}, validation.ErrFileTooLarge
	}

	n, err := images.Normalize(upload.Data, upload.DeclaredType, upload.Filename)
	if err != nil {
		if errors.Is(err, photo.ErrUndecodable) {
			return photo.Normalized{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
		}
		return photo.Normalized{}, err
	}

	if n.Degraded {
		slog.Warn("storing image without conversion",
			"filename", upload.Filename,
			"declared_type", upload.DeclaredType,
			"error", n.Cause,
		)
	}
	if saved := len(upload.Data) - len(n.Data); saved > 0 {
		metrics.ImageBytesSaved.Add(float64(saved))
	}
	return n, nil
}

// archiveOriginal keeps the untouched upload bytes under prefix. Failures are
// logged and never fail the request.
func archiveOriginal(ctx context.Context, archive storage.Storage, prefix string, upload *Upload) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	key := path.Join(prefix, uuid.New().String()+ext)

	err := archive.Save(ctx, key, upload.DeclaredType, bytes.NewReader(upload.Data))
	if err != nil {
		slog.Error("failed to archive original upload", "error", err, "path", key)
	}
}
