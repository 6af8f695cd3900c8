package validation

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64

	// ImagesOnly requires the content to sniff as image/*. HEIC and HEIF are
	// exempt because DetectContentType does not recognize them.
	ImagesOnly bool
}

// ImageConstraints returns the rules for map photos and the couple image.
// HEIC and HEIF are accepted here and converted by the photo pipeline.
func ImageConstraints(maxSize int64) FileConstraints {
	return FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/jpg":  true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
			"image/heic": true,
			"image/heif": true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".gif":  true,
			".webp": true,
			".heic": true,
			".heif": true,
		},
		MaxSize:    maxSize,
		ImagesOnly: true,
	}
}

// File is an upload that passed the boundary checks.
type File struct {
	Data         []byte
	DeclaredType string
	Filename     string
}

// ReadUpload checks the upload against ImageConstraints(maxSize) and reads it.
// Oversize files are rejected from the multipart header before any byte is read.
func ReadUpload(header *multipart.FileHeader, maxSize int64) (*File, error) {
	return ReadFile(header, ImageConstraints(maxSize))
}

// ReadFile validates a file upload against a constraint set and returns its bytes.
func ReadFile(header *multipart.FileHeader, constraints FileConstraints) (*File, error) {
	// Check file size first (before reading content)
	if constraints.MaxSize > 0 && header.Size > constraints.MaxSize {
		return nil, fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, constraints.MaxSize/(1<<20))
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The header size can lie for streamed parts, so bound the read as well
	limit := constraints.MaxSize
	if limit <= 0 {
		limit = header.Size
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, limit/(1<<20))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedFileType)
	}

	declared := normalizeMime(header.Header.Get("Content-Type"))
	ext := strings.ToLower(filepath.Ext(header.Filename))

	// Detect actual content type from file content (magic numbers).
	// Only a hint: HEIC sniffs as application/octet-stream.
	sniffed := normalizeMime(http.DetectContentType(data))
	if declared == "" || declared == "application/octet-stream" {
		declared = sniffed
	}

	if !constraints.AllowedMimeTypes[declared] && !constraints.AllowedExtensions[ext] && !constraints.AllowedMimeTypes[sniffed] {
		return nil, fmt.Errorf("%w (detected: %s, extension: %q)", ErrUnsupportedFileType, sniffed, ext)
	}
	if constraints.ImagesOnly && !strings.HasPrefix(sniffed, "image/") && !isHEIF(declared, ext) {
		return nil, fmt.Errorf("%w: content is %s, not an image", ErrUnsupportedFileType, sniffed)
	}

	return &File{
		Data:         data,
		DeclaredType: declared,
		Filename:     header.Filename,
	}, nil
}

func isHEIF(mimeType, ext string) bool {
	switch mimeType {
	case "image/heic", "image/heif":
		return true
	}
	return ext == ".heic" || ext == ".heif"
}

func normalizeMime(raw string) string {
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return mediaType
}
