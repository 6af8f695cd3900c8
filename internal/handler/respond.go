package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/templui/travelmap/internal/repository"
	"github.com/templui/travelmap/internal/service"
	"github.com/templui/travelmap/internal/validation"
)

var errMalformedForm = errors.New("malformed form")

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Debug("failed to write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps domain errors to status codes. Unknown errors are
// logged and reported as 500 without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validation.Errors
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fieldErrs.Error(), Fields: fieldErrs})
	case errors.Is(err, validation.ErrFileTooLarge), errors.As(err, &maxBytesErr):
		writeError(w, http.StatusRequestEntityTooLarge, "The photo is too large.")
	case errors.Is(err, errMalformedForm):
		writeError(w, http.StatusBadRequest, "The form could not be read.")
	case errors.Is(err, validation.ErrUnsupportedFileType):
		writeError(w, http.StatusBadRequest, "Only image files can be uploaded.")
	case errors.Is(err, service.ErrImageRequired):
		writeError(w, http.StatusBadRequest, "A photo is required.")
	case errors.Is(err, service.ErrUnsupportedImage):
		writeError(w, http.StatusBadRequest, "This photo could not be read. HEIC images from some devices are not supported; try exporting it as JPEG.")
	case errors.Is(err, repository.ErrLocationNotFound),
		errors.Is(err, repository.ErrCoupleImageNotFound),
		errors.Is(err, service.ErrNoImage):
		writeError(w, http.StatusNotFound, "Not found.")
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
	}
}

// readUpload parses a multipart request and returns the "image" part, or nil
// when no file was sent.
func readUpload(r *http.Request, maxUploadSize int64) (*service.Upload, error) {
	err := r.ParseMultipartForm(maxUploadSize)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errMalformedForm, err)
	}

	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["image"]
	if len(headers) == 0 || headers[0].Filename == "" {
		return nil, nil
	}

	file, err := validation.ReadUpload(headers[0], maxUploadSize)
	if err != nil {
		return nil, err
	}

	return &service.Upload{
		Data:         file.Data,
		DeclaredType: file.DeclaredType,
		Filename:     file.Filename,
	}, nil
}
