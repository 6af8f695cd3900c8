package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/templui/travelmap/internal/repository"
	"github.com/templui/travelmap/internal/service"
	"github.com/templui/travelmap/internal/validation"
)

func TestWriteServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "field errors", err: validation.Errors{{Field: "title", Tag: "required"}}, status: http.StatusBadRequest},
		{name: "file too large", err: fmt.Errorf("upload: %w", validation.ErrFileTooLarge), status: http.StatusRequestEntityTooLarge},
		{name: "oversize body", err: &http.MaxBytesError{Limit: 10}, status: http.StatusRequestEntityTooLarge},
		{name: "unreadable heic", err: service.ErrUnsupportedImage, status: http.StatusBadRequest},
		{name: "missing image", err: service.ErrImageRequired, status: http.StatusBadRequest},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", repository.ErrLocationNotFound), status: http.StatusNotFound},
		{name: "no image stored", err: service.ErrNoImage, status: http.StatusNotFound},
		{name: "malformed form", err: errMalformedForm, status: http.StatusBadRequest},
		{name: "unknown", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodPost, "/api/locations", nil), tt.err)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
