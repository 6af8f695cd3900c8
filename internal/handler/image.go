package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/travelmap/internal/service"
)

const imageCacheControl = "private, max-age=86400"

type ImageHandler struct {
	locationService    *service.LocationService
	coupleImageService *service.CoupleImageService
	maxUploadSize      int64
}

func NewImageHandler(locationService *service.LocationService, coupleImageService *service.CoupleImageService, maxUploadSize int64) *ImageHandler {
	return &ImageHandler{
		locationService:    locationService,
		coupleImageService: coupleImageService,
		maxUploadSize:      maxUploadSize,
	}
}

func (h *ImageHandler) LocationImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.locationService.Image(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeImage(w, img.ContentType, img.Data)
}

// LocationThumbnail serves the stored thumbnail, generating it on first request.
func (h *ImageHandler) LocationThumbnail(w http.ResponseWriter, r *http.Request) {
	img, err := h.locationService.Thumbnail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeImage(w, img.ContentType, img.Data)
}

func (h *ImageHandler) CoupleImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.coupleImageService.Current(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeImage(w, img.ImageType, img.Image)
}

func (h *ImageHandler) UploadCoupleImage(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(r, h.maxUploadSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	img, err := h.coupleImageService.Upload(r.Context(), upload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         img.ID,
		"image_type": img.ImageType,
		"size":       len(img.Image),
	})
}

// writeImage serves stored image bytes. Rows written before uploads were
// content-checked may carry any type, so only image/* is echoed back.
func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "application/octet-stream"
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", imageCacheControl)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
