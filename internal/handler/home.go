package handler

import (
	"net/http"

	"github.com/templui/travelmap/internal/service"
	"github.com/templui/travelmap/internal/ui"
	"github.com/templui/travelmap/internal/ui/pages"
)

type HomeHandler struct {
	coupleImageService *service.CoupleImageService
	maxUploadSize      int64
}

func NewHomeHandler(coupleImageService *service.CoupleImageService, maxUploadSize int64) *HomeHandler {
	return &HomeHandler{
		coupleImageService: coupleImageService,
		maxUploadSize:      maxUploadSize,
	}
}

func (h *HomeHandler) MapPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Map(pages.MapData{
		HasCoupleImage: hasCoupleImage(r, h.coupleImageService),
		MaxUploadSize:  h.maxUploadSize,
	}))
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
}
