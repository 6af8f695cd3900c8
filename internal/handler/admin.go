package handler

import (
	"context"
	"net/http"

	"github.com/templui/travelmap/internal/service"
)

type AdminHandler struct {
	locationService *service.LocationService
}

func NewAdminHandler(locationService *service.LocationService) *AdminHandler {
	return &AdminHandler{locationService: locationService}
}

// OptimizeImages runs synchronously and answers with the BatchResult. The job
// outlives a closed browser tab; only server shutdown stops it.
func (h *AdminHandler) OptimizeImages(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, h.locationService.OptimizeImages)
}

func (h *AdminHandler) GenerateThumbnails(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, h.locationService.GenerateThumbnails)
}

func (h *AdminHandler) runBatch(w http.ResponseWriter, r *http.Request, job func(context.Context) (service.BatchResult, error)) {
	result, err := job(context.WithoutCancel(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
