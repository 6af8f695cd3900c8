package handler

import (
	"net/http"
	"time"

	"github.com/templui/travelmap/internal/markdown"
	"github.com/templui/travelmap/internal/model"
	"github.com/templui/travelmap/internal/service"
	"github.com/templui/travelmap/internal/validation"
)

type LocationHandler struct {
	locationService *service.LocationService
	notes           *markdown.Parser
	maxUploadSize   int64
}

func NewLocationHandler(locationService *service.LocationService, maxUploadSize int64) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		notes:           markdown.NewParser(),
		maxUploadSize:   maxUploadSize,
	}
}

// locationResponse is the API shape of a location. Image URLs carry the row
// version so browsers refetch after an edit despite the long cache lifetime.
type locationResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DescriptionHTML string    `json:"description_html,omitempty"`
	Date            *string   `json:"date,omitempty"`
	DateLabel       string    `json:"date_label,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	ImageURL        string    `json:"image_url,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (h *LocationHandler) newLocationResponse(s *model.LocationSummary) locationResponse {
	resp := locationResponse{
		ID:              s.ID,
		Title:           s.Title,
		Description:     s.Description,
		DescriptionHTML: h.notes.Render(s.Description),
		Date:            s.VisitedMonth,
		DateLabel:       model.FormatMonth(s.VisitedMonth),
		Latitude:        s.Latitude,
		Longitude:       s.Longitude,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.HasImage {
		v := "?v=" + s.Version()
		resp.ImageURL = "/locations/" + s.ID + "/image" + v
		// The thumbnail endpoint generates on demand, so any image has one
		resp.ThumbnailURL = "/locations/" + s.ID + "/thumbnail" + v
	}
	return resp
}

func summaryOf(l *model.Location) *model.LocationSummary {
	return &model.LocationSummary{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		VisitedMonth: l.VisitedMonth,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		HasImage:     l.HasImage(),
		HasThumbnail: l.HasThumbnail(),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.locationService.Summaries(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]locationResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, h.newLocationResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	location, err := h.locationService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newLocationResponse(summaryOf(location)))
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, upload, err := h.parseRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	location, err := h.locationService.Create(r.Context(), input, upload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.newLocationResponse(summaryOf(location)))
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	input, upload, err := h.parseRequest(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	location, err := h.locationService.Update(r.Context(), r.PathValue("id"), input, upload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newLocationResponse(summaryOf(location)))
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.locationService.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseRequest reads the upload first so an oversize body fails with 413
// before the form fields are validated.
func (h *LocationHandler) parseRequest(r *http.Request) (service.LocationInput, *service.Upload, error) {
	upload, err := readUpload(r, h.maxUploadSize)
	if err != nil {
		return service.LocationInput{}, nil, err
	}

	form, err := validation.ParseLocationForm(r)
	if err != nil {
		return service.LocationInput{}, nil, err
	}

	return service.LocationInput{
		Title:        form.Title,
		Description:  form.Description,
		VisitedMonth: form.VisitedMonth,
		Latitude:     form.Latitude,
		Longitude:    form.Longitude,
	}, upload, nil
}
