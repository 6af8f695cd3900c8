package validation

import (
	"net/http"
	"strings"

	"github.com/templui/travelmap/internal/model"
)

// LocationForm is the create/edit form after legacy parsing.
type LocationForm struct {
	Title        string  `form:"title" validate:"required,max=200"`
	Description  string  `form:"description" validate:"max=2000"`
	Latitude     float64 `form:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `form:"longitude" validate:"gte=-180,lte=180"`
	VisitedMonth *string `form:"date"`
}

// ParseLocationForm reads the location fields of a parsed form. Coordinates
// and the visit month go through the model parsers first, so legacy text such
// as "48,2" or "March 2023" is accepted. Every failing field is reported.
func ParseLocationForm(r *http.Request) (*LocationForm, error) {
	form := &LocationForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}

	var errs Errors

	lat, err := model.ParseLatitude(r.FormValue("latitude"))
	if err != nil {
		errs = append(errs, FieldError{Field: "latitude", Tag: "latitude", Message: "latitude is invalid"})
	}
	form.Latitude = lat

	lng, err := model.ParseLongitude(r.FormValue("longitude"))
	if err != nil {
		errs = append(errs, FieldError{Field: "longitude", Tag: "longitude", Message: "longitude is invalid"})
	}
	form.Longitude = lng

	month, err := model.ParseVisitedMonth(r.FormValue("date"))
	if err != nil {
		errs = append(errs, FieldError{Field: "date", Tag: "month", Message: err.Error()})
	}
	form.VisitedMonth = month

	if err := Struct(form); err != nil {
		structErrs, ok := err.(Errors)
		if !ok {
			return nil, err
		}
		errs = append(errs, structErrs...)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return form, nil
}
