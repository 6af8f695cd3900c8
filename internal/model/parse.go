package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidMonth      = errors.New("invalid date: expected a month such as 2024-03 or March 2024")
)

// Older rows stored coordinates as free text and dates in whatever shape the
// form produced. Both are parsed into the canonical representation here and
// the raw text is dropped.

// ParseCoordinate parses a decimal latitude or longitude given as text.
// A comma decimal separator is accepted.
func ParseCoordinate(raw string, limit float64) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidCoordinate)
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, raw)
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, fmt.Errorf("%w: %v out of range ±%v", ErrInvalidCoordinate, v, limit)
	}
	return v, nil
}

func ParseLatitude(raw string) (float64, error) {
	return ParseCoordinate(raw, 90)
}

func ParseLongitude(raw string) (float64, error) {
	return ParseCoordinate(raw, 180)
}

var monthLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006/01",
	"01/2006",
	"1/2006",
	"January 2006",
	"Jan 2006",
	"January, 2006",
}

// ParseVisitedMonth normalizes a visit date to YYYY-MM.
// An empty input means the location has no date.
func ParseVisitedMonth(raw string) (*string, error) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return nil, nil
	}

	// time.Parse matches month names case-sensitively. Casers are stateful, one per call.
	s = cases.Title(language.English).String(s)

	for _, layout := range monthLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		month := t.Format("2006-01")
		return &month, nil
	}

	return nil, fmt.Errorf("%w (got %q)", ErrInvalidMonth, raw)
}

// FormatMonth renders a YYYY-MM month for display, e.g. "March 2024".
func FormatMonth(month *string) string {
	if month == nil {
		return ""
	}
	t, err := time.Parse("2006-01", *month)
	if err != nil {
		return *month
	}
	return t.Format("January 2006")
}
