package model

import (
	"strconv"
	"time"
)

type Location struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	VisitedMonth  *string   `db:"visited_month" json:"date,omitempty"` // YYYY-MM
	Latitude      float64   `db:"latitude" json:"latitude"`
	Longitude     float64   `db:"longitude" json:"longitude"`
	Image         []byte    `db:"image" json:"-"`
	ImageType     *string   `db:"image_type" json:"image_type,omitempty"`
	Thumbnail     []byte    `db:"thumbnail" json:"-"`
	ThumbnailType *string   `db:"thumbnail_type" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (l *Location) HasImage() bool {
	return len(l.Image) > 0 && l.ImageType != nil
}

func (l *Location) HasThumbnail() bool {
	return len(l.Thumbnail) > 0 && l.ThumbnailType != nil
}

// Version is a cache-busting token that changes whenever the row is written.
func (l *Location) Version() string {
	return strconv.FormatInt(l.UpdatedAt.UnixMilli(), 36)
}

// LocationSummary is the list projection of a location, without image blobs.
type LocationSummary struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	VisitedMonth *string   `db:"visited_month" json:"date,omitempty"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	HasImage     bool      `db:"has_image" json:"has_image"`
	HasThumbnail bool      `db:"has_thumbnail" json:"has_thumbnail"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (s *LocationSummary) Version() string {
	return strconv.FormatInt(s.UpdatedAt.UnixMilli(), 36)
}
