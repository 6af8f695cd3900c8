package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/travelmap/internal/model"
)

var (
	ErrLocationNotFound = errors.New("location not found")
)

type LocationRepository interface {
	Create(ctx context.Context, location *model.Location) error
	ByID(ctx context.Context, id string) (*model.Location, error)
	Summaries(ctx context.Context) ([]*model.LocationSummary, error)
	Update(ctx context.Context, location *model.Location) error
	UpdateWithImage(ctx context.Context, location *model.Location) error
	UpdateImage(ctx context.Context, id string, image []byte, imageType string, thumbnail []byte, thumbnailType *string) error
	UpdateThumbnail(ctx context.Context, id string, thumbnail []byte, thumbnailType string) error
	ReplaceThumbnail(ctx context.Context, id string, thumbnail []byte, thumbnailType string) error
	Delete(ctx context.Context, id string) error
	ImageIDs(ctx context.Context) ([]string, error)
}

type locationRepository struct {
	db *sqlx.DB
}

func NewLocationRepository(db *sqlx.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Create(ctx context.Context, location *model.Location) error {
	query := `INSERT INTO locations (id, title, description, visited_month, latitude, longitude, image, image_type, thumbnail, thumbnail_type, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		location.ID,
		location.Title,
		location.Description,
		location.VisitedMonth,
		location.Latitude,
		location.Longitude,
		nullBytes(location.Image),
		location.ImageType,
		nullBytes(location.Thumbnail),
		location.ThumbnailType,
		location.CreatedAt,
		location.UpdatedAt,
	)

	return err
}

func (r *locationRepository) ByID(ctx context.Context, id string) (*model.Location, error) {
	location := &model.Location{}
	query := `SELECT * FROM locations WHERE id = $1`

	err := r.db.GetContext(ctx, location, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}

	return location, nil
}

// Summaries lists locations without their blobs, most recent visit first.
// Undated locations sort last.
func (r *locationRepository) Summaries(ctx context.Context) ([]*model.LocationSummary, error) {
	var summaries []*model.LocationSummary
	query := `SELECT id, title, description, visited_month, latitude, longitude,
	                 image IS NOT NULL AS has_image,
	                 thumbnail IS NOT NULL AS has_thumbnail,
	                 created_at, updated_at
	          FROM locations
	          ORDER BY visited_month IS NULL, visited_month DESC, created_at DESC`

	err := r.db.SelectContext(ctx, &summaries, query)
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// Update writes the descriptive fields only; image columns are left alone.
func (r *locationRepository) Update(ctx context.Context, location *model.Location) error {
	location.UpdatedAt = time.Now()
	query := `UPDATE locations
	          SET title = $1, description = $2, visited_month = $3, latitude = $4, longitude = $5, updated_at = $6
	          WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		location.Title,
		location.Description,
		location.VisitedMonth,
		location.Latitude,
		location.Longitude,
		location.UpdatedAt,
		location.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdateWithImage writes the descriptive fields and the image columns in one
// statement, so a failed edit leaves the whole row as it was.
func (r *locationRepository) UpdateWithImage(ctx context.Context, location *model.Location) error {
	location.UpdatedAt = time.Now()
	if len(location.Thumbnail) == 0 {
		location.ThumbnailType = nil
	}
	query := `UPDATE locations
	          SET title = $1, description = $2, visited_month = $3, latitude = $4, longitude = $5,
	              image = $6, image_type = $7, thumbnail = $8, thumbnail_type = $9, updated_at = $10
	          WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		location.Title,
		location.Description,
		location.VisitedMonth,
		location.Latitude,
		location.Longitude,
		nullBytes(location.Image),
		location.ImageType,
		nullBytes(location.Thumbnail),
		location.ThumbnailType,
		location.UpdatedAt,
		location.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdateImage replaces the image and its thumbnail together so the pair never disagrees.
func (r *locationRepository) UpdateImage(ctx context.Context, id string, image []byte, imageType string, thumbnail []byte, thumbnailType *string) error {
	query := `UPDATE locations
	          SET image = $1, image_type = $2, thumbnail = $3, thumbnail_type = $4, updated_at = $5
	          WHERE id = $6`

	if len(thumbnail) == 0 {
		thumbnailType = nil
	}

	result, err := r.db.ExecContext(ctx, query,
		nullBytes(image),
		imageType,
		nullBytes(thumbnail),
		thumbnailType,
		time.Now(),
		id,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdateThumbnail fills in a thumbnail generated on first read. updated_at is
// left alone: clients already fetched this same thumbnail under the current
// version.
func (r *locationRepository) UpdateThumbnail(ctx context.Context, id string, thumbnail []byte, thumbnailType string) error {
	query := `UPDATE locations SET thumbnail = $1, thumbnail_type = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, nullBytes(thumbnail), thumbnailType, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// ReplaceThumbnail stores a rebuilt thumbnail and bumps updated_at so the
// versioned thumbnail URL changes and cached copies are refetched.
func (r *locationRepository) ReplaceThumbnail(ctx context.Context, id string, thumbnail []byte, thumbnailType string) error {
	query := `UPDATE locations SET thumbnail = $1, thumbnail_type = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, nullBytes(thumbnail), thumbnailType, time.Now(), id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

func (r *locationRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM locations WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// ImageIDs returns the ids of all locations that carry an image, oldest first.
func (r *locationRepository) ImageIDs(ctx context.Context) ([]string, error) {
	var ids []string
	query := `SELECT id FROM locations WHERE image IS NOT NULL ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &ids, query)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// nullBytes maps an empty slice to NULL so "no image" is never stored as a zero-length blob.
func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
