package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/travelmap/internal/model"
)

var (
	ErrCoupleImageNotFound = errors.New("couple image not found")
)

type CoupleImageRepository interface {
	Replace(ctx context.Context, img *model.CoupleImage) error
	Current(ctx context.Context) (*model.CoupleImage, error)
}

type coupleImageRepository struct {
	db *sqlx.DB
}

func NewCoupleImageRepository(db *sqlx.DB) CoupleImageRepository {
	return &coupleImageRepository{db: db}
}

// Replace swaps the singleton row: delete all, then insert one, in one transaction.
func (r *coupleImageRepository) Replace(ctx context.Context, img *model.CoupleImage) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `DELETE FROM couple_images`)
	if err != nil {
		return fmt.Errorf("clear couple images: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO couple_images (id, image, image_type, created_at) VALUES ($1, $2, $3, $4)`,
		img.ID, img.Image, img.ImageType, img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert couple image: %w", err)
	}

	return tx.Commit()
}

func (r *coupleImageRepository) Current(ctx context.Context) (*model.CoupleImage, error) {
	img := &model.CoupleImage{}
	query := `SELECT * FROM couple_images ORDER BY created_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, img, query)
	if err == sql.ErrNoRows {
		return nil, ErrCoupleImageNotFound
	}
	if err != nil {
		return nil, err
	}

	return img, nil
}
