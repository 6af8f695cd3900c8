package model

import "time"

// CoupleImage is the singleton logo shown on the login page and in the header.
type CoupleImage struct {
	ID        string    `db:"id"`
	Image     []byte    `db:"image"`
	ImageType string    `db:"image_type"`
	CreatedAt time.Time `db:"created_at"`
}
