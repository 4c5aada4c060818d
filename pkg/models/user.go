package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account with a credit balance. Credits are debited when a
// production starts and refunded at most once if the job is cancelled or
// times out.
type User struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Email     string    `db:"email"      json:"email"`
	Credits   int       `db:"credits"    json:"credits"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
