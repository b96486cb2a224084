package player

import (
	"time"

	"github.com/google/uuid"
)

// InitialRating is the rating every player starts at.
const InitialRating = 1000

// Rating bounds enforced on every rating mutation.
const (
	MinRating = 0
	MaxRating = 100000
)

type Player struct {
	ID        uuid.UUID `db:"id"`
	AccountID string    `db:"account_id"`
	Username  string    `db:"username"`
	Rating    int       `db:"rating"`
	Admin     bool      `db:"admin"`
	CreatedAt time.Time `db:"created_at"`
}
