package league

import (
	"time"

	"github.com/google/uuid"
)

// Season scopes match numbering and "current games" queries. Exactly one
// season is active at a time: the one without an end date.
type Season struct {
	ID        uuid.UUID  `db:"id"`
	Number    int        `db:"number"`
	Name      string     `db:"name"`
	StartedAt time.Time  `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"`
}

func (s *Season) Active() bool {
	return s.EndedAt == nil
}
