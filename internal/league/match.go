package league

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchWaitingForPlayers MatchStatus = "WaitingForPlayers"
	MatchInProgress        MatchStatus = "InProgress"
	MatchCompleted         MatchStatus = "Completed"
	MatchCancelled         MatchStatus = "Cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s MatchStatus) Terminal() bool {
	return s == MatchCompleted || s == MatchCancelled
}

type Side string

const (
	SideUndecided Side = "Undecided"
	SideRadiant   Side = "Radiant"
	SideDire      Side = "Dire"
)

// Opponent returns the opposing side. Only meaningful for Radiant/Dire.
func (s Side) Opponent() Side {
	switch s {
	case SideRadiant:
		return SideDire
	case SideDire:
		return SideRadiant
	}
	return SideUndecided
}

// RosterSize is the exact player count required to start a match.
const RosterSize = 10

type Match struct {
	ID        uuid.UUID   `db:"id"`
	SeasonID  uuid.UUID   `db:"season_id"`
	Number    int         `db:"number"`
	Status    MatchStatus `db:"status"`
	CreatorID uuid.UUID   `db:"creator_id"`
	Winner    *Side       `db:"winner"`
	CreatedAt time.Time   `db:"created_at"`
}

// RosterEntry is one player's membership in a match. Team stays Undecided
// until the match starts and the balancer assigns sides.
type RosterEntry struct {
	MatchID  uuid.UUID `db:"match_id"`
	PlayerID uuid.UUID `db:"player_id"`
	Team     Side      `db:"team"`
}

// OutcomeReport is one player's claim about which side won. Reports are a
// multiset: repeated claims by the same player each count once toward the
// convergence threshold.
type OutcomeReport struct {
	ID        uuid.UUID `db:"id"`
	MatchID   uuid.UUID `db:"match_id"`
	PlayerID  uuid.UUID `db:"player_id"`
	Winner    Side      `db:"winner"`
	CreatedAt time.Time `db:"created_at"`
}

// ReportsToWin is how many concurring outcome reports finalize a match.
const ReportsToWin = 5

// MatchSummary is a match with its current roster count, for listings.
type MatchSummary struct {
	Match
	Signed int `db:"signed"`
}
