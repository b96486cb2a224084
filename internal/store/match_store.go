package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maxxwizard/inhousebot/internal/league"
	players "github.com/maxxwizard/inhousebot/internal/player"
)

// MatchStore owns the matches, match_players and match_reports tables.
// Every status transition goes through a conditional UPDATE keyed on the
// pre-transition status; a zero-row result means another command got there
// first, which callers surface as an ordinary failure.
type MatchStore struct {
	db *sqlx.DB
}

const (
	getMatchQuery         = "SELECT * FROM matches WHERE id = ?"
	getMatchByNumberQuery = "SELECT * FROM matches WHERE season_id = ? AND number = ?"
	lastMatchNumberQuery  = "SELECT COALESCE(MAX(number), 0) FROM matches WHERE season_id = ?"
	createMatchQuery      = `
		INSERT INTO matches (id, season_id, number, status, creator_id, winner, created_at) VALUES
		(:id, :season_id, :number, :status, :creator_id, :winner, :created_at)
	`
	openMatchesQuery = `
		SELECT * FROM matches
		WHERE season_id = ? AND status IN ('WaitingForPlayers', 'InProgress')
		ORDER BY number ASC
	`
	openMatchSummariesQuery = `
		SELECT m.*, (SELECT COUNT(*) FROM match_players mp WHERE mp.match_id = m.id) AS signed
		FROM matches m
		WHERE m.season_id = ? AND m.status IN ('WaitingForPlayers', 'InProgress')
		ORDER BY m.number ASC
	`
	openMatchForPlayerQuery = `
		SELECT m.* FROM matches m
		JOIN match_players mp ON mp.match_id = m.id
		WHERE m.season_id = ? AND mp.player_id = ? AND m.status IN ('WaitingForPlayers', 'InProgress')
		ORDER BY m.number ASC LIMIT 1
	`
	inProgressMatchForPlayerQuery = `
		SELECT m.* FROM matches m
		JOIN match_players mp ON mp.match_id = m.id
		WHERE m.season_id = ? AND mp.player_id = ? AND m.status = 'InProgress'
		ORDER BY m.number ASC LIMIT 1
	`

	rosterQuery = "SELECT match_id, player_id, team FROM match_players WHERE match_id = ? ORDER BY rowid ASC"

	rosterPlayersQuery = `
		SELECT p.* FROM players p
		JOIN match_players mp ON mp.player_id = p.id
		WHERE mp.match_id = ?
		ORDER BY mp.rowid ASC
	`

	// Add-if-absent, refused once the roster is full. Both conditions live
	// in the INSERT itself so concurrent sign-ups cannot push the roster
	// past ten players.
	addToRosterQuery = `
		INSERT INTO match_players (match_id, player_id, team)
		SELECT ?, ?, 'Undecided'
		WHERE (SELECT COUNT(*) FROM match_players WHERE match_id = ?) < ?
		AND NOT EXISTS (SELECT 1 FROM match_players WHERE match_id = ? AND player_id = ?)
	`
	removeFromRosterQuery = "DELETE FROM match_players WHERE match_id = ? AND player_id = ?"

	transitionStatusQuery = "UPDATE matches SET status = ? WHERE id = ? AND status = ?"
	cancelMatchQuery      = "UPDATE matches SET status = 'Cancelled' WHERE id = ? AND status IN ('WaitingForPlayers', 'InProgress')"
	completeMatchQuery    = "UPDATE matches SET status = 'Completed', winner = ? WHERE id = ? AND status = 'InProgress'"

	assignTeamQuery = "UPDATE match_players SET team = ? WHERE match_id = ? AND player_id = ?"

	addReportQuery = `
		INSERT INTO match_reports (id, match_id, player_id, winner, created_at) VALUES
		(:id, :match_id, :player_id, :winner, :created_at)
	`
	countReportsQuery = "SELECT COUNT(*) FROM match_reports WHERE match_id = ? AND winner = ?"

	playerRecordQuery = `
		SELECT
			COUNT(CASE WHEN m.winner = mp.team THEN 1 END),
			COUNT(CASE WHEN m.winner IS NOT NULL AND m.winner != mp.team THEN 1 END)
		FROM match_players mp
		JOIN matches m ON m.id = mp.match_id
		WHERE mp.player_id = ? AND m.status = 'Completed'
	`
)

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) GetMatch(ctx context.Context, id uuid.UUID) (*league.Match, error) {
	var m league.Match
	err := s.db.GetContext(ctx, &m, getMatchQuery, id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MatchStore) GetMatchByNumber(ctx context.Context, seasonID uuid.UUID, number int) (*league.Match, error) {
	var m league.Match
	err := s.db.GetContext(ctx, &m, getMatchByNumberQuery, seasonID, number)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MatchStore) LastMatchNumber(ctx context.Context, seasonID uuid.UUID) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, lastMatchNumberQuery, seasonID)
	return n, err
}

func (s *MatchStore) CreateMatch(ctx context.Context, tx *sqlx.Tx, m *league.Match) error {
	_, err := tx.NamedExecContext(ctx, createMatchQuery, m)
	return err
}

func (s *MatchStore) OpenMatches(ctx context.Context, seasonID uuid.UUID) ([]league.Match, error) {
	var matches []league.Match
	err := s.db.SelectContext(ctx, &matches, openMatchesQuery, seasonID)
	return matches, err
}

func (s *MatchStore) OpenMatchSummaries(ctx context.Context, seasonID uuid.UUID) ([]league.MatchSummary, error) {
	var summaries []league.MatchSummary
	err := s.db.SelectContext(ctx, &summaries, openMatchSummariesQuery, seasonID)
	return summaries, err
}

// OpenMatchForPlayer returns the non-terminal match in the season the
// player is signed into, or sql.ErrNoRows.
func (s *MatchStore) OpenMatchForPlayer(ctx context.Context, seasonID, playerID uuid.UUID) (*league.Match, error) {
	var m league.Match
	err := s.db.GetContext(ctx, &m, openMatchForPlayerQuery, seasonID, playerID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MatchStore) InProgressMatchForPlayer(ctx context.Context, seasonID, playerID uuid.UUID) (*league.Match, error) {
	var m league.Match
	err := s.db.GetContext(ctx, &m, inProgressMatchForPlayerQuery, seasonID, playerID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MatchStore) Roster(ctx context.Context, matchID uuid.UUID) ([]league.RosterEntry, error) {
	var roster []league.RosterEntry
	err := s.db.SelectContext(ctx, &roster, rosterQuery, matchID)
	return roster, err
}

// RosterTx reads the roster inside an open transaction.
func (s *MatchStore) RosterTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]league.RosterEntry, error) {
	var roster []league.RosterEntry
	err := tx.SelectContext(ctx, &roster, rosterQuery, matchID)
	return roster, err
}

func (s *MatchStore) RosterPlayers(ctx context.Context, matchID uuid.UUID) ([]players.Player, error) {
	var list []players.Player
	err := s.db.SelectContext(ctx, &list, rosterPlayersQuery, matchID)
	return list, err
}

// AddToRoster adds the player if absent and the roster is not full.
// Returns false when nothing was inserted.
func (s *MatchStore) AddToRoster(ctx context.Context, matchID, playerID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, addToRosterQuery,
		matchID, playerID, matchID, league.RosterSize, matchID, playerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// AddToRosterTx is AddToRoster inside an existing transaction, used when a
// match and its first roster member are created together.
func (s *MatchStore) AddToRosterTx(ctx context.Context, tx *sqlx.Tx, matchID, playerID uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx, addToRosterQuery,
		matchID, playerID, matchID, league.RosterSize, matchID, playerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *MatchStore) RemoveFromRoster(ctx context.Context, matchID, playerID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, removeFromRosterQuery, matchID, playerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// TransitionStatus flips status from→to. Returns false if the match was no
// longer in the expected status at write time.
func (s *MatchStore) TransitionStatus(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, from, to league.MatchStatus) (bool, error) {
	res, err := tx.ExecContext(ctx, transitionStatusQuery, to, matchID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// CancelMatch moves a non-terminal match to Cancelled. Returns false if the
// match already reached a terminal status.
func (s *MatchStore) CancelMatch(ctx context.Context, matchID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, cancelMatchQuery, matchID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// CompleteMatch sets the winner and Completed together. The InProgress
// guard makes winner declaration exactly-once under concurrent reports.
func (s *MatchStore) CompleteMatch(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, winner league.Side) (bool, error) {
	res, err := tx.ExecContext(ctx, completeMatchQuery, winner, matchID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *MatchStore) AssignTeam(ctx context.Context, tx *sqlx.Tx, matchID, playerID uuid.UUID, team league.Side) error {
	_, err := tx.ExecContext(ctx, assignTeamQuery, team, matchID, playerID)
	return err
}

func (s *MatchStore) AddReport(ctx context.Context, tx *sqlx.Tx, report *league.OutcomeReport) error {
	_, err := tx.NamedExecContext(ctx, addReportQuery, report)
	return err
}

func (s *MatchStore) CountReports(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, side league.Side) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, countReportsQuery, matchID, side)
	return n, err
}

// PlayerRecord tallies completed-match wins and losses for a player.
func (s *MatchStore) PlayerRecord(ctx context.Context, playerID uuid.UUID) (wins, losses int, err error) {
	row := s.db.QueryRowContext(ctx, playerRecordQuery, playerID)
	err = row.Scan(&wins, &losses)
	return wins, losses, err
}
