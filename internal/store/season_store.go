package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maxxwizard/inhousebot/internal/league"
)

type SeasonStore struct {
	db *sqlx.DB
}

const (
	activeSeasonQuery = "SELECT * FROM seasons WHERE ended_at IS NULL ORDER BY number DESC LIMIT 1"
	latestSeasonQuery = "SELECT * FROM seasons ORDER BY number DESC LIMIT 1"
	createSeasonQuery = `
		INSERT INTO seasons (id, number, name, started_at, ended_at) VALUES
		(:id, :number, :name, :started_at, :ended_at)
	`
	closeSeasonQuery = "UPDATE seasons SET ended_at = ? WHERE id = ? AND ended_at IS NULL"
)

func NewSeasonStore(db *sqlx.DB) *SeasonStore {
	return &SeasonStore{db: db}
}

// ActiveSeason returns the season with no end date, or sql.ErrNoRows when
// no season has been opened yet.
func (s *SeasonStore) ActiveSeason(ctx context.Context) (*league.Season, error) {
	var season league.Season
	err := s.db.GetContext(ctx, &season, activeSeasonQuery)
	if err != nil {
		return nil, err
	}
	return &season, nil
}

func (s *SeasonStore) LatestSeason(ctx context.Context) (*league.Season, error) {
	var season league.Season
	err := s.db.GetContext(ctx, &season, latestSeasonQuery)
	if err != nil {
		return nil, err
	}
	return &season, nil
}

func (s *SeasonStore) CreateSeason(ctx context.Context, tx *sqlx.Tx, season *league.Season) error {
	_, err := tx.NamedExecContext(ctx, createSeasonQuery, season)
	return err
}

// CloseSeason stamps the end date. Conditional on the season still being
// open; returns false if another rollover already closed it.
func (s *SeasonStore) CloseSeason(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, endedAt time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, closeSeasonQuery, endedAt, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
