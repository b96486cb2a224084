package store

import (
	"context"

	players "github.com/maxxwizard/inhousebot/internal/player"
	"github.com/jmoiron/sqlx"
)

type PlayerStore struct {
	db *sqlx.DB
}

const (
	getPlayerQuery          = "SELECT * FROM players WHERE id = ?"
	getPlayerByAccountQuery = "SELECT * FROM players WHERE account_id = ?"
	createPlayerQuery       = `
		INSERT INTO players (id, account_id, username, rating, admin, created_at) VALUES
		(:id, :account_id, :username, :rating, :admin, :created_at)
	`
	leaderboardQuery = "SELECT * FROM players ORDER BY rating DESC, username ASC LIMIT ?"

	// Rating writes clamp in SQL so a concurrent adjustment can never push
	// a player outside the allowed range.
	adjustRatingQuery = "UPDATE players SET rating = MIN(100000, MAX(0, rating + ?)) WHERE id = ?"
)

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id interface{}) (*players.Player, error) {
	var p players.Player
	err := s.db.GetContext(ctx, &p, getPlayerQuery, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlayerStore) GetPlayerByAccountID(ctx context.Context, accountID string) (*players.Player, error) {
	var p players.Player
	err := s.db.GetContext(ctx, &p, getPlayerByAccountQuery, accountID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, p *players.Player) error {
	_, err := s.db.NamedExecContext(ctx, createPlayerQuery, p)
	return err
}

func (s *PlayerStore) Leaderboard(ctx context.Context, limit int) ([]players.Player, error) {
	var list []players.Player
	err := s.db.SelectContext(ctx, &list, leaderboardQuery, limit)
	return list, err
}

func (s *PlayerStore) AdjustRating(ctx context.Context, tx *sqlx.Tx, playerID interface{}, delta int) error {
	_, err := tx.ExecContext(ctx, adjustRatingQuery, delta, playerID)
	return err
}
