package service

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maxxwizard/inhousebot/internal/league"
	players "github.com/maxxwizard/inhousebot/internal/player"
	"github.com/maxxwizard/inhousebot/internal/store"
)

// PlayerService handles registration, stats and the leaderboard. The admin
// allow-list comes from configuration and is consulted once, at
// registration time.
type PlayerService struct {
	db      *sqlx.DB
	store   *store.PlayerStore
	matches *store.MatchStore
	admins  []string
}

func NewPlayerService(db *sqlx.DB, playerStore *store.PlayerStore, matchStore *store.MatchStore, admins []string) *PlayerService {
	return &PlayerService{db: db, store: playerStore, matches: matchStore, admins: admins}
}

// Register creates a Player for the account if one does not exist.
func (s *PlayerService) Register(ctx context.Context, accountID, username string) (*players.Player, error) {
	_, err := s.store.GetPlayerByAccountID(ctx, accountID)
	if err == nil {
		return nil, league.E(league.KindUserAlreadyRegistered, "account %s is already registered", accountID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, storageErr(err)
	}

	p := &players.Player{
		ID:        uuid.New(),
		AccountID: accountID,
		Username:  username,
		Rating:    players.InitialRating,
		Admin:     slices.Contains(s.admins, accountID),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return nil, storageErr(err)
	}
	return p, nil
}

type PlayerStats struct {
	Player *players.Player
	Wins   int
	Losses int
}

// Stats returns the player's rating and completed-match record.
func (s *PlayerService) Stats(ctx context.Context, accountID string) (*PlayerStats, error) {
	p, err := s.store.GetPlayerByAccountID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindUserNotRegistered, "account %s is not registered", accountID)
	}
	if err != nil {
		return nil, storageErr(err)
	}

	wins, losses, err := s.matches.PlayerRecord(ctx, p.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	return &PlayerStats{Player: p, Wins: wins, Losses: losses}, nil
}

// Leaderboard returns the top players by rating.
func (s *PlayerService) Leaderboard(ctx context.Context, limit int) ([]players.Player, error) {
	list, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return list, nil
}
