package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maxxwizard/inhousebot/internal/league"
	"github.com/maxxwizard/inhousebot/internal/store"
)

// SeasonService owns season rollover and the season-scoped queries.
type SeasonService struct {
	db        *sqlx.DB
	seasons   *store.SeasonStore
	matches   *store.MatchStore
	playerS   *store.PlayerStore
	lifecycle *MatchService
}

func NewSeasonService(db *sqlx.DB, seasons *store.SeasonStore, matches *store.MatchStore, playerStore *store.PlayerStore, lifecycle *MatchService) *SeasonService {
	return &SeasonService{db: db, seasons: seasons, matches: matches, playerS: playerStore, lifecycle: lifecycle}
}

// OpenNewSeason closes the active season and opens its successor. Admin
// only. Any games still open in the closed season are cancelled with
// system authority.
func (s *SeasonService) OpenNewSeason(ctx context.Context, actorID, name string) (*league.Season, error) {
	actor, err := s.playerS.GetPlayerByAccountID(ctx, actorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindUserNotRegistered, "account %s is not registered", actorID)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if !actor.Admin {
		return nil, league.E(league.KindUnauthorized, "only admins can open a season")
	}

	now := time.Now().UTC()
	nextNumber := 1
	var closedID *uuid.UUID

	previous, err := s.seasons.LatestSeason(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storageErr(err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	if previous != nil {
		nextNumber = previous.Number + 1
		if previous.Active() {
			closed, err := s.seasons.CloseSeason(ctx, tx, previous.ID, now)
			if err != nil {
				return nil, storageErr(err)
			}
			if closed {
				id := previous.ID
				closedID = &id
			}
		}
	}

	season := &league.Season{
		ID:        uuid.New(),
		Number:    nextNumber,
		Name:      name,
		StartedAt: now,
	}
	if err := s.seasons.CreateSeason(ctx, tx, season); err != nil {
		return nil, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}

	// Rollover cleanup: games left open in the closed season can never be
	// started or reported again, so cancel them with system authority.
	if closedID != nil {
		cancelled, err := s.lifecycle.CancelBySeason(ctx, *closedID)
		if err != nil {
			slog.Warn("season rollover cleanup failed", "season", nextNumber-1, "error", err)
		} else if cancelled > 0 {
			slog.Info("cancelled leftover games on rollover", "season", nextNumber-1, "count", cancelled)
		}
	}

	return season, nil
}

// CurrentMatches lists the non-terminal games of the active season, by
// game number ascending.
func (s *SeasonService) CurrentMatches(ctx context.Context) ([]league.Match, error) {
	season, err := s.seasons.ActiveSeason(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindNoActiveSeason, "no season is open")
	}
	if err != nil {
		return nil, storageErr(err)
	}

	matches, err := s.matches.OpenMatches(ctx, season.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	return matches, nil
}

// CurrentMatchSummaries is CurrentMatches with a roster count per game,
// for listings.
func (s *SeasonService) CurrentMatchSummaries(ctx context.Context) ([]league.MatchSummary, error) {
	season, err := s.seasons.ActiveSeason(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindNoActiveSeason, "no season is open")
	}
	if err != nil {
		return nil, storageErr(err)
	}

	summaries, err := s.matches.OpenMatchSummaries(ctx, season.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	return summaries, nil
}

// ActiveSeason exposes the current season to the shell.
func (s *SeasonService) ActiveSeason(ctx context.Context) (*league.Season, error) {
	season, err := s.seasons.ActiveSeason(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindNoActiveSeason, "no season is open")
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return season, nil
}
