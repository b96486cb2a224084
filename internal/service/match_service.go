package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maxxwizard/inhousebot/internal/league"
	players "github.com/maxxwizard/inhousebot/internal/player"
	"github.com/maxxwizard/inhousebot/internal/store"
)

// ratingDelta is applied to every participant when a match completes:
// winners gain it, losers lose it, clamped to the allowed rating range.
const ratingDelta = 25

// MatchService owns the match lifecycle: creation, roster changes,
// authorization-gated cancel/start, and outcome convergence. It never
// caches match state between calls; every operation re-reads the store and
// relies on conditional writes for the transitions that matter.
type MatchService struct {
	db      *sqlx.DB
	matches *store.MatchStore
	playerS *store.PlayerStore
	seasons *store.SeasonStore
}

func NewMatchService(db *sqlx.DB, matches *store.MatchStore, playerStore *store.PlayerStore, seasons *store.SeasonStore) *MatchService {
	return &MatchService{db: db, matches: matches, playerS: playerStore, seasons: seasons}
}

// Outcome is a player's win/loss claim about their own match.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

func (s *MatchService) resolvePlayer(ctx context.Context, accountID string) (*players.Player, error) {
	p, err := s.playerS.GetPlayerByAccountID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindUserNotRegistered, "account %s is not registered", accountID)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return p, nil
}

func (s *MatchService) activeSeason(ctx context.Context) (*league.Season, error) {
	season, err := s.seasons.ActiveSeason(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindNoActiveSeason, "no season is open")
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return season, nil
}

// openMatchByNumber resolves a match number within the active season and
// requires it to still be non-terminal.
func (s *MatchService) openMatchByNumber(ctx context.Context, season *league.Season, number int) (*league.Match, error) {
	m, err := s.matches.GetMatchByNumber(ctx, season.ID, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindMatchNotFound, "no game #%d this season", number)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if m.Status.Terminal() {
		return nil, league.E(league.KindMatchNotFound, "game #%d is already %s", number, m.Status)
	}
	return m, nil
}

// CreateMatch opens a new game in the active season with the actor as
// creator and sole roster member.
func (s *MatchService) CreateMatch(ctx context.Context, actorID string) (*league.Match, error) {
	actor, err := s.resolvePlayer(ctx, actorID)
	if err != nil {
		return nil, err
	}

	season, err := s.activeSeason(ctx)
	if err != nil {
		return nil, err
	}

	// One open game per player per season. Check-then-act: the store has no
	// compound uniqueness constraint for this, so two racing creates by the
	// same player can both pass. Accepted, the window is tiny.
	existing, err := s.matches.OpenMatchForPlayer(ctx, season.ID, actor.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storageErr(err)
	}
	if existing != nil {
		return nil, &league.Error{
			Kind:  league.KindUserAlreadySignedIn,
			Msg:   "already signed into a game",
			Match: existing,
		}
	}

	lastNumber, err := s.matches.LastMatchNumber(ctx, season.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	match := &league.Match{
		ID:        uuid.New(),
		SeasonID:  season.ID,
		Number:    lastNumber + 1,
		Status:    league.MatchWaitingForPlayers,
		CreatorID: actor.ID,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	if err := s.matches.CreateMatch(ctx, tx, match); err != nil {
		return nil, storageErr(err)
	}
	if _, err := s.matches.AddToRosterTx(ctx, tx, match.ID, actor.ID); err != nil {
		return nil, storageErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}

	return match, nil
}

// SignUp adds the actor to an open game's roster.
func (s *MatchService) SignUp(ctx context.Context, actorID string, number int) (*league.Match, error) {
	actor, err := s.resolvePlayer(ctx, actorID)
	if err != nil {
		return nil, err
	}
	season, err := s.activeSeason(ctx)
	if err != nil {
		return nil, err
	}
	match, err := s.openMatchByNumber(ctx, season, number)
	if err != nil {
		return nil, err
	}

	roster, err := s.matches.Roster(ctx, match.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	for _, entry := range roster {
		if entry.PlayerID == actor.ID {
			return nil, &league.Error{
				Kind:  league.KindUserAlreadySignedIn,
				Msg:   "already signed into this game",
				Match: match,
			}
		}
	}
	if len(roster) >= league.RosterSize {
		return nil, league.E(league.KindMatchNotReady, "game #%d is full", number)
	}

	added, err := s.matches.AddToRoster(ctx, match.ID, actor.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !added {
		// Lost a race: the roster filled (or the actor got added) between
		// the read above and the insert.
		return nil, league.E(league.KindMatchNotReady, "game #%d is full", number)
	}
	return match, nil
}

// Withdraw removes the actor from a game's roster.
func (s *MatchService) Withdraw(ctx context.Context, actorID string, number int) (*league.Match, error) {
	actor, err := s.resolvePlayer(ctx, actorID)
	if err != nil {
		return nil, err
	}
	season, err := s.activeSeason(ctx)
	if err != nil {
		return nil, err
	}
	match, err := s.openMatchByNumber(ctx, season, number)
	if err != nil {
		return nil, err
	}

	removed, err := s.matches.RemoveFromRoster(ctx, match.ID, actor.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !removed {
		return nil, league.E(league.KindUserNotSignedIn, "not signed into game #%d", number)
	}
	return match, nil
}

// CancelMatch cancels a non-terminal game. Admins may cancel any game,
// everyone else only their own. systemOverride skips authorization and is
// reserved for season-rollover cleanup.
func (s *MatchService) CancelMatch(ctx context.Context, actorID string, number int, systemOverride bool) error {
	season, err := s.activeSeason(ctx)
	if err != nil {
		return err
	}
	match, err := s.openMatchByNumber(ctx, season, number)
	if err != nil {
		return err
	}

	if !systemOverride {
		actor, err := s.resolvePlayer(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.Admin && actor.ID != match.CreatorID {
			return league.E(league.KindUnauthorized, "only the game creator or an admin can cancel game #%d", number)
		}
	}

	cancelled, err := s.matches.CancelMatch(ctx, match.ID)
	if err != nil {
		return storageErr(err)
	}
	if !cancelled {
		// Someone completed or cancelled it first.
		return league.E(league.KindMatchNotFound, "game #%d already finished", number)
	}
	return nil
}

// CancelBySeason cancels every non-terminal match in the season. Called by
// season rollover with system authority.
func (s *MatchService) CancelBySeason(ctx context.Context, seasonID uuid.UUID) (int, error) {
	open, err := s.matches.OpenMatches(ctx, seasonID)
	if err != nil {
		return 0, storageErr(err)
	}
	cancelled := 0
	for _, m := range open {
		ok, err := s.matches.CancelMatch(ctx, m.ID)
		if err != nil {
			return cancelled, storageErr(err)
		}
		if ok {
			cancelled++
		}
	}
	return cancelled, nil
}

// StartMatch moves a full game to InProgress and assigns balanced teams.
// Only the creator may start; unlike cancellation there is no admin
// override.
func (s *MatchService) StartMatch(ctx context.Context, actorID string, number int) (*TeamSplit, error) {
	actor, err := s.resolvePlayer(ctx, actorID)
	if err != nil {
		return nil, err
	}
	season, err := s.activeSeason(ctx)
	if err != nil {
		return nil, err
	}
	match, err := s.openMatchByNumber(ctx, season, number)
	if err != nil {
		return nil, err
	}

	if actor.ID != match.CreatorID {
		return nil, league.E(league.KindUnauthorized, "only the game creator can start game #%d", number)
	}

	roster, err := s.matches.RosterPlayers(ctx, match.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(roster) > league.RosterSize {
		return nil, league.E(league.KindInternalInconsistency,
			"game #%d has %d players on its roster", number, len(roster))
	}
	if len(roster) < league.RosterSize {
		return nil, league.E(league.KindMatchNotReady,
			"game #%d needs %d more players", number, league.RosterSize-len(roster))
	}

	split, err := splitTeams(roster)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	started, err := s.matches.TransitionStatus(ctx, tx, match.ID, league.MatchWaitingForPlayers, league.MatchInProgress)
	if err != nil {
		return nil, storageErr(err)
	}
	if !started {
		return nil, league.E(league.KindMatchNotFound, "game #%d already started or was cancelled", number)
	}

	for _, p := range roster {
		if err := s.matches.AssignTeam(ctx, tx, match.ID, p.ID, split.Side(p.ID)); err != nil {
			return nil, storageErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}
	return split, nil
}

// ReportOutcome records the actor's claim about who won their InProgress
// game. Reports are never deduplicated; the five-concurring-reports
// threshold is the safeguard against spam. The call that observes the
// fifth concurring report completes the match and settles ratings in the
// same transaction.
func (s *MatchService) ReportOutcome(ctx context.Context, actorID string, outcome Outcome, winnerOverride *league.Side) (*league.Match, error) {
	actor, err := s.resolvePlayer(ctx, actorID)
	if err != nil {
		return nil, err
	}
	season, err := s.activeSeason(ctx)
	if err != nil {
		return nil, err
	}

	match, err := s.matches.InProgressMatchForPlayer(ctx, season.ID, actor.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, league.E(league.KindUserNotSignedIn, "not signed into a game in progress")
	}
	if err != nil {
		return nil, storageErr(err)
	}

	declared, err := s.declaredSide(ctx, match, actor, outcome, winnerOverride)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	report := &league.OutcomeReport{
		ID:        uuid.New(),
		MatchID:   match.ID,
		PlayerID:  actor.ID,
		Winner:    declared,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.matches.AddReport(ctx, tx, report); err != nil {
		return nil, storageErr(err)
	}

	count, err := s.matches.CountReports(ctx, tx, match.ID, declared)
	if err != nil {
		return nil, storageErr(err)
	}

	if count >= league.ReportsToWin {
		completed, err := s.matches.CompleteMatch(ctx, tx, match.ID, declared)
		if err != nil {
			return nil, storageErr(err)
		}
		if completed {
			if err := s.settleRatings(ctx, tx, match.ID, declared); err != nil {
				return nil, err
			}
			match.Status = league.MatchCompleted
			match.Winner = &declared
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr(err)
	}
	return match, nil
}

// declaredSide resolves a report to the side it votes for: an explicit
// override verbatim, otherwise the actor's own team adjusted by win/loss
// polarity.
func (s *MatchService) declaredSide(ctx context.Context, match *league.Match, actor *players.Player, outcome Outcome, override *league.Side) (league.Side, error) {
	if override != nil {
		if *override != league.SideRadiant && *override != league.SideDire {
			return "", league.E(league.KindMatchNotReady, "%q is not a side", *override)
		}
		return *override, nil
	}

	roster, err := s.matches.Roster(ctx, match.ID)
	if err != nil {
		return "", storageErr(err)
	}
	var team league.Side
	for _, entry := range roster {
		if entry.PlayerID == actor.ID {
			team = entry.Team
			break
		}
	}
	if team != league.SideRadiant && team != league.SideDire {
		return "", league.E(league.KindInternalInconsistency,
			"game #%d is in progress but %s has no team", match.Number, actor.Username)
	}

	if outcome == OutcomeLoss {
		return team.Opponent(), nil
	}
	return team, nil
}

// settleRatings applies the post-match deltas to every roster member of a
// just-completed match, inside the completing transaction.
func (s *MatchService) settleRatings(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, winner league.Side) error {
	roster, err := s.matches.RosterTx(ctx, tx, matchID)
	if err != nil {
		return storageErr(err)
	}
	for _, entry := range roster {
		delta := -ratingDelta
		if entry.Team == winner {
			delta = ratingDelta
		}
		if err := s.playerS.AdjustRating(ctx, tx, entry.PlayerID, delta); err != nil {
			return storageErr(err)
		}
	}
	return nil
}
