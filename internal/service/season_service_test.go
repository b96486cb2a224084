package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/maxxwizard/inhousebot/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenNewSeason_AdminOnly(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	players, _, seasons := newServices(t, db)
	ctx := context.Background()

	_, err := players.Register(ctx, "acct-regular", "regular")
	require.NoError(t, err)

	_, err = seasons.OpenNewSeason(ctx, "acct-regular", "Season 1")
	assert.Equal(t, league.KindUnauthorized, league.KindOf(err))

	_, err = seasons.OpenNewSeason(ctx, "acct-unknown", "Season 1")
	assert.Equal(t, league.KindUserNotRegistered, league.KindOf(err))
}

func TestOpenNewSeason_MonotonicNumbering(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	players, _, seasons := newServices(t, db)
	ctx := context.Background()

	_, err := players.Register(ctx, adminAccountID, "maxxwizard")
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		season, err := seasons.OpenNewSeason(ctx, adminAccountID, fmt.Sprintf("Season %d", i))
		require.NoError(t, err)
		assert.Equal(t, i, season.Number)
		assert.True(t, season.Active())

		active, err := seasons.ActiveSeason(ctx)
		require.NoError(t, err)
		assert.Equal(t, season.ID, active.ID, "exactly one active season")
	}
}

func TestOpenNewSeason_CancelsLeftoverGames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	players, matches, seasons := newServices(t, db)
	ctx := context.Background()

	_, err := players.Register(ctx, adminAccountID, "maxxwizard")
	require.NoError(t, err)
	first, err := seasons.OpenNewSeason(ctx, adminAccountID, "Season 1")
	require.NoError(t, err)

	m, err := matches.CreateMatch(ctx, adminAccountID)
	require.NoError(t, err)

	_, err = seasons.OpenNewSeason(ctx, adminAccountID, "Season 2")
	require.NoError(t, err)

	// The old season's game was cancelled by rollover cleanup.
	leftover, err := matches.matches.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, league.MatchCancelled, leftover.Status)

	open, err := matches.matches.OpenMatches(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, open)

	// The player is free to open a game in the new season, numbered from 1.
	fresh, err := matches.CreateMatch(ctx, adminAccountID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Number)
}

func TestCurrentMatches(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	players, matches, seasons := newServices(t, db)
	ctx := context.Background()

	_, err := seasons.CurrentMatches(ctx)
	assert.Equal(t, league.KindNoActiveSeason, league.KindOf(err))

	_, err = players.Register(ctx, adminAccountID, "maxxwizard")
	require.NoError(t, err)
	_, err = players.Register(ctx, "acct-other", "other")
	require.NoError(t, err)
	_, err = seasons.OpenNewSeason(ctx, adminAccountID, "Season 1")
	require.NoError(t, err)

	_, err = matches.CreateMatch(ctx, adminAccountID)
	require.NoError(t, err)
	_, err = matches.CreateMatch(ctx, "acct-other")
	require.NoError(t, err)

	current, err := seasons.CurrentMatches(ctx)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, 1, current[0].Number)
	assert.Equal(t, 2, current[1].Number)

	require.NoError(t, matches.CancelMatch(ctx, adminAccountID, 1, false))

	current, err = seasons.CurrentMatches(ctx)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, 2, current[0].Number)
}
