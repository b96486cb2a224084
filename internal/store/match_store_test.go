package store

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maxxwizard/inhousebot/internal/league"
	players "github.com/maxxwizard/inhousebot/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// One connection so every statement sees the same in-memory database.
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func insertTestPlayer(t *testing.T, db *sqlx.DB, username string, rating int) *players.Player {
	t.Helper()
	p := &players.Player{
		ID:        uuid.New(),
		AccountID: "acct-" + uuid.NewString(),
		Username:  username,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, NewPlayerStore(db).CreatePlayer(context.Background(), p))
	return p
}

func insertTestSeason(t *testing.T, db *sqlx.DB, number int) *league.Season {
	t.Helper()
	season := &league.Season{
		ID:        uuid.New(),
		Number:    number,
		Name:      "Test Season",
		StartedAt: time.Now().UTC(),
	}
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, NewSeasonStore(db).CreateSeason(context.Background(), tx, season))
	require.NoError(t, tx.Commit())
	return season
}

func insertTestMatch(t *testing.T, db *sqlx.DB, seasonID, creatorID uuid.UUID, number int) *league.Match {
	t.Helper()
	m := &league.Match{
		ID:        uuid.New(),
		SeasonID:  seasonID,
		Number:    number,
		Status:    league.MatchWaitingForPlayers,
		CreatorID: creatorID,
		CreatedAt: time.Now().UTC(),
	}
	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, NewMatchStore(db).CreateMatch(context.Background(), tx, m))
	require.NoError(t, tx.Commit())
	return m
}

func TestAddToRoster_SetSemantics(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewMatchStore(db)
	ctx := context.Background()

	season := insertTestSeason(t, db, 1)
	creator := insertTestPlayer(t, db, "creator", 1000)
	match := insertTestMatch(t, db, season.ID, creator.ID, 1)

	added, err := store.AddToRoster(ctx, match.ID, creator.ID)
	require.NoError(t, err)
	assert.True(t, added)

	// Adding the same player again is a no-op, not an error.
	added, err = store.AddToRoster(ctx, match.ID, creator.ID)
	require.NoError(t, err)
	assert.False(t, added)

	roster, err := store.Roster(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, creator.ID, roster[0].PlayerID)
	assert.Equal(t, league.SideUndecided, roster[0].Team)
}

func TestAddToRoster_RefusesEleventhPlayer(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewMatchStore(db)
	ctx := context.Background()

	season := insertTestSeason(t, db, 1)
	creator := insertTestPlayer(t, db, "creator", 1000)
	match := insertTestMatch(t, db, season.ID, creator.ID, 1)

	for i := 0; i < league.RosterSize; i++ {
		p := insertTestPlayer(t, db, "player", 1000)
		added, err := store.AddToRoster(ctx, match.ID, p.ID)
		require.NoError(t, err)
		require.True(t, added)
	}

	extra := insertTestPlayer(t, db, "latecomer", 1000)
	added, err := store.AddToRoster(ctx, match.ID, extra.ID)
	require.NoError(t, err)
	assert.False(t, added)

	roster, err := store.Roster(ctx, match.ID)
	require.NoError(t, err)
	assert.Len(t, roster, league.RosterSize)
}

func TestRemoveFromRoster(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewMatchStore(db)
	ctx := context.Background()

	season := insertTestSeason(t, db, 1)
	creator := insertTestPlayer(t, db, "creator", 1000)
	match := insertTestMatch(t, db, season.ID, creator.ID, 1)

	_, err := store.AddToRoster(ctx, match.ID, creator.ID)
	require.NoError(t, err)

	removed, err := store.RemoveFromRoster(ctx, match.ID, creator.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	// Removing twice reports absence.
	removed, err = store.RemoveFromRoster(ctx, match.ID, creator.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestTransitionStatus_Conditional(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewMatchStore(db)
	ctx := context.Background()

	season := insertTestSeason(t, db, 1)
	creator := insertTestPlayer(t, db, "creator", 1000)
	match := insertTestMatch(t, db, season.ID, creator.ID, 1)

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	ok, err := store.TransitionStatus(ctx, tx, match.ID, league.MatchWaitingForPlayers, league.MatchInProgress)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, tx.Commit())

	// Same precondition no longer holds.
	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	ok, err = store.TransitionStatus(ctx, tx, match.ID, league.MatchWaitingForPlayers, league.MatchInProgress)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, tx.Commit())
}

func TestCompleteMatch_ExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewMatchStore(db)
	ctx := context.Background()

	season := insertTestSeason(t, db, 1)
	creator := insertTestPlayer(t, db, "creator", 1000)
	match := insertTestMatch(t, db, season.ID, creator.ID, 1)

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	_, err = store.TransitionStatus(ctx, tx, match.ID, league.MatchWaitingForPlayers, league.MatchInProgress)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	ok, err := store.CompleteMatch(ctx, tx, match.ID, league.SideRadiant)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, tx.Commit())

	// A second completion loses the conditional write.
	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	ok, err = store.CompleteMatch(ctx, tx, match.ID, league.SideDire)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, tx.Commit())

	fetched, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, league.MatchCompleted, fetched.Status)
	require.NotNil(t, fetched.Winner)
	assert.Equal(t, league.SideRadiant, *fetched.Winner)
}

func TestCancelMatch_TerminalIsFinal(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewMatchStore(db)
	ctx := context.Background()

	season := insertTestSeason(t, db, 1)
	creator := insertTestPlayer(t, db, "creator", 1000)
	match := insertTestMatch(t, db, season.ID, creator.ID, 1)

	ok, err := store.CancelMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CancelMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastMatchNumber(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewMatchStore(db)
	ctx := context.Background()

	season := insertTestSeason(t, db, 1)
	creator := insertTestPlayer(t, db, "creator", 1000)

	n, err := store.LastMatchNumber(ctx, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	insertTestMatch(t, db, season.ID, creator.ID, 1)
	insertTestMatch(t, db, season.ID, creator.ID, 2)

	n, err = store.LastMatchNumber(ctx, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpenMatchForPlayer(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewMatchStore(db)
	ctx := context.Background()

	season := insertTestSeason(t, db, 1)
	creator := insertTestPlayer(t, db, "creator", 1000)
	match := insertTestMatch(t, db, season.ID, creator.ID, 1)

	_, err := store.AddToRoster(ctx, match.ID, creator.ID)
	require.NoError(t, err)

	found, err := store.OpenMatchForPlayer(ctx, season.ID, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, match.ID, found.ID)

	// Cancelled games no longer bind the player.
	_, err = store.CancelMatch(ctx, match.ID)
	require.NoError(t, err)

	_, err = store.OpenMatchForPlayer(ctx, season.ID, creator.ID)
	assert.Error(t, err)
}
