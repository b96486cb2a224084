package service

import (
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/maxxwizard/inhousebot/internal/store"
	"github.com/stretchr/testify/require"
)

const adminAccountID = "76561197968837492"

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

// newServices wires the full service stack over one database, with
// adminAccountID on the admin allow-list.
func newServices(t *testing.T, db *sqlx.DB) (*PlayerService, *MatchService, *SeasonService) {
	t.Helper()

	playerStore := store.NewPlayerStore(db)
	seasonStore := store.NewSeasonStore(db)
	matchStore := store.NewMatchStore(db)

	matchService := NewMatchService(db, matchStore, playerStore, seasonStore)
	playerService := NewPlayerService(db, playerStore, matchStore, []string{adminAccountID})
	seasonService := NewSeasonService(db, seasonStore, matchStore, playerStore, matchService)

	return playerService, matchService, seasonService
}
