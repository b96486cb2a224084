package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/maxxwizard/inhousebot/internal/command"
	"github.com/maxxwizard/inhousebot/internal/config"
	"github.com/maxxwizard/inhousebot/internal/db"
	"github.com/maxxwizard/inhousebot/internal/service"
	"github.com/maxxwizard/inhousebot/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	database := db.InitDB(cfg.DBPath)
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	playerStore := store.NewPlayerStore(database)
	seasonStore := store.NewSeasonStore(database)
	matchStore := store.NewMatchStore(database)

	matchService := service.NewMatchService(database, matchStore, playerStore, seasonStore)
	playerService := service.NewPlayerService(database, playerStore, matchStore, cfg.Admins)
	seasonService := service.NewSeasonService(database, seasonStore, matchStore, playerStore, matchService)

	router := command.NewRouter(playerService, matchService, seasonService)

	log.Println("Server starting on", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, newRouter(router, playerService, seasonService)); err != nil {
		log.Fatal(err)
	}
}
