package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/maxxwizard/inhousebot/internal/command"
	"github.com/maxxwizard/inhousebot/internal/httputil"
	"github.com/maxxwizard/inhousebot/internal/league"
	"github.com/maxxwizard/inhousebot/internal/service"
)

// commandRequest is one parsed chat message: who said it and what they said.
// The chat transport itself (Steam, Discord, whatever) lives outside this
// process and posts here.
type commandRequest struct {
	Actor string `json:"actor"`
	Text  string `json:"text"`
}

type commandResponse struct {
	Reply string `json:"reply"`
}

func newRouter(cmdRouter *command.Router, playerService *service.PlayerService, seasonService *service.SeasonService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Post("/command", func(w http.ResponseWriter, r *http.Request) {
		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "Invalid command payload", err)
			return
		}
		if req.Actor == "" {
			httputil.BadRequest(w, "Missing actor", nil)
			return
		}

		reply := cmdRouter.Dispatch(r.Context(), req.Actor, req.Text)
		httputil.JSON(w, http.StatusOK, commandResponse{Reply: reply})
	})

	r.Get("/games", func(w http.ResponseWriter, r *http.Request) {
		matches, err := seasonService.CurrentMatches(r.Context())
		if err != nil {
			if league.KindOf(err) == league.KindNoActiveSeason {
				httputil.JSON(w, http.StatusOK, []league.Match{})
				return
			}
			httputil.InternalServerError(w, "Failed to list games", err)
			return
		}
		httputil.JSON(w, http.StatusOK, matches)
	})

	r.Get("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		top, err := playerService.Leaderboard(r.Context(), 10)
		if err != nil {
			httputil.InternalServerError(w, "Failed to load leaderboard", err)
			return
		}
		httputil.JSON(w, http.StatusOK, top)
	})

	return r
}
