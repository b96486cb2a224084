// Package command translates chat text into engine calls and formats the
// replies. It is the only layer that knows about command syntax; the
// services underneath deal in resolved players and match numbers.
package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/maxxwizard/inhousebot/internal/league"
	players "github.com/maxxwizard/inhousebot/internal/player"
	"github.com/maxxwizard/inhousebot/internal/service"
)

const helpText = "commands: !register <name>, !games, !new, !sign <n>, !unsign <n>, " +
	"!cancel <n>, !start <n>, !win, !loss, !stats, !leaderboard, !newseason <name>"

const leaderboardSize = 10

type Router struct {
	players *service.PlayerService
	matches *service.MatchService
	seasons *service.SeasonService
}

func NewRouter(playerService *service.PlayerService, matchService *service.MatchService, seasonService *service.SeasonService) *Router {
	return &Router{players: playerService, matches: matchService, seasons: seasonService}
}

// Dispatch handles one inbound message from actorID and returns the reply
// text. It never returns an error: failures render as chat replies.
func (r *Router) Dispatch(ctx context.Context, actorID, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "ping":
		return "pong"

	case "!register":
		if len(args) == 0 {
			return "usage: !register <name>"
		}
		p, err := r.players.Register(ctx, actorID, strings.Join(args, " "))
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("welcome, %s! your starting rating is %d", p.Username, p.Rating)

	case "!games":
		summaries, err := r.seasons.CurrentMatchSummaries(ctx)
		if err != nil {
			return renderError(err)
		}
		return renderGames(summaries)

	case "!new":
		m, err := r.matches.CreateMatch(ctx, actorID)
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("game #%d created, you are signed in (1/%d)", m.Number, league.RosterSize)

	case "!sign":
		n, ok := parseGameNumber(args)
		if !ok {
			return "usage: !sign <game number>"
		}
		m, err := r.matches.SignUp(ctx, actorID, n)
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("signed into game #%d", m.Number)

	case "!unsign":
		n, ok := parseGameNumber(args)
		if !ok {
			return "usage: !unsign <game number>"
		}
		m, err := r.matches.Withdraw(ctx, actorID, n)
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("unsigned from game #%d", m.Number)

	case "!cancel":
		n, ok := parseGameNumber(args)
		if !ok {
			return "usage: !cancel <game number>"
		}
		if err := r.matches.CancelMatch(ctx, actorID, n, false); err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("game #%d cancelled", n)

	case "!start":
		n, ok := parseGameNumber(args)
		if !ok {
			return "usage: !start <game number>"
		}
		split, err := r.matches.StartMatch(ctx, actorID, n)
		if err != nil {
			return renderError(err)
		}
		return renderSplit(n, split)

	case "!win", "!loss":
		outcome := service.OutcomeWin
		if cmd == "!loss" {
			outcome = service.OutcomeLoss
		}
		m, err := r.matches.ReportOutcome(ctx, actorID, outcome, nil)
		if err != nil {
			return renderError(err)
		}
		if m.Status == league.MatchCompleted && m.Winner != nil {
			return fmt.Sprintf("game #%d is complete, %s wins! ratings updated", m.Number, *m.Winner)
		}
		return fmt.Sprintf("report recorded for game #%d", m.Number)

	case "!stats":
		stats, err := r.players.Stats(ctx, actorID)
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("%s: rating %d, record %d-%d",
			stats.Player.Username, stats.Player.Rating, stats.Wins, stats.Losses)

	case "!leaderboard":
		top, err := r.players.Leaderboard(ctx, leaderboardSize)
		if err != nil {
			return renderError(err)
		}
		return renderLeaderboard(top)

	case "!newseason":
		if len(args) == 0 {
			return "usage: !newseason <name>"
		}
		season, err := r.seasons.OpenNewSeason(ctx, actorID, strings.Join(args, " "))
		if err != nil {
			return renderError(err)
		}
		return fmt.Sprintf("season %d (%s) is open", season.Number, season.Name)
	}

	return helpText
}

func parseGameNumber(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func renderGames(summaries []league.MatchSummary) string {
	if len(summaries) == 0 {
		return "no games right now, start one with !new"
	}
	var b strings.Builder
	for i, m := range summaries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "game #%d | %s | %d/%d signed", m.Number, m.Status, m.Signed, league.RosterSize)
	}
	return b.String()
}

func renderSplit(number int, split *service.TeamSplit) string {
	radiantSum, direSum := split.RatingSums()
	var b strings.Builder
	fmt.Fprintf(&b, "game #%d started!\nRadiant (%d): %s\nDire (%d): %s",
		number, radiantSum, names(split.Radiant), direSum, names(split.Dire))
	return b.String()
}

func renderLeaderboard(top []players.Player) string {
	if len(top) == 0 {
		return "nobody is registered yet"
	}
	var b strings.Builder
	for i, p := range top {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s (%d)", i+1, p.Username, p.Rating)
	}
	return b.String()
}

func names(list []players.Player) string {
	parts := make([]string, len(list))
	for i, p := range list {
		parts[i] = p.Username
	}
	return strings.Join(parts, ", ")
}

// renderError turns an engine failure into a chat reply.
func renderError(err error) string {
	switch league.KindOf(err) {
	case league.KindUserNotRegistered:
		return "you are not registered yet, use !register <name>"
	case league.KindUserAlreadyRegistered:
		return "you are already registered"
	case league.KindUserAlreadySignedIn:
		if m := league.MatchOf(err); m != nil {
			return fmt.Sprintf("you are already signed into game #%d", m.Number)
		}
		return "you are already signed into a game"
	case league.KindUserNotSignedIn:
		return "you are not signed into that game"
	case league.KindUnauthorized:
		return "you are not allowed to do that"
	case league.KindMatchNotFound:
		return "no such game (it may have finished already)"
	case league.KindMatchNotReady:
		var le *league.Error
		if errors.As(err, &le) && le.Msg != "" {
			return le.Msg
		}
		return "that game is not ready"
	case league.KindNoActiveSeason:
		return "no season is open yet, ask an admin to run !newseason"
	case league.KindStorageUnavailable:
		return "the database is having a moment, try again shortly"
	}
	return "something went terribly wrong if you are reading this"
}
