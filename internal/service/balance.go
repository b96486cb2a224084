package service

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/maxxwizard/inhousebot/internal/league"
	players "github.com/maxxwizard/inhousebot/internal/player"
)

// TeamSplit is the balancer's result: two disjoint five-player sides.
type TeamSplit struct {
	Radiant []players.Player
	Dire    []players.Player
}

func (t *TeamSplit) Side(playerID uuid.UUID) league.Side {
	for _, p := range t.Radiant {
		if p.ID == playerID {
			return league.SideRadiant
		}
	}
	for _, p := range t.Dire {
		if p.ID == playerID {
			return league.SideDire
		}
	}
	return league.SideUndecided
}

// RatingSums returns the total rating per side.
func (t *TeamSplit) RatingSums() (radiant, dire int) {
	for _, p := range t.Radiant {
		radiant += p.Rating
	}
	for _, p := range t.Dire {
		dire += p.Rating
	}
	return radiant, dire
}

// splitTeams balances exactly ten players into two sides of five.
//
// The two highest-rated players anchor opposite sides, the side of the top
// anchor decided by a coin flip. The remaining eight are split by trying
// all 70 four-player subsets and keeping the one with the smallest rating
// imbalance against its complement. With only 70 candidates the exhaustive
// search is cheaper than getting a greedy heuristic right.
func splitTeams(list []players.Player) (*TeamSplit, error) {
	return splitTeamsWithCoin(list, rand.Intn(2) == 0)
}

// splitTeamsWithCoin is the deterministic core: topAnchorRadiant fixes the
// side of the highest-rated player, everything after that is a function of
// the input.
func splitTeamsWithCoin(list []players.Player, topAnchorRadiant bool) (*TeamSplit, error) {
	if len(list) != league.RosterSize {
		return nil, league.E(league.KindInternalInconsistency,
			"balancer needs exactly %d players, got %d", league.RosterSize, len(list))
	}
	seen := make(map[uuid.UUID]bool, len(list))
	for _, p := range list {
		if seen[p.ID] {
			return nil, league.E(league.KindInternalInconsistency,
				"duplicate player %s on roster", p.Username)
		}
		seen[p.ID] = true
	}

	sorted := make([]players.Player, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})

	anchor1, anchor2 := sorted[0], sorted[1]
	rest := sorted[2:]

	total := 0
	for _, p := range rest {
		total += p.Rating
	}

	// Enumerate every 4-subset of the remaining 8 as a bitmask. Masks are
	// visited in increasing order, so ties resolve to the first subset in
	// the fixed enumeration and the result is reproducible.
	bestMask := 0
	bestDiff := -1
	for mask := 0; mask < 1<<len(rest); mask++ {
		if popcount(mask) != 4 {
			continue
		}
		sum := 0
		for i, p := range rest {
			if mask&(1<<i) != 0 {
				sum += p.Rating
			}
		}
		diff := total - 2*sum
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			bestDiff = diff
			bestMask = mask
		}
	}

	// The winning subset joins the first anchor's side.
	var withAnchor1, withAnchor2 []players.Player
	withAnchor1 = append(withAnchor1, anchor1)
	withAnchor2 = append(withAnchor2, anchor2)
	for i, p := range rest {
		if bestMask&(1<<i) != 0 {
			withAnchor1 = append(withAnchor1, p)
		} else {
			withAnchor2 = append(withAnchor2, p)
		}
	}

	if topAnchorRadiant {
		return &TeamSplit{Radiant: withAnchor1, Dire: withAnchor2}, nil
	}
	return &TeamSplit{Radiant: withAnchor2, Dire: withAnchor1}, nil
}

func popcount(x int) int {
	n := 0
	for ; x != 0; x &= x - 1 {
		n++
	}
	return n
}
