package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/maxxwizard/inhousebot/internal/league"
	players "github.com/maxxwizard/inhousebot/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratedPlayers(ratings ...int) []players.Player {
	list := make([]players.Player, len(ratings))
	for i, r := range ratings {
		list[i] = players.Player{
			ID:       uuid.New(),
			Username: string(rune('A' + i)),
			Rating:   r,
		}
	}
	return list
}

func TestSplitTeams_FivePerSideNoOverlap(t *testing.T) {
	list := ratedPlayers(1000, 1100, 950, 1200, 1050, 980, 1020, 1300, 900, 1010)

	split, err := splitTeams(list)
	require.NoError(t, err)

	require.Len(t, split.Radiant, 5)
	require.Len(t, split.Dire, 5)

	seen := make(map[uuid.UUID]int)
	for _, p := range split.Radiant {
		seen[p.ID]++
	}
	for _, p := range split.Dire {
		seen[p.ID]++
	}
	require.Len(t, seen, 10, "every input player appears")
	for _, n := range seen {
		assert.Equal(t, 1, n, "no player appears twice")
	}
}

func TestSplitTeams_AnchorsOnOppositeSides(t *testing.T) {
	list := ratedPlayers(1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 2000, 1900)
	top, second := list[8].ID, list[9].ID

	for _, coin := range []bool{true, false} {
		split, err := splitTeamsWithCoin(list, coin)
		require.NoError(t, err)

		topSide := split.Side(top)
		secondSide := split.Side(second)
		assert.NotEqual(t, league.SideUndecided, topSide)
		assert.NotEqual(t, topSide, secondSide)
		if coin {
			assert.Equal(t, league.SideRadiant, topSide)
		} else {
			assert.Equal(t, league.SideDire, topSide)
		}
	}
}

func TestSplitTeams_MinimalImbalance(t *testing.T) {
	// Anchors are 1090 and 1080; the remaining eight admit a perfect
	// half-half split, so the final sums differ by exactly the anchor gap.
	list := ratedPlayers(1000, 1010, 1020, 1030, 1040, 1050, 1060, 1070, 1080, 1090)

	split, err := splitTeamsWithCoin(list, true)
	require.NoError(t, err)

	radiant, dire := split.RatingSums()
	diff := radiant - dire
	if diff < 0 {
		diff = -diff
	}
	assert.Equal(t, 10, diff)
}

func TestSplitTeams_DeterministicGivenCoin(t *testing.T) {
	list := ratedPlayers(1000, 1100, 950, 1200, 1050, 980, 1020, 1300, 900, 1010)

	first, err := splitTeamsWithCoin(list, true)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := splitTeamsWithCoin(list, true)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSplitTeams_RejectsBadInput(t *testing.T) {
	_, err := splitTeams(ratedPlayers(1000, 1000, 1000))
	require.Error(t, err)
	assert.Equal(t, league.KindInternalInconsistency, league.KindOf(err))

	list := ratedPlayers(1000, 1100, 950, 1200, 1050, 980, 1020, 1300, 900, 1010)
	list[9] = list[0]
	_, err = splitTeams(list)
	require.Error(t, err)
	assert.Equal(t, league.KindInternalInconsistency, league.KindOf(err))
}
