package session

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemovePlayer_Lobby(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3, 0)
	assert.True(t, f.s.RemovePlayer("p2"))
	assert.False(t, f.s.RemovePlayer("p2"))
	assert.Equal(t, 2, f.s.PlayerCount())
	assert.Equal(t, PhaseLobby, f.s.Phase())

	state := f.clients["p3"].LastState()
	require.NotNil(t, state)
	assert.Len(t, state.Players, 2)
}

func TestRemovePlayer_AuctionBystanderDiscardsLowest(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 4, 0)
	order := slices.Clone(f.s.turnOrder)
	table := slices.Clone(f.view().TableProperties)

	require.True(t, f.s.RemovePlayer(order[2]))

	v := f.s.View(order[0])
	assert.Equal(t, table[1:], v.TableProperties)
	assert.Equal(t, order[0], v.CurrentTurn, "turn unchanged")
	assert.Equal(t, []string{order[0], order[1], order[3]}, f.s.turnOrder)
}

func TestRemovePlayer_AuctionCurrentTurnMovesOn(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 4, 0)
	order := slices.Clone(f.s.turnOrder)
	require.Equal(t, order[0], f.current())

	require.True(t, f.s.RemovePlayer(order[0]))

	v := f.s.View(order[1])
	assert.Equal(t, order[1], v.CurrentTurn)
	assert.Len(t, v.TableProperties, 3)

	d, ok := f.clock.Peek()
	require.True(t, ok)
	assert.Equal(t, DefaultTurnTimeout, d, "turn timer re-armed for the next player")
}

func TestRemovePlayer_AuctionPassedPlayerKeepsTable(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 4, 0)
	order := slices.Clone(f.s.turnOrder)
	require.NoError(t, f.s.Pass(order[0]))
	before := slices.Clone(f.s.View(order[1]).TableProperties)
	require.Len(t, before, 3)

	require.True(t, f.s.RemovePlayer(order[0]))

	v := f.s.View(order[1])
	assert.Equal(t, before, v.TableProperties)
	assert.Equal(t, order[1], v.CurrentTurn)
}

func TestRemovePlayer_AuctionHighBidderRecomputed(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 4, 0)
	order := slices.Clone(f.s.turnOrder)
	require.NoError(t, f.s.PlaceBid(order[0], 1000))
	require.NoError(t, f.s.PlaceBid(order[1], 2000))

	require.True(t, f.s.RemovePlayer(order[1]))

	v := f.s.View(order[0])
	assert.Equal(t, 1000, v.HighBid)
	assert.Equal(t, order[0], v.HighBidder)
	assert.Equal(t, order[2], v.CurrentTurn)
}

func TestRemovePlayer_AuctionLeavesSoleSurvivor(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 3, 0)
	order := slices.Clone(f.s.turnOrder)
	table := slices.Clone(f.view().TableProperties)

	require.NoError(t, f.s.PlaceBid(order[0], 1000))
	require.NoError(t, f.s.Pass(order[1]))
	require.True(t, f.s.RemovePlayer(order[2]))

	w := f.s.Player(order[0])
	assert.Equal(t, []int{table[2]}, w.Properties(), "survivor takes the highest remaining")
	assert.Equal(t, DefaultStartingBalance-1000, w.Balance)
	assert.Equal(t, []int{table[0]}, f.s.Player(order[1]).Properties())

	v := f.s.View(order[0])
	assert.Equal(t, 2, v.RoundNumber)
	assert.Len(t, v.TableProperties, 2, "next round deals one card per remaining player")
	assert.Equal(t, order[0], v.CurrentTurn)
}

func TestRemovePlayer_TooFewPlayersEndsGame(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 3, 0)
	require.True(t, f.s.RemovePlayer("p3"))
	assert.Equal(t, PhaseAuction, f.s.Phase())

	require.True(t, f.s.RemovePlayer("p2"))
	assert.Equal(t, PhaseGameOver, f.s.Phase())

	state := f.clients["p1"].LastState()
	require.NotNil(t, state)
	assert.Equal(t, "game_over", state.Phase)
	require.Len(t, state.Standings, 1)
	assert.Equal(t, "p1", state.Standings[0].PlayerID)

	_, ok := f.clock.Peek()
	assert.False(t, ok, "no timers left running")
}

func TestRemovePlayer_DuringRoundDelay(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 4, 2*time.Second)
	order := slices.Clone(f.s.turnOrder)
	require.NoError(t, f.s.Pass(order[0]))
	require.NoError(t, f.s.Pass(order[1]))
	require.NoError(t, f.s.Pass(order[2]))

	require.True(t, f.s.RemovePlayer(order[1]))
	assert.Empty(t, f.view().CurrentTurn, "still waiting for the next round")

	f.fireNext()
	v := f.s.View(order[3])
	assert.Equal(t, 2, v.RoundNumber)
	assert.Len(t, v.TableProperties, 3)
	assert.Equal(t, order[3], v.CurrentTurn)
}

func TestRemovePlayer_SealedTriggersReveal(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 4, 2*time.Second)
	f.passUntilSealed()
	cheques := slices.Clone(f.view().TableCheques)
	require.Len(t, cheques, 4)

	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, f.s.PlayCard(id, f.s.Player(id).Properties()[0]))
	}
	assert.False(t, f.view().AllSelected)

	require.True(t, f.s.RemovePlayer("p4"))
	assert.True(t, f.view().AllSelected)

	f.fireNext()
	total := 0
	for _, id := range []string{"p1", "p2", "p3"} {
		c := f.s.Player(id).Cheques()
		require.Len(t, c, 1)
		total += c[0]
	}
	assert.Equal(t, sum(cheques[:3]), total, "lowest cheque discarded")
}

func TestRemovePlayer_SealedSelectionDropped(t *testing.T) {
	t.Parallel()

	f := newStartedFixture(t, 4, 0)
	f.passUntilSealed()

	require.NoError(t, f.s.PlayCard("p4", f.s.Player("p4").Properties()[0]))
	require.True(t, f.s.RemovePlayer("p4"))

	f.s.mu.Lock()
	_, kept := f.s.selections["p4"]
	f.s.mu.Unlock()
	assert.False(t, kept)
	assert.False(t, f.view().AllSelected)
}
