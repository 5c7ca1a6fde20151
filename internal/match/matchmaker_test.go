package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridduel/internal/game"
)

func newMatchmaker() (*Matchmaker, *Queue, *Registry) {
	q := NewQueue()
	r := NewRegistry()
	return NewMatchmaker(q, r), q, r
}

func TestTryMatchFirstRequesterWaits(t *testing.T) {
	m, q, r := newMatchmaker()

	res := m.TryMatch("a")
	assert.False(t, res.Matched)
	assert.Equal(t, []string{"a"}, q.Snapshot())
	assert.Equal(t, 0, r.Rooms())
}

func TestTryMatchPairsTwoWaiters(t *testing.T) {
	m, q, r := newMatchmaker()
	m.TryMatch("a")
	res := m.TryMatch("b")

	require.True(t, res.Matched)
	assert.Equal(t, "a", res.Opponent)
	assert.NotEmpty(t, res.RoomID)
	assert.Equal(t, 0, q.Len())

	// Exactly one X and one O between the two handles, X to move first.
	symbols := []game.Symbol{res.Symbols["a"], res.Symbols["b"]}
	assert.ElementsMatch(t, []game.Symbol{game.SymbolX, game.SymbolO}, symbols)
	assert.Equal(t, game.SymbolX, res.Game.Turn)

	// Registry and game agree on the assignment.
	for _, handle := range []string{"a", "b"} {
		roomID, ok := r.RoomOf(handle)
		require.True(t, ok)
		assert.Equal(t, res.RoomID, roomID)
		symbol, ok := r.SymbolOf(handle)
		require.True(t, ok)
		assert.Equal(t, handle, res.Game.Players[symbol])
	}
}

func TestTryMatchSymbolFlipCoversBothAssignments(t *testing.T) {
	sawAX, sawAO := false, false
	for i := 0; i < 200 && !(sawAX && sawAO); i++ {
		m, _, _ := newMatchmaker()
		m.TryMatch("a")
		res := m.TryMatch("b")
		require.True(t, res.Matched)
		switch res.Symbols["a"] {
		case game.SymbolX:
			sawAX = true
		case game.SymbolO:
			sawAO = true
		}
	}
	assert.True(t, sawAX, "waiter never drew X")
	assert.True(t, sawAO, "waiter never drew O")
}

func TestTryMatchDropsStaleRequesterEntry(t *testing.T) {
	m, q, _ := newMatchmaker()
	m.TryMatch("a")
	res := m.TryMatch("a") // duplicate find request must not self-match

	assert.False(t, res.Matched)
	assert.Equal(t, []string{"a"}, q.Snapshot())
}

func TestTryMatchFIFOPriority(t *testing.T) {
	m, _, _ := newMatchmaker()
	m.TryMatch("a")
	m.TryMatch("b")
	// a and b paired; c starts a fresh queue
	res := m.TryMatch("c")
	assert.False(t, res.Matched)

	res = m.TryMatch("d")
	require.True(t, res.Matched)
	assert.Equal(t, "c", res.Opponent)
}

func TestNewRoomIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewRoomID()
		require.False(t, seen[id], "duplicate room id %q", id)
		seen[id] = true
	}
}
