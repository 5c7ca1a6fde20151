package match

import (
	"math/rand"

	"gridduel/internal/game"
)

// Result reports the outcome of one TryMatch call. When Matched is false
// the requester was enqueued and is waiting for an opponent.
type Result struct {
	Matched  bool
	RoomID   string
	Opponent string
	Symbols  map[string]game.Symbol // handle -> assigned symbol
	Game     *game.Game
}

// Matchmaker pairs queue entries into rooms. It mutates the queue and the
// registry, so calls must happen under the caller's serialization point.
type Matchmaker struct {
	queue    *Queue
	registry *Registry
}

func NewMatchmaker(queue *Queue, registry *Registry) *Matchmaker {
	return &Matchmaker{queue: queue, registry: registry}
}

// TryMatch pairs requester with the front of the queue, or enqueues it
// when nobody is waiting. Symbols are assigned by a fair coin flip so the
// second arrival is not deterministically advantaged; X always moves
// first regardless of the flip.
func (m *Matchmaker) TryMatch(requester string) Result {
	m.queue.Remove(requester)

	opponent, ok := m.queue.DequeueFront()
	if !ok {
		m.queue.Enqueue(requester)
		return Result{}
	}

	roomID := NewRoomID()
	opponentSymbol, requesterSymbol := game.SymbolX, game.SymbolO
	if rand.Intn(2) == 1 {
		opponentSymbol, requesterSymbol = game.SymbolO, game.SymbolX
	}

	g := game.New()
	m.registry.Register(roomID, g, opponent, opponentSymbol, requester, requesterSymbol)

	return Result{
		Matched:  true,
		RoomID:   roomID,
		Opponent: opponent,
		Symbols: map[string]game.Symbol{
			opponent:  opponentSymbol,
			requester: requesterSymbol,
		},
		Game: g,
	}
}
