package arena

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"gridduel/internal/game"
	"gridduel/internal/match"
)

var errInvalidPosition = errors.New("invalid position")

// Coordinator dispatches every inbound event into the matchmaking and
// game state. One mutex serializes all mutating handlers and the rematch
// timer callback: matching (pop front, register room) and teardown
// (remove three indexes) are multi-step sequences that must look atomic
// to concurrently arriving events, so per-structure locking would not be
// enough.
//
// Known leak: a room whose players stay connected but never send another
// event persists until one of them leaves or disconnects. There is no
// idle-room timeout.
type Coordinator struct {
	mu           sync.Mutex
	queue        *match.Queue
	registry     *match.Registry
	maker        *match.Matchmaker
	emitter      Emitter
	rematchDelay time.Duration
}

func New(emitter Emitter, rematchDelay time.Duration) *Coordinator {
	queue := match.NewQueue()
	registry := match.NewRegistry()
	return &Coordinator{
		queue:        queue,
		registry:     registry,
		maker:        match.NewMatchmaker(queue, registry),
		emitter:      emitter,
		rematchDelay: rematchDelay,
	}
}

func (c *Coordinator) OnConnect(handle string) {
	c.emitter.Emit(handle, "connected", map[string]any{"ok": true})
}

func (c *Coordinator) OnFindMatch(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findMatchLocked(handle)
}

func (c *Coordinator) OnCancelSearch(handle string) {
	c.mu.Lock()
	c.queue.Remove(handle)
	c.mu.Unlock()
	c.emitter.Emit(handle, "search_canceled", map[string]any{"ok": true})
}

func (c *Coordinator) OnMakeMove(handle string, rawPosition json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	roomID, ok := c.registry.RoomOf(handle)
	if !ok {
		c.emitter.Emit(handle, "error", map[string]any{"message": "not in a game"})
		return
	}
	g, ok := c.registry.GameOf(roomID)
	if !ok {
		c.emitter.Emit(handle, "error", map[string]any{"message": "game not found"})
		return
	}
	symbol, ok := c.registry.SymbolOf(handle)
	if !ok || (symbol != game.SymbolX && symbol != game.SymbolO) {
		// Registry bijection is broken for this room. Fatal to the room,
		// never to the process.
		c.emitter.Emit(handle, "error", map[string]any{"message": "unknown symbol"})
		log.Error().Str("room", roomID).Str("handle", handle).Msg("registry symbol index inconsistent")
		c.leaveCurrentGameLocked(handle)
		return
	}

	pos, err := parsePosition(rawPosition)
	if err != nil {
		c.emitter.Emit(handle, "move_rejected", map[string]any{"reason": errInvalidPosition.Error()})
		return
	}
	if err := g.Play(symbol, pos); err != nil {
		c.emitter.Emit(handle, "move_rejected", map[string]any{"reason": err.Error()})
		return
	}

	c.emitter.Broadcast(roomID, "game_update", GameUpdate{Board: g.Board, Turn: g.Turn})
	if g.Over() {
		over := GameOver{Draw: g.Draw}
		if g.Winner != "" {
			w := g.Winner
			over.Winner = &w
		}
		c.emitter.Broadcast(roomID, "game_over", over)
		log.Info().Str("room", roomID).Str("winner", string(g.Winner)).Bool("draw", g.Draw).Msg("game_over")
		c.scheduleRematch(roomID, g)
	}
}

// OnPlayAgain leaves the current room, then synchronously re-enters
// matchmaking. At most one room per handle makes the unconditional
// re-entry safe.
func (c *Coordinator) OnPlayAgain(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveCurrentGameLocked(handle)
	c.findMatchLocked(handle)
}

func (c *Coordinator) OnLeaveGame(handle string) {
	c.mu.Lock()
	c.leaveCurrentGameLocked(handle)
	c.mu.Unlock()
	c.emitter.Emit(handle, "left_game", map[string]any{"ok": true})
}

func (c *Coordinator) OnDisconnect(handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Remove(handle)
	c.leaveCurrentGameLocked(handle)
}

// Stats reads the live matchmaking gauges.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Waiting: c.queue.Len(), Rooms: c.registry.Rooms()}
}

func (c *Coordinator) findMatchLocked(handle string) {
	res := c.maker.TryMatch(handle)
	if !res.Matched {
		c.emitter.Emit(handle, "searching", map[string]any{"message": "Searching for an opponent..."})
		return
	}
	for h, symbol := range res.Symbols {
		c.emitter.Join(res.RoomID, h)
		c.emitter.Emit(h, "match_found", MatchFound{
			Room:      res.RoomID,
			Symbol:    symbol,
			FirstTurn: res.Game.Turn,
			Board:     res.Game.Board,
		})
	}
	log.Info().Str("room", res.RoomID).Msg("match_found")
}

// leaveCurrentGameLocked notifies the opponent and tears the room down.
// Handles that own nothing fall through, so leave and disconnect stay
// idempotent.
func (c *Coordinator) leaveCurrentGameLocked(handle string) {
	roomID, ok := c.registry.RoomOf(handle)
	if !ok {
		return
	}
	if g, ok := c.registry.GameOf(roomID); ok {
		if opponent, found := g.Opponent(handle); found {
			c.emitter.Emit(opponent, "opponent_left", map[string]any{})
		}
	}
	for _, h := range c.registry.Teardown(roomID) {
		c.emitter.Leave(roomID, h)
	}
	log.Info().Str("room", roomID).Msg("room_teardown")
}

// scheduleRematch resets the finished game after the delay and announces
// the fresh board. The timer holds the game reference, not the room
// lookup: if the room was torn down first the reset targets an unhooked
// object and the broadcast reaches an empty group, which is harmless.
func (c *Coordinator) scheduleRematch(roomID string, g *game.Game) {
	time.AfterFunc(c.rematchDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		g.Reset()
		c.emitter.Broadcast(roomID, "rematch_started", g.State())
	})
}

func parsePosition(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v, nil
		}
	}
	return 0, errInvalidPosition
}
