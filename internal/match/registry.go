package match

import "gridduel/internal/game"

// Registry cross-indexes live sessions: handle -> room, handle -> symbol,
// room -> game. A handle is in the room index iff it is one of the two
// entries of that room's game.Players; Register and Teardown maintain the
// bijection. Callers serialize access.
type Registry struct {
	roomByHandle   map[string]string
	symbolByHandle map[string]game.Symbol
	gameByRoom     map[string]*game.Game
}

func NewRegistry() *Registry {
	return &Registry{
		roomByHandle:   map[string]string{},
		symbolByHandle: map[string]game.Symbol{},
		gameByRoom:     map[string]*game.Game{},
	}
}

func (r *Registry) RoomOf(handle string) (string, bool) {
	roomID, ok := r.roomByHandle[handle]
	return roomID, ok
}

func (r *Registry) SymbolOf(handle string) (game.Symbol, bool) {
	symbol, ok := r.symbolByHandle[handle]
	return symbol, ok
}

func (r *Registry) GameOf(roomID string) (*game.Game, bool) {
	g, ok := r.gameByRoom[roomID]
	return g, ok
}

// Register binds both players and their game to a new room id.
func (r *Registry) Register(roomID string, g *game.Game, handleA string, symbolA game.Symbol, handleB string, symbolB game.Symbol) {
	g.Players[symbolA] = handleA
	g.Players[symbolB] = handleB
	r.gameByRoom[roomID] = g
	r.roomByHandle[handleA] = roomID
	r.roomByHandle[handleB] = roomID
	r.symbolByHandle[handleA] = symbolA
	r.symbolByHandle[handleB] = symbolB
}

// Teardown removes the room's game and both players' index entries,
// returning the handles that were bound to it. Missing rooms return nil;
// calling twice is safe.
func (r *Registry) Teardown(roomID string) []string {
	g, ok := r.gameByRoom[roomID]
	if !ok {
		return nil
	}
	handles := make([]string, 0, len(g.Players))
	for _, handle := range g.Players {
		delete(r.roomByHandle, handle)
		delete(r.symbolByHandle, handle)
		handles = append(handles, handle)
	}
	delete(r.gameByRoom, roomID)
	return handles
}

// Rooms reports the number of live rooms.
func (r *Registry) Rooms() int {
	return len(r.gameByRoom)
}
