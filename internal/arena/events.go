package arena

import "gridduel/internal/game"

// Emitter is the transport surface the coordinator talks back through.
// The websocket layer implements it; tests substitute a recorder.
type Emitter interface {
	Join(roomID, handle string)
	Leave(roomID, handle string)
	Emit(handle, event string, payload any)
	Broadcast(roomID, event string, payload any)
}

type MatchFound struct {
	Room      string         `json:"room"`
	Symbol    game.Symbol    `json:"symbol"`
	FirstTurn game.Symbol    `json:"first_turn"`
	Board     [9]game.Symbol `json:"board"`
}

type GameUpdate struct {
	Board [9]game.Symbol `json:"board"`
	Turn  game.Symbol    `json:"turn"`
}

type GameOver struct {
	Winner *game.Symbol `json:"winner"`
	Draw   bool         `json:"draw"`
}

type Stats struct {
	Waiting int `json:"waiting"`
	Rooms   int `json:"rooms"`
}
