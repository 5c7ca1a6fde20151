package game

type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"
)

// Other returns the opposing symbol.
func (s Symbol) Other() Symbol {
	if s == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// Game is the authoritative state of one match. It knows nothing about
// connections or transport; Players maps each symbol to the opaque
// connection handle of the player holding it. Mutations must be
// serialized by the caller.
type Game struct {
	Board   [9]Symbol
	Turn    Symbol
	Winner  Symbol // empty while no winner
	Draw    bool
	Players map[Symbol]string
}

func New() *Game {
	return &Game{
		Turn:    SymbolX,
		Players: map[Symbol]string{},
	}
}

// Over reports whether the game reached a terminal state.
func (g *Game) Over() bool {
	return g.Winner != "" || g.Draw
}

// Opponent returns the handle of the other player in the room.
func (g *Game) Opponent(handle string) (string, bool) {
	for _, h := range g.Players {
		if h != handle {
			return h, true
		}
	}
	return "", false
}

// Reset clears the board for a rematch. Players keep their symbols.
func (g *Game) Reset() {
	g.Board = [9]Symbol{}
	g.Turn = SymbolX
	g.Winner = ""
	g.Draw = false
}

type State struct {
	Board  [9]Symbol `json:"board"`
	Turn   Symbol    `json:"turn"`
	Over   bool      `json:"over"`
	Winner *Symbol   `json:"winner"`
	Draw   bool      `json:"draw"`
}

// State snapshots the public view of the game for broadcasting.
func (g *Game) State() State {
	st := State{
		Board: g.Board,
		Turn:  g.Turn,
		Over:  g.Over(),
		Draw:  g.Draw,
	}
	if g.Winner != "" {
		w := g.Winner
		st.Winner = &w
	}
	return st
}
