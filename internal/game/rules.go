package game

import "errors"

// Rejection reasons surfaced verbatim to the client in move_rejected events.
var (
	ErrGameOver     = errors.New("game already over")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrOutOfRange   = errors.New("position out of range")
	ErrCellOccupied = errors.New("cell occupied")
)

// 3 rows, 3 columns, 2 diagonals.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Play places symbol at pos. On rejection the board, turn and outcome are
// untouched. A winning or board-filling move transitions the game to its
// terminal state; otherwise the turn flips.
func (g *Game) Play(symbol Symbol, pos int) error {
	if g.Over() {
		return ErrGameOver
	}
	if symbol != g.Turn {
		return ErrNotYourTurn
	}
	if pos < 0 || pos > 8 {
		return ErrOutOfRange
	}
	if g.Board[pos] != "" {
		return ErrCellOccupied
	}

	g.Board[pos] = symbol
	if g.hasWinner(symbol) {
		g.Winner = symbol
		return nil
	}
	if g.full() {
		g.Draw = true
		return nil
	}
	g.Turn = g.Turn.Other()
	return nil
}

func (g *Game) hasWinner(symbol Symbol) bool {
	for _, line := range winLines {
		if g.Board[line[0]] == symbol && g.Board[line[1]] == symbol && g.Board[line[2]] == symbol {
			return true
		}
	}
	return false
}

func (g *Game) full() bool {
	for _, cell := range g.Board {
		if cell == "" {
			return false
		}
	}
	return true
}
