package game

// Symbol is a player mark on the board.
type Symbol string

const (
	Empty Symbol = ""
	X     Symbol = "X"
	O     Symbol = "O"
)

// Other returns the opposing symbol.
func (s Symbol) Other() Symbol {
	if s == X {
		return O
	}
	return X
}

// Board is the 3x3 grid in row-major order.
type Board [9]Symbol

// Outcome is the terminal evaluation of a board.
type Outcome struct {
	Winner Symbol // X or O when a triple is uniform
	Draw   bool
}

// Terminal reports whether the outcome ends the game.
func (o Outcome) Terminal() bool { return o.Draw || o.Winner != Empty }

// triples holds the eight winning lines: rows, columns, diagonals.
// Checked in this fixed order; the first uniform non-empty line wins.
var triples = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Evaluate is the sole server-side authority for terminal detection.
// It must be called with the post-move board.
func Evaluate(b Board) Outcome {
	for _, t := range triples {
		if b[t[0]] != Empty && b[t[0]] == b[t[1]] && b[t[0]] == b[t[2]] {
			return Outcome{Winner: b[t[0]]}
		}
	}
	for _, c := range b {
		if c == Empty {
			return Outcome{}
		}
	}
	return Outcome{Draw: true}
}
