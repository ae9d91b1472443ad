package entity

import "fmt"

// NoCell marks an absent cell reference in moves and undo tokens.
const NoCell = -1

// Move is either a placement (From == NoCell) or a relocation.
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func Place(to int) Move {
	return Move{From: NoCell, To: to}
}

func Relocate(from, to int) Move {
	return Move{From: from, To: to}
}

func (that Move) IsPlacement() bool {
	return that.From == NoCell
}

func (that Move) String() string {
	if that.IsPlacement() {
		return fmt.Sprintf("%d", that.To)
	}
	return fmt.Sprintf("%d->%d", that.From, that.To)
}

// UndoToken carries what Apply changed beyond the destination cell.
type UndoToken struct {
	Evicted      int
	Vacated      int
	PhaseChanged bool
}

func NewUndoToken() UndoToken {
	return UndoToken{Evicted: NoCell, Vacated: NoCell}
}
