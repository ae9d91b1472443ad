package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

// Variant is the move-generation strategy of a rule set.
// Apply assumes the move came from LegalMoves; use ValidateMove for untrusted input.
type Variant interface {
	Kind() entity.VariantKind
	LegalMoves(board *entity.Board, player entity.Mark) []entity.Move
	Apply(board *entity.Board, move entity.Move, player entity.Mark) entity.UndoToken
	Undo(board *entity.Board, move entity.Move, player entity.Mark, token entity.UndoToken)
}

func NewVariant(kind entity.VariantKind) (Variant, error) {
	switch kind {
	case entity.VariantUnconstrained:
		return unconstrained{}, nil
	case entity.VariantFIFO:
		return fifo{}, nil
	case entity.VariantMovement:
		return movement{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownVariant, kind)
	}
}

func placements(board *entity.Board) []entity.Move {
	moves := make([]entity.Move, 0, len(board.Cells))
	for i, mark := range board.Cells {
		if mark == entity.Empty {
			moves = append(moves, entity.Place(i))
		}
	}
	return moves
}
