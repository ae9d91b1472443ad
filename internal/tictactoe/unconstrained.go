package tictactoe

import "github.com/rocketscienceinc/fifo-tictactoe/internal/entity"

// unconstrained is classic tic-tac-toe: any empty cell, pieces never leave the board.
type unconstrained struct{}

func (unconstrained) Kind() entity.VariantKind {
	return entity.VariantUnconstrained
}

func (unconstrained) LegalMoves(board *entity.Board, _ entity.Mark) []entity.Move {
	return placements(board)
}

func (unconstrained) Apply(board *entity.Board, move entity.Move, player entity.Mark) entity.UndoToken {
	board.Put(move.To, player)
	return entity.NewUndoToken()
}

func (unconstrained) Undo(board *entity.Board, move entity.Move, player entity.Mark, _ entity.UndoToken) {
	board.Clear(move.To, player)
}
