package tictactoe

import "github.com/rocketscienceinc/fifo-tictactoe/internal/entity"

// movement places pieces until the cap, then relocates owned pieces to empty cells.
type movement struct{}

func (movement) Kind() entity.VariantKind {
	return entity.VariantMovement
}

func (movement) LegalMoves(board *entity.Board, player entity.Mark) []entity.Move {
	if board.Phase(player) == entity.PhasePlacement {
		return placements(board)
	}

	sources := board.CellsOf(player)
	targets := board.EmptyCells()

	moves := make([]entity.Move, 0, len(sources)*len(targets))
	for _, from := range sources {
		for _, to := range targets {
			moves = append(moves, entity.Relocate(from, to))
		}
	}

	return moves
}

func (movement) Apply(board *entity.Board, move entity.Move, player entity.Mark) entity.UndoToken {
	token := entity.NewUndoToken()

	if !move.IsPlacement() {
		board.Clear(move.From, player)
		board.Put(move.To, player)
		token.Vacated = move.From
		return token
	}

	board.Put(move.To, player)
	if board.Phase(player) == entity.PhasePlacement && board.Count(player) >= board.PieceCap() {
		board.SetPhase(player, entity.PhaseMovement)
		token.PhaseChanged = true
	}

	return token
}

func (movement) Undo(board *entity.Board, move entity.Move, player entity.Mark, token entity.UndoToken) {
	board.Clear(move.To, player)

	if token.Vacated != entity.NoCell {
		board.Put(token.Vacated, player)
	}

	if token.PhaseChanged {
		board.SetPhase(player, entity.PhasePlacement)
	}
}
