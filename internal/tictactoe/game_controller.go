package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

// MakeTurn validates and applies an untrusted move, then reports the outcome for the next player.
// A rejected move leaves the board untouched.
func MakeTurn(board *entity.Board, variant Variant, player entity.Mark, move entity.Move) (entity.MatchResult, error) {
	if result := Outcome(board, variant, player); result.IsFinished() {
		return result, apperror.ErrGameFinished
	}

	if err := ValidateMove(board, variant, player, move); err != nil {
		return entity.Ongoing(), fmt.Errorf("invalid turn: %w", err)
	}

	variant.Apply(board, move, player)

	return Outcome(board, variant, player.Opponent()), nil
}

// ValidateMove checks a move against the current board and phase.
func ValidateMove(board *entity.Board, variant Variant, player entity.Mark, move entity.Move) error {
	if !player.IsPlayer() {
		return fmt.Errorf("%w: %d", entity.ErrUnknownMark, player)
	}

	if !board.InBounds(move.To) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, move.To)
	}

	if !move.IsPlacement() && !board.InBounds(move.From) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, move.From)
	}

	if board.Cells[move.To] != entity.Empty {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, move.To)
	}

	if !move.IsPlacement() && board.Cells[move.From] != player {
		return fmt.Errorf("%w: cell %d", apperror.ErrNotYourPiece, move.From)
	}

	for _, legal := range variant.LegalMoves(board, player) {
		if legal == move {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", apperror.ErrIllegalMove, move)
}

// IsTerminal reports a completed line or a side to move without legal moves.
func IsTerminal(board *entity.Board, variant Variant, toMove entity.Mark) bool {
	return Outcome(board, variant, toMove).IsFinished()
}

// Outcome resolves the match from the point of view of the side to move.
func Outcome(board *entity.Board, variant Variant, toMove entity.Mark) entity.MatchResult {
	if winner := Winner(board); winner != entity.Empty {
		return entity.Win(winner)
	}

	if len(variant.LegalMoves(board, toMove)) == 0 {
		return entity.Draw()
	}

	return entity.Ongoing()
}
