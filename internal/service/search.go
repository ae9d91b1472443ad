package service

import (
	"cmp"
	"math"
	"slices"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/tictactoe"
)

const mediumDepth = 2

// SearchStats describes the last search for logging.
type SearchStats struct {
	Nodes int
	Depth int
	Score int
}

// HardDepth bounds the search by board size to keep the branching factor manageable.
func HardDepth(size int) int {
	switch {
	case size <= 3:
		return 6
	case size == 4:
		return 4
	default:
		return 3
	}
}

// searcher runs minimax on a board it owns, applying and undoing trial moves in place.
type searcher struct {
	variant tictactoe.Variant
	eval    Evaluator
	limit   int
	prune   bool
	stats   SearchStats
}

func newSearcher(variant tictactoe.Variant, eval Evaluator, limit int, prune bool) *searcher {
	return &searcher{
		variant: variant,
		eval:    eval,
		limit:   limit,
		prune:   prune,
		stats:   SearchStats{Depth: limit},
	}
}

// bestMove picks the first move, in centre-first order, with the highest minimax value.
func (that *searcher) bestMove(board *entity.Board, player entity.Mark) (entity.Move, error) {
	moves := orderByCenter(board, that.variant.LegalMoves(board, player))
	if len(moves) == 0 {
		return entity.Move{}, apperror.ErrNoAvailableMoves
	}

	best := moves[0]
	bestScore := math.MinInt
	alpha := math.MinInt

	for _, move := range moves {
		token := that.variant.Apply(board, move, player)
		score := that.minimax(board, 1, player.Opponent(), alpha, math.MaxInt)
		that.variant.Undo(board, move, player, token)

		if score > bestScore {
			best, bestScore = move, score
		}

		if that.prune {
			alpha = max(alpha, bestScore)
		}
	}

	that.stats.Score = bestScore

	return best, nil
}

func (that *searcher) minimax(board *entity.Board, depth int, toMove entity.Mark, alpha, beta int) int {
	that.stats.Nodes++

	if score, ok := that.eval.terminal(board, depth); ok {
		return score
	}

	if depth >= that.limit {
		return that.eval.Heuristic(board)
	}

	moves := that.variant.LegalMoves(board, toMove)
	if len(moves) == 0 {
		return 0
	}

	maximizing := toMove == that.eval.Max
	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}

	for _, move := range moves {
		token := that.variant.Apply(board, move, toMove)
		score := that.minimax(board, depth+1, toMove.Opponent(), alpha, beta)
		that.variant.Undo(board, move, toMove, token)

		if maximizing {
			best = max(best, score)
			alpha = max(alpha, best)
		} else {
			best = min(best, score)
			beta = min(beta, best)
		}

		if that.prune && alpha >= beta {
			break
		}
	}

	return best
}

// orderByCenter sorts moves by destination distance from the centre; equal distances keep generation order.
func orderByCenter(board *entity.Board, moves []entity.Move) []entity.Move {
	slices.SortStableFunc(moves, func(a, b entity.Move) int {
		return cmp.Compare(board.CenterDistance(a.To), board.CenterDistance(b.To))
	})
	return moves
}
