package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/tictactoe"
	"golang.org/x/exp/rand"
)

var ErrBotNotPlaying = errors.New("bot mark is not a player")

type BotService interface {
	BestMove(board *entity.Board, player entity.Mark, difficulty entity.Difficulty) (entity.Move, SearchStats, error)
}

type botService struct {
	variant tictactoe.Variant

	mu  sync.Mutex
	rng *rand.Rand
}

func NewBotService(variant tictactoe.Variant, seed uint64) BotService {
	return &botService{
		variant: variant,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// BestMove searches the given board in place; callers hand it a board nobody else touches.
func (that *botService) BestMove(board *entity.Board, player entity.Mark, difficulty entity.Difficulty) (entity.Move, SearchStats, error) {
	if !player.IsPlayer() {
		return entity.Move{}, SearchStats{}, fmt.Errorf("%w: %d", ErrBotNotPlaying, player)
	}

	switch difficulty {
	case entity.DifficultyEasy:
		return that.randomMove(board, player)
	case entity.DifficultyMedium:
		return that.search(board, player, Evaluator{Max: player}, mediumDepth)
	case entity.DifficultyHard:
		return that.search(board, player, Evaluator{Max: player, LineAware: true}, HardDepth(board.Size))
	default:
		return entity.Move{}, SearchStats{}, fmt.Errorf("%w: %q", entity.ErrUnknownDifficulty, difficulty)
	}
}

func (that *botService) randomMove(board *entity.Board, player entity.Mark) (entity.Move, SearchStats, error) {
	moves := that.variant.LegalMoves(board, player)
	if len(moves) == 0 {
		return entity.Move{}, SearchStats{}, apperror.ErrNoAvailableMoves
	}

	that.mu.Lock()
	chosen := moves[that.rng.Intn(len(moves))]
	that.mu.Unlock()

	return chosen, SearchStats{Nodes: len(moves)}, nil
}

func (that *botService) search(board *entity.Board, player entity.Mark, eval Evaluator, depth int) (entity.Move, SearchStats, error) {
	s := newSearcher(that.variant, eval, depth, true)

	move, err := s.bestMove(board, player)
	if err != nil {
		return entity.Move{}, s.stats, fmt.Errorf("bot failed to find a move: %w", err)
	}

	return move, s.stats, nil
}
