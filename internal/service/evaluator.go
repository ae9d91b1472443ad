package service

import (
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/tictactoe"
)

const (
	WinScore  = 1000
	LoseScore = -1000

	centerWeight   = 5
	nearLineWeight = 10
	openLineWeight = 1
)

// Evaluator scores positions from the point of view of Max.
type Evaluator struct {
	Max       entity.Mark
	LineAware bool
}

// Evaluate scores a finished position by how many plies it took, otherwise falls back to Heuristic.
func (that Evaluator) Evaluate(board *entity.Board, depth int) int {
	if score, ok := that.terminal(board, depth); ok {
		return score
	}
	return that.Heuristic(board)
}

func (that Evaluator) terminal(board *entity.Board, depth int) (int, bool) {
	if tictactoe.CheckWinner(board, that.Max) {
		return WinScore - depth, true
	}
	if tictactoe.CheckWinner(board, that.Max.Opponent()) {
		return LoseScore + depth, true
	}
	return 0, false
}

// Heuristic never leaves (LoseScore, WinScore) by a margin wider than any search depth.
func (that Evaluator) Heuristic(board *entity.Board) int {
	score := 0

	for _, cell := range board.CenterCells() {
		score += that.sign(board.Cells[cell]) * centerWeight
	}

	if !that.LineAware {
		return score
	}

	for _, line := range tictactoe.Lines(board.Size) {
		score += that.lineScore(board, line)
	}

	return score
}

func (that Evaluator) lineScore(board *entity.Board, line []int) int {
	mine, theirs := 0, 0
	for _, cell := range line {
		switch that.sign(board.Cells[cell]) {
		case 1:
			mine++
		case -1:
			theirs++
		}
	}

	switch {
	case theirs == 0 && mine == len(line)-1:
		return nearLineWeight
	case mine == 0 && theirs == len(line)-1:
		return -nearLineWeight
	case theirs == 0 && mine == 1:
		return openLineWeight
	case mine == 0 && theirs == 1:
		return -openLineWeight
	default:
		return 0
	}
}

func (that Evaluator) sign(mark entity.Mark) int {
	switch mark {
	case that.Max:
		return 1
	case that.Max.Opponent():
		return -1
	default:
		return 0
	}
}
