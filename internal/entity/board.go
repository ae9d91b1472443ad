package entity

import (
	"errors"
	"fmt"
)

const (
	MinBoardSize = 3
	MaxBoardSize = 5
)

var ErrInvalidBoardSize = errors.New("invalid board size")

// Board is the mutable match state shared by every rule variant.
type Board struct {
	Size   int
	Cells  []Mark
	queues [2]MoveQueue
	counts [2]int
	phases [2]Phase
}

func NewBoard(size int) (*Board, error) {
	if size < MinBoardSize || size > MaxBoardSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}

	return &Board{
		Size:   size,
		Cells:  make([]Mark, size*size),
		queues: [2]MoveQueue{NewMoveQueue(size), NewMoveQueue(size)},
	}, nil
}

// PieceCap is the number of pieces a player may own in the capped variants.
func (that *Board) PieceCap() int {
	return that.Size
}

func (that *Board) InBounds(cell int) bool {
	return cell >= 0 && cell < len(that.Cells)
}

func (that *Board) Index(row, col int) int {
	return row*that.Size + col
}

func (that *Board) RowCol(cell int) (int, int) {
	return cell / that.Size, cell % that.Size
}

// Queue returns the FIFO order of player's pieces. Empty owns an empty, zero-capacity queue.
func (that *Board) Queue(player Mark) *MoveQueue {
	if !player.IsPlayer() {
		return &MoveQueue{}
	}
	return &that.queues[player.slot()]
}

func (that *Board) Count(player Mark) int {
	if !player.IsPlayer() {
		return 0
	}
	return that.counts[player.slot()]
}

func (that *Board) Phase(player Mark) Phase {
	if !player.IsPlayer() {
		return PhasePlacement
	}
	return that.phases[player.slot()]
}

// SetPhase, Put and Clear take X or O only; the rule engine validates the player first.
func (that *Board) SetPhase(player Mark, phase Phase) {
	that.phases[player.slot()] = phase
}

// Put marks an empty cell for player and counts the piece.
func (that *Board) Put(cell int, player Mark) {
	that.Cells[cell] = player
	that.counts[player.slot()]++
}

// Clear empties a cell owned by player.
func (that *Board) Clear(cell int, player Mark) {
	that.Cells[cell] = Empty
	that.counts[player.slot()]--
}

// EmptyCells lists empty cells in index order.
func (that *Board) EmptyCells() []int {
	cells := make([]int, 0, len(that.Cells))
	for i, mark := range that.Cells {
		if mark == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// CellsOf lists the cells owned by player in index order.
func (that *Board) CellsOf(player Mark) []int {
	cells := make([]int, 0, that.Count(player))
	for i, mark := range that.Cells {
		if mark == player {
			cells = append(cells, i)
		}
	}
	return cells
}

// CenterCells is the single middle cell on odd boards and the central 2x2 block on even ones.
func (that *Board) CenterCells() []int {
	half := that.Size / 2
	if that.Size%2 == 1 {
		return []int{that.Index(half, half)}
	}
	return []int{
		that.Index(half-1, half-1), that.Index(half-1, half),
		that.Index(half, half-1), that.Index(half, half),
	}
}

// CenterDistance is the squared distance from the board centre, doubled to stay integral.
func (that *Board) CenterDistance(cell int) int {
	row, col := that.RowCol(cell)
	dr := 2*row - (that.Size - 1)
	dc := 2*col - (that.Size - 1)
	return dr*dr + dc*dc
}

func (that *Board) Clone() *Board {
	cells := make([]Mark, len(that.Cells))
	copy(cells, that.Cells)

	return &Board{
		Size:   that.Size,
		Cells:  cells,
		queues: [2]MoveQueue{that.queues[0].clone(), that.queues[1].clone()},
		counts: that.counts,
		phases: that.phases,
	}
}
