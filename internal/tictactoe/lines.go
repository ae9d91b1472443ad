package tictactoe

import (
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

var lineTables = buildLineTables()

func buildLineTables() map[int][][]int {
	tables := make(map[int][][]int, entity.MaxBoardSize-entity.MinBoardSize+1)
	for size := entity.MinBoardSize; size <= entity.MaxBoardSize; size++ {
		tables[size] = buildLines(size)
	}
	return tables
}

// Lines returns the 2n+2 winning lines of an n×n board: rows, columns, then both diagonals.
// Supported sizes share a table built at init that must not be modified.
func Lines(size int) [][]int {
	if lines, ok := lineTables[size]; ok {
		return lines
	}
	return buildLines(size)
}

func buildLines(size int) [][]int {
	lines := make([][]int, 0, 2*size+2)
	for row := range size {
		line := make([]int, size)
		for col := range size {
			line[col] = row*size + col
		}
		lines = append(lines, line)
	}

	for col := range size {
		line := make([]int, size)
		for row := range size {
			line[row] = row*size + col
		}
		lines = append(lines, line)
	}

	diagonal := make([]int, size)
	anti := make([]int, size)
	for i := range size {
		diagonal[i] = i*size + i
		anti[i] = i*size + (size - 1 - i)
	}

	return append(lines, diagonal, anti)
}

// CheckWinner reports whether player owns every cell of some line.
func CheckWinner(board *entity.Board, player entity.Mark) bool {
	if board.Count(player) < board.Size {
		return false
	}

	for _, line := range Lines(board.Size) {
		if ownsLine(board, line, player) {
			return true
		}
	}

	return false
}

// Winner returns the mark holding a complete line, or Empty.
func Winner(board *entity.Board) entity.Mark {
	for _, player := range []entity.Mark{entity.PlayerX, entity.PlayerO} {
		if CheckWinner(board, player) {
			return player
		}
	}
	return entity.Empty
}

func ownsLine(board *entity.Board, line []int, player entity.Mark) bool {
	for _, cell := range line {
		if board.Cells[cell] != player {
			return false
		}
	}
	return true
}
