package tictactoe

import "github.com/rocketscienceinc/fifo-tictactoe/internal/entity"

// fifo caps each player at PieceCap pieces; placing beyond the cap evicts the oldest one.
type fifo struct{}

func (fifo) Kind() entity.VariantKind {
	return entity.VariantFIFO
}

// LegalMoves offers every empty cell. The player's own oldest piece still blocks its cell.
func (fifo) LegalMoves(board *entity.Board, _ entity.Mark) []entity.Move {
	return placements(board)
}

func (fifo) Apply(board *entity.Board, move entity.Move, player entity.Mark) entity.UndoToken {
	token := entity.NewUndoToken()
	queue := board.Queue(player)

	if queue.Len() >= board.PieceCap() {
		token.Evicted = queue.PopFront()
		board.Clear(token.Evicted, player)
	}

	board.Put(move.To, player)
	queue.PushBack(move.To)

	return token
}

func (fifo) Undo(board *entity.Board, move entity.Move, player entity.Mark, token entity.UndoToken) {
	queue := board.Queue(player)

	queue.PopBack()
	board.Clear(move.To, player)

	if token.Evicted != entity.NoCell {
		board.Put(token.Evicted, player)
		queue.PushFront(token.Evicted)
	}
}
