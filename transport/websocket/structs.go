package websocket

import "github.com/rocketscienceinc/fifo-tictactoe/internal/entity"

const (
	actionCell    = "cell"
	actionRestart = "restart"
	actionState   = "state"

	eventBoard = "board"
	eventTurn  = "turn"
	eventEnded = "ended"
	eventError = "error"
)

// Message is what a browser sends.
type Message struct {
	Action string `json:"action"`
	Cell   *int   `json:"cell,omitempty"`
}

// Event is what a browser receives. Only the fields of its Type are set.
type Event struct {
	Type   string           `json:"type"`
	Board  *entity.Snapshot `json:"board,omitempty"`
	Turn   string           `json:"turn,omitempty"`
	Status string           `json:"status,omitempty"`
	Winner string           `json:"winner,omitempty"`
	Error  string           `json:"error,omitempty"`
}
