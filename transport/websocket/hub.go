package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

const clientBuffer = 32

type client struct {
	send chan []byte
}

// Hub fans game events out to every connected browser. A client that cannot keep up is dropped.
type Hub struct {
	logger *slog.Logger

	mu        sync.Mutex
	clients   map[*client]struct{}
	lastBoard []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "websocket_hub"),
		clients: make(map[*client]struct{}),
	}
}

func (that *Hub) OnBoardChanged(snapshot entity.Snapshot) {
	frame := that.encode(Event{Type: eventBoard, Board: &snapshot})

	that.mu.Lock()
	that.lastBoard = frame
	that.mu.Unlock()

	that.broadcast(frame)
}

func (that *Hub) OnTurnChanged(turn entity.Mark) {
	that.broadcast(that.encode(Event{Type: eventTurn, Turn: turn.String()}))
}

func (that *Hub) OnMatchEnded(result entity.MatchResult) {
	event := Event{Type: eventEnded, Status: result.String()}
	if !result.IsDraw() {
		event.Winner = result.Winner.String()
	}
	that.broadcast(that.encode(event))
}

func (that *Hub) OnSessionError(err error) {
	that.broadcast(that.encode(Event{Type: eventError, Error: err.Error()}))
}

// register adds a client and queues the latest board for it.
func (that *Hub) register() *client {
	c := &client{send: make(chan []byte, clientBuffer)}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[c] = struct{}{}
	if that.lastBoard != nil {
		c.send <- that.lastBoard
	}

	return c
}

func (that *Hub) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[c]; ok {
		delete(that.clients, c)
		close(c.send)
	}
}

func (that *Hub) broadcast(frame []byte) {
	if frame == nil {
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.clients {
		select {
		case c.send <- frame:
		default:
			that.logger.Warn("dropping slow websocket client")
			delete(that.clients, c)
			close(c.send)
		}
	}
}

func (that *Hub) encode(event Event) []byte {
	frame, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "type", event.Type, "error", err)
		return nil
	}
	return frame
}
