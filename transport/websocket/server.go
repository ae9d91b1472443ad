package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
	pongTimeout      = 2 * pingInterval
)

var ErrMissingCell = errors.New("cell action needs a cell index")

type gameManager interface {
	OnCellActivated(ctx context.Context, cell int) error
	Restart(ctx context.Context) error
	Snapshot(ctx context.Context) (entity.Snapshot, error)
}

// Server upgrades /ws requests and forwards browser actions to the game.
type Server struct {
	logger   *slog.Logger
	hub      *Hub
	manager  gameManager
	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context, c *client, msg *Message) error
}

func NewServer(logger *slog.Logger, hub *Hub, manager gameManager) *Server {
	server := &Server{
		logger:  logger.With("component", "websocket"),
		hub:     hub,
		manager: manager,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
	}

	server.handlers = map[string]func(context.Context, *client, *Message) error{
		actionCell:    server.handleCell,
		actionRestart: server.handleRestart,
		actionState:   server.handleState,
	}

	return server
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP", "remote", r.RemoteAddr)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	c := that.hub.register()
	defer that.hub.unregister(c)

	log.Info("websocket client connected")

	go that.writeLoop(conn, c)

	that.readLoop(r.Context(), conn, c)

	log.Info("websocket client disconnected")
}

// readLoop handles one action at a time until the browser goes away.
func (that *Server) readLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	log := that.logger.With("method", "readLoop")

	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				that.reply(c, Event{Type: eventError, Error: "invalid JSON"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			that.reply(c, Event{Type: eventError, Error: fmt.Sprintf("unknown action %q", msg.Action)})
			continue
		}

		if err := handler(ctx, c, &msg); err != nil {
			log.Debug("action rejected", "action", msg.Action, "error", err)
			that.reply(c, Event{Type: eventError, Error: err.Error()})
		}
	}
}

func (that *Server) writeLoop(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Server) handleCell(ctx context.Context, _ *client, msg *Message) error {
	if msg.Cell == nil {
		return ErrMissingCell
	}
	return that.manager.OnCellActivated(ctx, *msg.Cell)
}

func (that *Server) handleRestart(ctx context.Context, _ *client, _ *Message) error {
	return that.manager.Restart(ctx)
}

func (that *Server) handleState(ctx context.Context, c *client, _ *Message) error {
	snapshot, err := that.manager.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to get state: %w", err)
	}

	that.reply(c, Event{Type: eventBoard, Board: &snapshot})

	return nil
}

// reply queues an event for one client only.
func (that *Server) reply(c *client, event Event) {
	frame := that.hub.encode(event)
	if frame == nil {
		return
	}

	that.hub.mu.Lock()
	defer that.hub.mu.Unlock()

	if _, ok := that.hub.clients[c]; !ok {
		return
	}

	select {
	case c.send <- frame:
	default:
	}
}
