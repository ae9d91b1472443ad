package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeManager struct {
	mu       sync.Mutex
	cells    []int
	restarts int
	cellErr  error
	snapshot entity.Snapshot
}

func (that *fakeManager) OnCellActivated(_ context.Context, cell int) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.cells = append(that.cells, cell)
	return that.cellErr
}

func (that *fakeManager) Restart(context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.restarts++
	return nil
}

func (that *fakeManager) Snapshot(context.Context) (entity.Snapshot, error) {
	return that.snapshot, nil
}

func (that *fakeManager) activated() []int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]int(nil), that.cells...)
}

func testSnapshot(t *testing.T) entity.Snapshot {
	t.Helper()

	board, err := entity.NewBoard(3)
	require.NoError(t, err)
	return entity.NewSnapshot(board, entity.PlayerX, entity.Ongoing(), entity.Score{})
}

func dial(t *testing.T, hub *Hub, manager gameManager) *websocket.Conn {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewServer(logger, hub, manager))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("New clients get the latest board", func(t *testing.T) {
		// Given: the game already published a board
		hub := NewHub(logger)
		hub.OnBoardChanged(testSnapshot(t))

		// When
		conn := dial(t, hub, &fakeManager{})

		// Then
		event := readEvent(t, conn)
		assert.Equal(t, eventBoard, event.Type)
		require.NotNil(t, event.Board)
		assert.Equal(t, 3, event.Board.Size)
	})

	t.Run("Cell clicks reach the game", func(t *testing.T) {
		hub := NewHub(logger)
		manager := &fakeManager{}
		conn := dial(t, hub, manager)

		require.NoError(t, conn.WriteJSON(map[string]any{"action": "cell", "cell": 4}))
		require.NoError(t, conn.WriteJSON(map[string]any{"action": "restart"}))

		require.Eventually(t, func() bool {
			return len(manager.activated()) == 1
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, []int{4}, manager.activated())
	})

	t.Run("Rejected actions come back as errors", func(t *testing.T) {
		hub := NewHub(logger)
		manager := &fakeManager{cellErr: apperror.ErrNotYourTurn}
		conn := dial(t, hub, manager)

		require.NoError(t, conn.WriteJSON(map[string]any{"action": "cell", "cell": 0}))
		event := readEvent(t, conn)
		assert.Equal(t, eventError, event.Type)
		assert.Equal(t, apperror.ErrNotYourTurn.Error(), event.Error)

		require.NoError(t, conn.WriteJSON(map[string]any{"action": "cell"}))
		assert.Equal(t, ErrMissingCell.Error(), readEvent(t, conn).Error)

		require.NoError(t, conn.WriteJSON(map[string]any{"action": "fly"}))
		assert.Contains(t, readEvent(t, conn).Error, "unknown action")

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		assert.Equal(t, "invalid JSON", readEvent(t, conn).Error)
	})

	t.Run("State on request", func(t *testing.T) {
		hub := NewHub(logger)
		conn := dial(t, hub, &fakeManager{snapshot: testSnapshot(t)})

		require.NoError(t, conn.WriteJSON(map[string]any{"action": "state"}))

		event := readEvent(t, conn)
		assert.Equal(t, eventBoard, event.Type)
		assert.Equal(t, "X", event.Board.Turn)
	})

	t.Run("Broadcasts game events", func(t *testing.T) {
		hub := NewHub(logger)
		conn := dial(t, hub, &fakeManager{})

		// the connection is registered once the server handler runs
		require.Eventually(t, func() bool {
			hub.mu.Lock()
			defer hub.mu.Unlock()
			return len(hub.clients) == 1
		}, 2*time.Second, 10*time.Millisecond)

		hub.OnTurnChanged(entity.PlayerO)
		hub.OnMatchEnded(entity.Win(entity.PlayerX))
		hub.OnMatchEnded(entity.Draw())
		hub.OnSessionError(apperror.ErrConnectionLost)

		assert.Equal(t, Event{Type: eventTurn, Turn: "O"}, readEvent(t, conn))
		assert.Equal(t, Event{Type: eventEnded, Status: "win X", Winner: "X"}, readEvent(t, conn))
		assert.Equal(t, Event{Type: eventEnded, Status: "draw"}, readEvent(t, conn))
		assert.Equal(t, Event{Type: eventError, Error: apperror.ErrConnectionLost.Error()}, readEvent(t, conn))
	})
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c := hub.register()

	for i := 0; i <= clientBuffer; i++ {
		hub.OnTurnChanged(entity.PlayerX)
	}

	hub.mu.Lock()
	_, still := hub.clients[c]
	hub.mu.Unlock()
	assert.False(t, still)

	hub.unregister(c)
}
