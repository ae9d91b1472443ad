package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedState struct {
	snapshot entity.Snapshot
	err      error
}

func (that fixedState) Snapshot(context.Context) (entity.Snapshot, error) {
	return that.snapshot, that.err
}

func newTestRouter(state stateProvider) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ws := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	return NewRouter(logger, state, ws)
}

func TestRouter(t *testing.T) {
	board, err := entity.NewBoard(3)
	require.NoError(t, err)
	board.Put(4, entity.PlayerX)
	snapshot := entity.NewSnapshot(board, entity.PlayerO, entity.Ongoing(), entity.Score{Draws: 2})
	snapshot.MatchID = "7d3f8c1e-0b1a-4c55-9a51-3c2b0f6f1e42"
	snapshot.Total = entity.Score{X: 3, O: 1, Draws: 2}

	t.Run("Ping", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		newTestRouter(fixedState{}).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "pong", recorder.Body.String())
	})

	t.Run("State", func(t *testing.T) {
		// Given: a game with X in the centre
		recorder := httptest.NewRecorder()

		// When
		newTestRouter(fixedState{snapshot: snapshot}).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/state", nil))

		// Then: the snapshot comes back as JSON
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

		var decoded entity.Snapshot
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&decoded))
		assert.Equal(t, snapshot, decoded)
		assert.Equal(t, entity.Score{X: 3, O: 1, Draws: 2}, decoded.Total)
	})

	t.Run("State unavailable", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		newTestRouter(fixedState{err: errors.New("stopped")}).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/state", nil))

		assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	})

	t.Run("Websocket endpoint is mounted", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		newTestRouter(fixedState{}).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ws", nil))

		assert.Equal(t, http.StatusTeapot, recorder.Code)
	})

	t.Run("Unknown path", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		newTestRouter(fixedState{}).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/ping", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	})
}
