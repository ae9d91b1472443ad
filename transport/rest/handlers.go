package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

type stateProvider interface {
	Snapshot(ctx context.Context) (entity.Snapshot, error)
}

type handlers struct {
	logger *slog.Logger
	state  stateProvider
}

func newHandlers(logger *slog.Logger, state stateProvider) *handlers {
	return &handlers{
		logger: logger,
		state:  state,
	}
}

// State returns the current snapshot as JSON.
func (that *handlers) State(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "State")

	snapshot, err := that.state.Snapshot(r.Context())
	if err != nil {
		log.Error("failed to get snapshot", "error", err)
		http.Error(w, "game is not available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Error("failed to encode snapshot", "error", err)
	}
}
