package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/service"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/tictactoe"
)

var ErrPeerRequired = errors.New("remote play needs a peer session")

// Listener receives every state change. Calls arrive on the game loop goroutine and must not call back into GameManager.
type Listener interface {
	OnBoardChanged(snapshot entity.Snapshot)
	OnTurnChanged(turn entity.Mark)
	OnMatchEnded(result entity.MatchResult)
	OnSessionError(err error)
}

type botService interface {
	BestMove(board *entity.Board, player entity.Mark, difficulty entity.Difficulty) (entity.Move, service.SearchStats, error)
}

type scoreService interface {
	RecordResult(ctx context.Context, key string, result entity.MatchResult) (entity.Score, error)
	GetScore(ctx context.Context, key string) (entity.Score, error)
}

type peerSender interface {
	Send(msg entity.Message) error
}

type moveSource string

const (
	sourceLocal    moveSource = "local"
	sourceComputer moveSource = "computer"
	sourceRemote   moveSource = "remote"
)

const eventBuffer = 16

type event struct {
	name  string
	run   func(ctx context.Context) error
	reply chan error
}

// GameManager coordinates one match. Every field below events is owned by the Run goroutine;
// public methods post closures to it and wait for the answer.
type GameManager struct {
	logger   *slog.Logger
	settings entity.MatchSettings
	variant  tictactoe.Variant
	bot      botService
	scores   scoreService
	scoreKey string
	listener Listener
	peer     peerSender

	events         chan event
	remoteHandlers map[entity.MessageKind]func(ctx context.Context, msg entity.Message) error

	board      *entity.Board
	matchID    string
	turn       entity.Mark
	result     entity.MatchResult
	score      entity.Score
	total      entity.Score
	selected   int
	generation uint64
	searching  bool
	locked     bool
	broken     error
}

// NewGameManager builds a manager for settings. peer is only used, and required, for remote play.
func NewGameManager(
	logger *slog.Logger,
	settings entity.MatchSettings,
	bot botService,
	scores scoreService,
	scoreKey string,
	listener Listener,
	peer peerSender,
) (*GameManager, error) {
	variant, err := tictactoe.NewVariant(settings.Variant)
	if err != nil {
		return nil, fmt.Errorf("failed to create game manager: %w", err)
	}

	if settings.Opponent == entity.OpponentRemote && peer == nil {
		return nil, ErrPeerRequired
	}

	that := &GameManager{
		logger:   logger.With("component", "game_manager"),
		settings: settings,
		variant:  variant,
		bot:      bot,
		scores:   scores,
		scoreKey: scoreKey,
		listener: listener,
		peer:     peer,
		events:   make(chan event, eventBuffer),
	}

	that.remoteHandlers = map[entity.MessageKind]func(ctx context.Context, msg entity.Message) error{
		entity.MessageMove:    that.onRemoteMove,
		entity.MessageWin:     that.onRemoteWin,
		entity.MessageRestart: that.onRemoteRestart,
		entity.MessageName:    that.onRemoteName,
		entity.MessageSize:    that.onRemoteTerms,
		entity.MessageRules:   that.onRemoteTerms,
	}

	if err = that.resetBoard(); err != nil {
		return nil, fmt.Errorf("failed to create game manager: %w", err)
	}

	return that, nil
}

// Run owns the match state until ctx is done.
func (that *GameManager) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	that.loadTotal(ctx)

	log.Info("match started", "match_id", that.matchID,
		"size", that.settings.BoardSize, "variant", that.settings.Variant,
		"opponent", that.settings.Opponent, "local_mark", that.settings.LocalMark.String())

	that.publish()
	that.maybeStartSearch(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("game loop stopped")
			return nil
		case ev := <-that.events:
			err := ev.run(ctx)
			if ev.reply != nil {
				ev.reply <- err
				continue
			}
			if err != nil {
				log.Error("event failed", "event", ev.name, "error", err)
			}
		}
	}
}

// SubmitLocalMove plays move for the local side.
func (that *GameManager) SubmitLocalMove(ctx context.Context, move entity.Move) error {
	return that.do(ctx, "SubmitLocalMove", func(ctx context.Context) error {
		player, err := that.localTurn()
		if err != nil {
			return err
		}
		return that.applyMove(ctx, sourceLocal, player, move)
	})
}

// OnCellActivated turns a click into a move. Relocations take two clicks: an own piece, then an empty cell.
// Clicking another own piece changes the selection.
func (that *GameManager) OnCellActivated(ctx context.Context, cell int) error {
	return that.do(ctx, "OnCellActivated", func(ctx context.Context) error {
		player, err := that.localTurn()
		if err != nil {
			return err
		}

		if !that.board.InBounds(cell) {
			return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
		}

		if that.variant.Kind() != entity.VariantMovement || that.board.Phase(player) == entity.PhasePlacement {
			return that.applyMove(ctx, sourceLocal, player, entity.Place(cell))
		}

		if that.board.Cells[cell] == player {
			that.selected = cell
			that.listener.OnBoardChanged(that.snapshot())
			return nil
		}

		if that.selected == entity.NoCell {
			return fmt.Errorf("%w: select one of your pieces first, cell %d", apperror.ErrNotYourPiece, cell)
		}

		return that.applyMove(ctx, sourceLocal, player, entity.Relocate(that.selected, cell))
	})
}

// RequestComputerMove starts a search if it is the computer's turn and none is running.
func (that *GameManager) RequestComputerMove(ctx context.Context) error {
	return that.do(ctx, "RequestComputerMove", func(ctx context.Context) error {
		if that.settings.Opponent != entity.OpponentComputer || that.turn == that.settings.LocalMark {
			return apperror.ErrNotYourTurn
		}
		if that.result.IsFinished() {
			return apperror.ErrGameFinished
		}
		if !that.searching {
			that.startSearch(ctx)
		}
		return nil
	})
}

// Restart begins a new match on a board of the same size. In remote play the peer is told to do the same.
func (that *GameManager) Restart(ctx context.Context) error {
	return that.do(ctx, "Restart", func(ctx context.Context) error {
		if that.broken != nil {
			return fmt.Errorf("%w: %w", apperror.ErrSessionCorrupted, that.broken)
		}

		if err := that.restart(ctx); err != nil {
			return err
		}

		if that.isRemote() {
			if err := that.peer.Send(entity.RestartMessage()); err != nil {
				return that.breakSession(err)
			}
		}

		return nil
	})
}

// HandleRemote applies a message from the peer. It is the handler of the peer receive loop.
func (that *GameManager) HandleRemote(ctx context.Context, msg entity.Message) error {
	return that.do(ctx, "HandleRemote", func(ctx context.Context) error {
		if that.broken != nil {
			return fmt.Errorf("%w: %w", apperror.ErrSessionCorrupted, that.broken)
		}

		handler, ok := that.remoteHandlers[msg.Kind]
		if !ok {
			return that.breakSession(fmt.Errorf("%w: unknown message %q", apperror.ErrProtocolDesync, msg.Kind))
		}

		if err := handler(ctx, msg); err != nil {
			if errors.Is(err, apperror.ErrProtocolDesync) {
				return that.breakSession(err)
			}
			return err
		}

		return nil
	})
}

// PeerFailed ends remote play after the session broke outside a message handler.
func (that *GameManager) PeerFailed(ctx context.Context, err error) error {
	return that.do(ctx, "PeerFailed", func(context.Context) error {
		if that.broken == nil {
			_ = that.breakSession(err)
		}
		return nil
	})
}

func (that *GameManager) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	var snapshot entity.Snapshot

	err := that.do(ctx, "Snapshot", func(context.Context) error {
		snapshot = that.snapshot()
		return nil
	})

	return snapshot, err
}

func (that *GameManager) do(ctx context.Context, name string, run func(ctx context.Context) error) error {
	reply := make(chan error, 1)

	select {
	case that.events <- event{name: name, run: run, reply: reply}:
	case <-ctx.Done():
		return fmt.Errorf("failed to %s: %w", name, ctx.Err())
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return fmt.Errorf("failed to %s: %w", name, ctx.Err())
	}
}

func (that *GameManager) post(ctx context.Context, name string, run func(ctx context.Context) error) {
	select {
	case that.events <- event{name: name, run: run}:
	case <-ctx.Done():
	}
}

func (that *GameManager) localTurn() (entity.Mark, error) {
	if that.broken != nil {
		return entity.Empty, fmt.Errorf("%w: %w", apperror.ErrSessionCorrupted, that.broken)
	}

	if that.result.IsFinished() {
		return entity.Empty, apperror.ErrGameFinished
	}

	switch that.settings.Opponent {
	case entity.OpponentHuman:
		return that.turn, nil
	case entity.OpponentRemote:
		if that.locked {
			return entity.Empty, apperror.ErrWaitingForPeer
		}
	}

	if that.turn != that.settings.LocalMark {
		return entity.Empty, apperror.ErrNotYourTurn
	}

	return that.turn, nil
}

// applyMove is the only place the board changes during a match.
func (that *GameManager) applyMove(ctx context.Context, source moveSource, player entity.Mark, move entity.Move) error {
	log := that.logger.With("method", "applyMove", "source", source, "player", player.String(), "move", move.String())

	result, err := tictactoe.MakeTurn(that.board, that.variant, player, move)
	if err != nil {
		return fmt.Errorf("failed to apply %s move: %w", source, err)
	}

	that.result = result
	that.turn = player.Opponent()
	that.selected = entity.NoCell

	log.Debug("move applied", "result", result.String())

	var sendErr error
	switch {
	case source == sourceRemote:
		that.locked = false
	case that.isRemote():
		sendErr = that.peer.Send(entity.MoveMessage(move))
		if sendErr == nil && result.IsFinished() && !result.IsDraw() {
			sendErr = that.peer.Send(entity.WinMessage(result.Winner))
		}
		that.locked = true
	}

	if result.IsFinished() {
		that.score.Add(result)
		that.recordResult(ctx)
	}

	that.publish()

	if result.IsFinished() {
		that.listener.OnMatchEnded(result)
	} else {
		that.maybeStartSearch(ctx)
	}

	if sendErr != nil {
		return that.breakSession(sendErr)
	}

	return nil
}

// loadTotal reads the stored tally once per run. A store failure leaves the total counting this session only.
func (that *GameManager) loadTotal(ctx context.Context) {
	log := that.logger.With("method", "loadTotal", "key", that.scoreKey)

	if that.scores == nil {
		return
	}

	total, err := that.scores.GetScore(ctx, that.scoreKey)
	if err != nil {
		log.Error("failed to load stored score", "error", err)
		return
	}

	that.total = total
}

// recordResult must run before publishing the end of a match so the snapshot carries the stored total.
func (that *GameManager) recordResult(ctx context.Context) {
	log := that.logger.With("method", "recordResult", "match_id", that.matchID, "result", that.result.String())

	that.total.Add(that.result)

	if that.scores == nil {
		return
	}

	total, err := that.scores.RecordResult(ctx, that.scoreKey, that.result)
	if err != nil {
		log.Error("failed to record result", "error", err)
		return
	}

	that.total = total
}

func (that *GameManager) maybeStartSearch(ctx context.Context) {
	if that.settings.Opponent != entity.OpponentComputer ||
		that.turn == that.settings.LocalMark ||
		that.result.IsFinished() ||
		that.searching {
		return
	}

	that.startSearch(ctx)
}

// startSearch runs the bot on a clone. The result comes back through the event channel tagged with the generation it started in.
func (that *GameManager) startSearch(ctx context.Context) {
	that.searching = true

	generation := that.generation
	board := that.board.Clone()
	player := that.turn
	difficulty := that.settings.Difficulty
	delay := that.settings.BotDelay

	go func() {
		started := time.Now()
		move, stats, err := that.search(board, player, difficulty)

		if wait := delay - time.Since(started); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-ctx.Done():
				return
			}
		}

		that.post(ctx, "computerMove", func(ctx context.Context) error {
			return that.onSearchResult(ctx, generation, player, move, stats, err)
		})
	}()
}

func (that *GameManager) search(board *entity.Board, player entity.Mark, difficulty entity.Difficulty) (move entity.Move, stats service.SearchStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search panicked: %v", r)
		}
	}()

	return that.bot.BestMove(board, player, difficulty)
}

func (that *GameManager) onSearchResult(ctx context.Context, generation uint64, player entity.Mark, move entity.Move, stats service.SearchStats, err error) error {
	log := that.logger.With("method", "onSearchResult", "generation", generation)

	if generation != that.generation {
		log.Info("discarding computer move from a previous match", "current", that.generation)
		return nil
	}

	that.searching = false

	if err == nil {
		log.Info("computer moved", "move", move.String(), "nodes", stats.Nodes, "depth", stats.Depth, "score", stats.Score)
		err = that.applyMove(ctx, sourceComputer, player, move)
	}

	if err != nil {
		err = fmt.Errorf("%w: %w", apperror.ErrSearchFailed, err)
		that.listener.OnSessionError(err)
		return err
	}

	return nil
}

func (that *GameManager) onRemoteMove(ctx context.Context, msg entity.Message) error {
	if that.result.IsFinished() {
		return fmt.Errorf("%w: move %s after the match ended", apperror.ErrProtocolDesync, msg.Move)
	}

	if !that.locked {
		return fmt.Errorf("%w: move %s out of turn", apperror.ErrProtocolDesync, msg.Move)
	}

	remote := that.settings.LocalMark.Opponent()
	if err := tictactoe.ValidateMove(that.board, that.variant, remote, msg.Move); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrProtocolDesync, err)
	}

	return that.applyMove(ctx, sourceRemote, remote, msg.Move)
}

func (that *GameManager) onRemoteWin(_ context.Context, msg entity.Message) error {
	if !that.result.IsFinished() || that.result.Winner != msg.Winner {
		return fmt.Errorf("%w: peer reports winner %s, local result is %s", apperror.ErrProtocolDesync, msg.Winner, that.result)
	}

	return nil
}

func (that *GameManager) onRemoteRestart(ctx context.Context, _ entity.Message) error {
	return that.restart(ctx)
}

func (that *GameManager) onRemoteName(_ context.Context, msg entity.Message) error {
	that.logger.Info("peer renamed", "name", msg.Name)
	return nil
}

// onRemoteTerms accepts a repeated announcement of the agreed terms and nothing else.
func (that *GameManager) onRemoteTerms(_ context.Context, msg entity.Message) error {
	switch {
	case msg.Kind == entity.MessageSize && msg.Size != that.board.Size:
		return fmt.Errorf("%w: peer switched to size %d", apperror.ErrProtocolDesync, msg.Size)
	case msg.Kind == entity.MessageRules && msg.Variant != that.variant.Kind():
		return fmt.Errorf("%w: peer switched to rules %s", apperror.ErrProtocolDesync, msg.Variant)
	default:
		return nil
	}
}

func (that *GameManager) restart(ctx context.Context) error {
	if err := that.resetBoard(); err != nil {
		return err
	}

	that.logger.Info("match restarted", "match_id", that.matchID, "generation", that.generation)

	that.publish()
	that.maybeStartSearch(ctx)

	return nil
}

// resetBoard starts a fresh match. Any search still running belongs to the old generation.
func (that *GameManager) resetBoard() error {
	board, err := entity.NewBoard(that.settings.BoardSize)
	if err != nil {
		return fmt.Errorf("failed to reset board: %w", err)
	}

	that.board = board
	that.matchID = uuid.NewString()
	that.turn = entity.PlayerX
	that.result = entity.Ongoing()
	that.selected = entity.NoCell
	that.generation++
	that.searching = false
	that.locked = that.isRemote() && that.settings.LocalMark != entity.PlayerX

	return nil
}

// breakSession stops remote play for good and tells the listener once.
func (that *GameManager) breakSession(err error) error {
	if that.broken == nil {
		that.broken = err
		that.logger.Error("peer session broken", "error", err)
		that.listener.OnSessionError(err)
	}
	return err
}

func (that *GameManager) isRemote() bool {
	return that.settings.Opponent == entity.OpponentRemote
}

func (that *GameManager) snapshot() entity.Snapshot {
	snapshot := entity.NewSnapshot(that.board, that.turn, that.result, that.score)
	snapshot.MatchID = that.matchID
	snapshot.Total = that.total
	snapshot.Selected = that.selected
	return snapshot
}

func (that *GameManager) publish() {
	that.listener.OnBoardChanged(that.snapshot())
	that.listener.OnTurnChanged(that.turn)
}
