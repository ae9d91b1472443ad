package application

import (
	"context"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/repository"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/service"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/tictactoe"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/usecase"
	"github.com/rocketscienceinc/fifo-tictactoe/transport/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

type recordingListener struct {
	mu    sync.Mutex
	ended []entity.MatchResult
	errs  []error
}

func (that *recordingListener) OnBoardChanged(entity.Snapshot) {}

func (that *recordingListener) OnTurnChanged(entity.Mark) {}

func (that *recordingListener) OnMatchEnded(result entity.MatchResult) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.ended = append(that.ended, result)
}

func (that *recordingListener) OnSessionError(err error) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.errs = append(that.errs, err)
}

func (that *recordingListener) endedResults() []entity.MatchResult {
	that.mu.Lock()
	defer that.mu.Unlock()
	return slices.Clone(that.ended)
}

func (that *recordingListener) sessionErrors() []error {
	that.mu.Lock()
	defer that.mu.Unlock()
	return slices.Clone(that.errs)
}

// replica is one side of a remote match wired the way RunApp wires it.
type replica struct {
	name      string
	settings  entity.MatchSettings
	agreement peer.Agreement
	session   *peer.Session
	manager   *usecase.GameManager
	listener  *recordingListener
}

func newReplica(t *testing.T, logger *slog.Logger, name string, configured entity.MatchSettings, session *peer.Session, agreement peer.Agreement) *replica {
	t.Helper()

	settings := applyAgreement(configured, agreement)

	variant, err := tictactoe.NewVariant(settings.Variant)
	require.NoError(t, err)

	listener := &recordingListener{}
	scores := service.NewScoreService(logger, repository.NewMemoryScoreRepository())
	manager, err := newGameManager(logger, settings, service.NewBotService(variant, 1), scores,
		service.PairingKey(name, agreement.Remote.Name), listener, session)
	require.NoError(t, err)

	return &replica{
		name:      name,
		settings:  settings,
		agreement: agreement,
		session:   session,
		manager:   manager,
		listener:  listener,
	}
}

// play waits for the replica to be unlocked, then places on cell.
func (that *replica) play(t *testing.T, ctx context.Context, cell int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return that.manager.SubmitLocalMove(ctx, entity.Place(cell)) == nil
	}, waitFor, tick, "%s could not play cell %d", that.name, cell)
}

// view drops the fields that are local to one process.
func (that *replica) view(t *testing.T, ctx context.Context) entity.Snapshot {
	t.Helper()

	snapshot, err := that.manager.Snapshot(ctx)
	require.NoError(t, err)

	snapshot.MatchID = ""
	return snapshot
}

func handshake(t *testing.T, ctx context.Context, host, join *peer.Session, terms peer.Terms) (peer.Agreement, peer.Agreement) {
	t.Helper()

	var group errgroup.Group
	var hosted, joined peer.Agreement

	group.Go(func() error {
		var err error
		hosted, err = host.HostHandshake(ctx, "alice", terms)
		return err
	})
	group.Go(func() error {
		var err error
		joined, err = join.JoinHandshake(ctx, "bob")
		return err
	})

	require.NoError(t, group.Wait())

	return hosted, joined
}

func TestRemoteMatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hostConn, joinConn := net.Pipe()
	hostSession := peer.NewSession(logger, hostConn)
	joinSession := peer.NewSession(logger, joinConn)
	t.Cleanup(func() {
		_ = hostSession.Close()
		_ = joinSession.Close()
	})

	// Given: both processes were configured for a 3x3 unconstrained game, the host offers FIFO on 4x4
	configured := entity.MatchSettings{
		BoardSize: 3,
		Variant:   entity.VariantUnconstrained,
		Opponent:  entity.OpponentRemote,
	}
	hosted, joined := handshake(t, ctx, hostSession, joinSession, peer.Terms{Size: 4, Variant: entity.VariantFIFO})

	host := newReplica(t, logger, "alice", configured, hostSession, hosted)
	join := newReplica(t, logger, "bob", configured, joinSession, joined)

	// Then: both replicas run the host's terms with opposite marks
	for _, side := range []*replica{host, join} {
		assert.Equal(t, 4, side.settings.BoardSize, side.name)
		assert.Equal(t, entity.VariantFIFO, side.settings.Variant, side.name)
	}
	assert.Equal(t, entity.PlayerX, host.settings.LocalMark)
	assert.Equal(t, entity.PlayerO, join.settings.LocalMark)

	runCtx, stop := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	for _, side := range []*replica{host, join} {
		group.Go(func() error {
			return side.manager.Run(groupCtx)
		})
		group.Go(func() error {
			return runPeerLoop(groupCtx, logger, side.session, side.manager)
		})
	}
	defer func() {
		stop()
		require.NoError(t, group.Wait())
	}()

	t.Run("Joiner waits for the host's first move", func(t *testing.T) {
		assert.ErrorIs(t, join.manager.SubmitLocalMove(ctx, entity.Place(0)), apperror.ErrWaitingForPeer)

		// When: the host sends MOVE,5
		host.play(t, ctx, 5)

		// Then: the joiner sees X on cell 5 of the 4x4 board and may answer
		require.Eventually(t, func() bool {
			return join.view(t, ctx).Cells[5] == entity.PlayerX.String()
		}, waitFor, tick)
		snapshot := join.view(t, ctx)
		assert.Equal(t, 4, snapshot.Size)
		assert.Equal(t, entity.PlayerO.String(), snapshot.Turn)
		assert.ErrorIs(t, host.manager.SubmitLocalMove(ctx, entity.Place(4)), apperror.ErrWaitingForPeer)
	})

	t.Run("Host wins the second row", func(t *testing.T) {
		//   O O O .
		//   X X X X
		join.play(t, ctx, 0)
		host.play(t, ctx, 4)
		join.play(t, ctx, 1)
		host.play(t, ctx, 6)
		join.play(t, ctx, 2)
		host.play(t, ctx, 7)

		// Then: both sides end the same match once and hold identical replicas
		win := []entity.MatchResult{entity.Win(entity.PlayerX)}
		require.Eventually(t, func() bool {
			return slices.Equal(join.listener.endedResults(), win)
		}, waitFor, tick)
		assert.Equal(t, win, host.listener.endedResults())

		hostView, joinView := host.view(t, ctx), join.view(t, ctx)
		assert.Equal(t, hostView, joinView)
		assert.Equal(t, entity.StatusFinished, joinView.Status)
		assert.Equal(t, entity.PlayerX.String(), joinView.Winner)
		assert.Equal(t, entity.Score{X: 1}, joinView.Score)
		assert.Equal(t, entity.Score{X: 1}, joinView.Total)

		assert.Empty(t, host.listener.sessionErrors())
		assert.Empty(t, join.listener.sessionErrors())
	})

	t.Run("Restart reaches the other replica", func(t *testing.T) {
		require.NoError(t, host.manager.Restart(ctx))

		require.Eventually(t, func() bool {
			return join.view(t, ctx).Status == entity.StatusOngoing
		}, waitFor, tick)
		assert.Equal(t, host.view(t, ctx), join.view(t, ctx))
		assert.ErrorIs(t, join.manager.SubmitLocalMove(ctx, entity.Place(0)), apperror.ErrWaitingForPeer)
	})

	t.Run("A dropped connection breaks the joiner's session", func(t *testing.T) {
		// When: the host goes away
		require.NoError(t, hostSession.Close())

		// Then: the joiner's receive loop reports it once and play stops
		require.Eventually(t, func() bool {
			return len(join.listener.sessionErrors()) == 1
		}, waitFor, tick)
		assert.ErrorIs(t, join.listener.sessionErrors()[0], apperror.ErrConnectionLost)
		assert.ErrorIs(t, join.manager.SubmitLocalMove(ctx, entity.Place(0)), apperror.ErrSessionCorrupted)
	})
}
