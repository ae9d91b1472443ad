package application

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/config"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/repository"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/repository/storage"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/service"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/tictactoe"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/usecase"
	"github.com/rocketscienceinc/fifo-tictactoe/transport/peer"
	"github.com/rocketscienceinc/fifo-tictactoe/transport/rest"
	"github.com/rocketscienceinc/fifo-tictactoe/transport/websocket"
	"golang.org/x/sync/errgroup"
)

// RunApp - runs the application until SIGINT/SIGTERM or a fatal component error.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := conf.MatchSettings()
	if err != nil {
		return fmt.Errorf("failed to read match settings: %w", err)
	}

	scoreRepo, closeStore, err := initScoreRepository(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	scoreKey := service.LocalKey(conf.PlayerName, settings.Opponent, settings.Difficulty)

	var session *peer.Session
	if settings.Opponent == entity.OpponentRemote {
		var agreement peer.Agreement

		session, agreement, err = connectPeer(ctx, logger, conf)
		if err != nil {
			return err
		}
		defer session.Close()

		settings = applyAgreement(settings, agreement)
		scoreKey = service.PairingKey(conf.PlayerName, agreement.Remote.Name)
	}

	variant, err := tictactoe.NewVariant(settings.Variant)
	if err != nil {
		return fmt.Errorf("failed to create rules: %w", err)
	}

	hub := websocket.NewHub(logger)
	bot := service.NewBotService(variant, uint64(time.Now().UnixNano()))
	scores := service.NewScoreService(logger, scoreRepo)

	manager, err := newGameManager(logger, settings, bot, scores, scoreKey, hub, session)
	if err != nil {
		return err
	}

	router := rest.NewRouter(logger, manager, websocket.NewServer(logger, hub, manager))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return manager.Run(groupCtx)
	})

	group.Go(func() error {
		return rest.Start(groupCtx, logger, conf.HTTPPort, router)
	})

	if session != nil {
		group.Go(func() error {
			return runPeerLoop(groupCtx, logger, session, manager)
		})
	}

	log.Info("application started", "score_key", scoreKey, "http_port", conf.HTTPPort)

	if err = group.Wait(); err != nil {
		return fmt.Errorf("application stopped: %w", err)
	}

	log.Info("application stopped")

	return nil
}

// applyAgreement replaces the configured terms with the ones settled in the handshake.
func applyAgreement(settings entity.MatchSettings, agreement peer.Agreement) entity.MatchSettings {
	settings.BoardSize = agreement.Terms.Size
	settings.Variant = agreement.Terms.Variant
	settings.LocalMark = agreement.LocalMark
	return settings
}

// runPeerLoop feeds peer messages to the manager. A loop that ends before ctx does breaks the session.
func runPeerLoop(ctx context.Context, logger *slog.Logger, session *peer.Session, manager *usecase.GameManager) error {
	log := logger.With("component", "app", "method", "runPeerLoop")

	if err := session.ReceiveLoop(ctx, manager.HandleRemote); err != nil {
		log.Error("peer session ended", "error", err)
		_ = manager.PeerFailed(ctx, err)
	}

	return nil
}

func newGameManager(
	logger *slog.Logger,
	settings entity.MatchSettings,
	bot service.BotService,
	scores service.ScoreService,
	scoreKey string,
	listener usecase.Listener,
	session *peer.Session,
) (*usecase.GameManager, error) {
	var (
		manager *usecase.GameManager
		err     error
	)

	// a nil *peer.Session must not reach the manager as a non-nil interface
	if session != nil {
		manager, err = usecase.NewGameManager(logger, settings, bot, scores, scoreKey, listener, session)
	} else {
		manager, err = usecase.NewGameManager(logger, settings, bot, scores, scoreKey, listener, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return manager, nil
}

func initScoreRepository(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.ScoreRepository, func(), error) {
	log := logger.With("component", "app", "method", "initScoreRepository")

	if !conf.Redis.Enabled {
		log.Info("keeping scores in memory")
		return repository.NewMemoryScoreRepository(), func() {}, nil
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.Host, conf.Redis.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("keeping scores in redis", "host", conf.Redis.Host, "port", conf.Redis.Port)

	closeStore := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewScoreRepository(redisStorage.Connection), closeStore, nil
}

// connectPeer opens the session for the configured role and runs the handshake.
func connectPeer(ctx context.Context, logger *slog.Logger, conf *config.Config) (*peer.Session, peer.Agreement, error) {
	var (
		session *peer.Session
		err     error
	)

	if conf.Peer.IsHost() {
		var host *peer.Host
		if host, err = peer.Listen(ctx, logger, conf.Peer.Address); err != nil {
			return nil, peer.Agreement{}, err
		}
		session, err = host.Accept(ctx)
	} else {
		session, err = peer.Dial(ctx, logger, conf.Peer.Address, conf.Peer.DialTimeout)
	}
	if err != nil {
		return nil, peer.Agreement{}, err
	}

	handshakeCtx, cancel := ctx, context.CancelFunc(func() {})
	if conf.Peer.HandshakeTimeout > 0 {
		handshakeCtx, cancel = context.WithTimeout(ctx, conf.Peer.HandshakeTimeout)
	}
	defer cancel()

	var agreement peer.Agreement
	if conf.Peer.IsHost() {
		agreement, err = session.HostHandshake(handshakeCtx, conf.PlayerName, peer.Terms{
			Size:    conf.Match.BoardSize,
			Variant: entity.VariantKind(conf.Match.Variant),
		})
	} else {
		agreement, err = session.JoinHandshake(handshakeCtx, conf.PlayerName)
	}
	if err != nil {
		_ = session.Close()
		return nil, peer.Agreement{}, err
	}

	return session, agreement, nil
}
