package peer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

// Session is one ordered stream to the other instance. Send is safe for concurrent use; Receive is not.
type Session struct {
	logger  *slog.Logger
	conn    net.Conn
	decoder *Decoder

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func NewSession(logger *slog.Logger, conn net.Conn) *Session {
	return &Session{
		logger:  logger.With("component", "peer", "remote", conn.RemoteAddr().String()),
		conn:    conn,
		decoder: NewDecoder(conn),
	}
}

// Host waits for the single joining peer.
type Host struct {
	logger   *slog.Logger
	listener net.Listener
}

func Listen(ctx context.Context, logger *slog.Logger, addr string) (*Host, error) {
	var config net.ListenConfig

	listener, err := config.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &Host{logger: logger, listener: listener}, nil
}

func (that *Host) Addr() net.Addr {
	return that.listener.Addr()
}

// Accept takes exactly one connection and closes the listener.
func (that *Host) Accept(ctx context.Context) (*Session, error) {
	log := that.logger.With("method", "Accept", "addr", that.listener.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		_ = that.listener.Close()
	})
	defer stop()
	defer that.listener.Close()

	log.Info("waiting for peer")

	conn, err := that.listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("stopped waiting for peer: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to accept peer: %w", err)
	}

	log.Info("peer connected", "remote", conn.RemoteAddr().String())

	return NewSession(that.logger, conn), nil
}

func Dial(ctx context.Context, logger *slog.Logger, addr string, timeout time.Duration) (*Session, error) {
	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to peer %s: %w", addr, err)
	}

	logger.Info("connected to peer", "addr", addr)

	return NewSession(logger, conn), nil
}

func (that *Session) Send(msg entity.Message) error {
	frame, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.Kind, err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if _, err = that.conn.Write(frame); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrConnectionLost, err)
	}

	that.logger.Debug("sent", "frame", string(frame))

	return nil
}

// Receive blocks for the next message. A broken stream is ErrConnectionLost, a bad frame ErrProtocolDesync.
func (that *Session) Receive() (entity.Message, error) {
	msg, err := that.decoder.Decode()
	if errors.Is(err, ErrMalformedMessage) {
		return entity.Message{}, fmt.Errorf("%w: %w", apperror.ErrProtocolDesync, err)
	}
	if err != nil {
		return entity.Message{}, fmt.Errorf("%w: %w", apperror.ErrConnectionLost, err)
	}

	that.logger.Debug("received", "kind", msg.Kind)

	return msg, nil
}

// ReceiveLoop hands every message to handle until the stream ends, handle fails or ctx is done.
// Cancelling ctx closes the connection to unblock the pending read and returns nil.
func (that *Session) ReceiveLoop(ctx context.Context, handle func(context.Context, entity.Message) error) error {
	stop := context.AfterFunc(ctx, func() {
		_ = that.Close()
	})
	defer stop()

	for {
		msg, err := that.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err = handle(ctx, msg); err != nil {
			return fmt.Errorf("failed to handle %s: %w", msg.Kind, err)
		}
	}
}

func (that *Session) Close() error {
	var err error
	that.closeOnce.Do(func() {
		err = that.conn.Close()
	})
	return err
}
