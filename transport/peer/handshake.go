package peer

import (
	"context"
	"fmt"
	"time"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"golang.org/x/sync/errgroup"
)

// Terms are decided by the host and adopted verbatim by the joiner.
type Terms struct {
	Size    int
	Variant entity.VariantKind
}

// Agreement is what a finished handshake settled.
type Agreement struct {
	Remote    entity.Player
	Terms     Terms
	LocalMark entity.Mark
}

// HostHandshake announces name and terms and waits for the joiner's name. The host plays X.
func (that *Session) HostHandshake(ctx context.Context, name string, terms Terms) (Agreement, error) {
	agreement := Agreement{
		Remote:    entity.Player{Mark: entity.PlayerO},
		Terms:     terms,
		LocalMark: entity.PlayerX,
	}

	err := that.exchange(ctx,
		[]entity.Message{entity.NameMessage(name), entity.SizeMessage(terms.Size), entity.RulesMessage(terms.Variant)},
		func(msg entity.Message) (bool, error) {
			if msg.Kind != entity.MessageName {
				return false, fmt.Errorf("%w: unexpected %s during handshake", apperror.ErrProtocolDesync, msg.Kind)
			}
			agreement.Remote.Name = msg.Name
			return true, nil
		})
	if err != nil {
		return Agreement{}, fmt.Errorf("host handshake failed: %w", err)
	}

	that.logger.Info("handshake complete", "role", "host", "remote_name", agreement.Remote.Name)

	return agreement, nil
}

// JoinHandshake sends the local name and blocks until the host's name, size and rules have all arrived.
func (that *Session) JoinHandshake(ctx context.Context, name string) (Agreement, error) {
	agreement := Agreement{
		Remote:    entity.Player{Mark: entity.PlayerX},
		LocalMark: entity.PlayerO,
	}
	var gotName, gotSize, gotRules bool

	err := that.exchange(ctx,
		[]entity.Message{entity.NameMessage(name)},
		func(msg entity.Message) (bool, error) {
			switch msg.Kind {
			case entity.MessageName:
				agreement.Remote.Name, gotName = msg.Name, true
			case entity.MessageSize:
				if msg.Size < entity.MinBoardSize || msg.Size > entity.MaxBoardSize {
					return false, fmt.Errorf("%w: %w: %d", apperror.ErrProtocolDesync, entity.ErrInvalidBoardSize, msg.Size)
				}
				agreement.Terms.Size, gotSize = msg.Size, true
			case entity.MessageRules:
				agreement.Terms.Variant, gotRules = msg.Variant, true
			default:
				return false, fmt.Errorf("%w: unexpected %s during handshake", apperror.ErrProtocolDesync, msg.Kind)
			}
			return gotName && gotSize && gotRules, nil
		})
	if err != nil {
		return Agreement{}, fmt.Errorf("join handshake failed: %w", err)
	}

	that.logger.Info("handshake complete", "role", "join", "remote_name", agreement.Remote.Name,
		"size", agreement.Terms.Size, "variant", agreement.Terms.Variant)

	return agreement, nil
}

// exchange writes and reads concurrently so unbuffered transports cannot deadlock.
func (that *Session) exchange(ctx context.Context, outgoing []entity.Message, accept func(entity.Message) (bool, error)) error {
	stop := context.AfterFunc(ctx, func() {
		_ = that.conn.SetDeadline(time.Now())
	})
	defer func() {
		stop()
		_ = that.conn.SetDeadline(time.Time{})
	}()

	var group errgroup.Group

	// a failed side expires the deadline so the other one cannot stay blocked
	abort := func(err error) error {
		if err != nil {
			_ = that.conn.SetDeadline(time.Now())
		}
		return err
	}

	group.Go(func() error {
		for _, msg := range outgoing {
			if err := that.Send(msg); err != nil {
				return abort(err)
			}
		}
		return nil
	})

	group.Go(func() error {
		for {
			msg, err := that.Receive()
			if err != nil {
				return abort(err)
			}

			done, err := accept(msg)
			if err != nil || done {
				return abort(err)
			}
		}
	})

	if err := group.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return err
	}

	return nil
}
