package tappy

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/TapTrack/tappy-stream/logging"
	"github.com/TapTrack/tappy-stream/protocol"
)

// Conn owns the transport handle and serialises connect and disconnect.
// No other component touches the transport directly.
type Conn struct {
	transport Transport
	logger    zerolog.Logger

	mu            sync.Mutex
	connected     bool
	connecting    *Completion
	disconnecting *Completion
}

// NewConn wraps t.
func NewConn(t Transport) *Conn {
	return &Conn{
		transport: t,
		logger:    logging.WithComponent("conn").With().Str("transport", t.String()).Logger(),
	}
}

// Connect opens the transport. The returned Completion resolves once with
// the outcome; a failed connect leaves the Conn disconnected.
func (c *Conn) Connect(ctx context.Context) *Completion {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return completed(nil)
	}
	if c.connecting != nil {
		select {
		case <-c.connecting.Done():
		default:
			return c.connecting
		}
	}

	comp := newCompletion()
	c.connecting = comp
	c.disconnecting = nil

	go func() {
		err := c.transport.Connect(ctx)
		if err != nil && KindOf(err) == KindUnknown {
			err = NewError(KindConnectionError, "connect", err)
		}

		c.mu.Lock()
		c.connected = err == nil
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn().Err(err).Msg("connect failed")
		} else {
			c.logger.Debug().Msg("connected")
		}
		comp.complete(err)
	}()
	return comp
}

// Disconnect closes the transport. Its Completion resolves exactly once,
// and repeated calls return the same Completion. A connect still in flight
// is waited for and closed if it succeeds. When the Conn is neither
// connected nor connecting it resolves immediately without touching the
// transport.
func (c *Conn) Disconnect() *Completion {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disconnecting != nil {
		return c.disconnecting
	}
	pending := c.connecting
	if pending != nil {
		select {
		case <-pending.Done():
			pending = nil
		default:
		}
	}
	if !c.connected && pending == nil {
		return completed(nil)
	}

	comp := newCompletion()
	c.disconnecting = comp
	c.connected = false

	go func() {
		if pending != nil {
			<-pending.Done()
			c.mu.Lock()
			open := c.connected
			c.connected = false
			c.mu.Unlock()
			if !open {
				c.logger.Debug().Msg("connect in flight failed, nothing to close")
				comp.complete(nil)
				return
			}
		}

		err := c.transport.Close()
		if err != nil {
			c.logger.Warn().Err(err).Msg("close failed")
		} else {
			c.logger.Debug().Msg("disconnected")
		}
		comp.complete(err)
	}()
	return comp
}

// IsConnected reports whether the transport is open.
func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send writes msg to the reader.
func (c *Conn) Send(ctx context.Context, msg protocol.Message) error {
	if !c.IsConnected() {
		return NewError(KindNotConnected, "send", nil)
	}
	if err := c.transport.Send(ctx, msg); err != nil {
		if KindOf(err) == KindUnknown {
			return NewError(KindConnectionError, "send", err)
		}
		return err
	}
	return nil
}

// Events returns the transport's inbound events.
func (c *Conn) Events() <-chan TransportEvent {
	return c.transport.Events()
}
