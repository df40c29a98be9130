package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TapTrack/tappy-stream/buildinfo"
	"github.com/TapTrack/tappy-stream/logging"
	"github.com/TapTrack/tappy-stream/protocol"
	"github.com/TapTrack/tappy-stream/tappy"
)

// WebSocket reaches a Tappy through a network bridge. Every binary message
// carries raw framed bytes in either direction; text messages are ignored.
type WebSocket struct {
	name    string
	resolve func(ctx context.Context) (string, error)
	dialer  *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	link   *link
	closed bool
}

// NewWebSocket creates a transport dialing a known bridge URL.
func NewWebSocket(url string) *WebSocket {
	return newWebSocket(url, func(context.Context) (string, error) { return url, nil })
}

// NewDiscoveredWebSocket creates a transport that looks the bridge up over
// mDNS when it connects. An empty instance accepts the first bridge found.
func NewDiscoveredWebSocket(instance string, timeout time.Duration) *WebSocket {
	name := prefixMDNS + instance
	return newWebSocket(name, func(ctx context.Context) (string, error) {
		return Discover(ctx, instance, timeout)
	})
}

func newWebSocket(name string, resolve func(context.Context) (string, error)) *WebSocket {
	return &WebSocket{
		name:    name,
		resolve: resolve,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		link: newLink(logging.WithComponent("websocket").With().Str("endpoint", name).Logger()),
	}
}

// Connect resolves the bridge address and dials it.
func (w *WebSocket) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return tappy.NewError(tappy.KindConnectionError, "dial", errClosed)
	}
	if w.conn != nil {
		return nil
	}

	url, err := w.resolve(ctx)
	if err != nil {
		return tappy.NewError(tappy.KindConnectionError, "discover", err)
	}

	header := http.Header{}
	header.Set("User-Agent", buildinfo.UserAgent())
	conn, resp, err := w.dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %s)", err, resp.Status)
		}
		return tappy.NewError(tappy.KindConnectionError, "dial", err)
	}
	w.conn = conn
	w.link.logger.Debug().Str("url", url).Msg("bridge connected")

	go w.link.run(func() ([]byte, error) {
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return nil, err
			}
			if kind == websocket.BinaryMessage {
				return data, nil
			}
			w.link.logger.Debug().Int("type", kind).Msg("ignoring non-binary message")
		}
	})
	return nil
}

// Send writes msg as one binary message.
func (w *WebSocket) Send(ctx context.Context, msg protocol.Message) error {
	frame, err := protocol.EncodeFrame(msg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", msg, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil || w.closed {
		return tappy.NewError(tappy.KindNotConnected, "send", nil)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return tappy.NewError(tappy.KindConnectionError, "write", err)
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return tappy.NewError(tappy.KindConnectionError, "write", err)
	}
	return nil
}

// Events implements tappy.Transport.
func (w *WebSocket) Events() <-chan tappy.TransportEvent {
	return w.link.events
}

// Close says goodbye to the bridge and drops the connection.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return nil
	}
	w.link.shutdown()
	// Best effort; the bridge may already be gone.
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := conn.Close()
	w.link.wait()
	return err
}

func (w *WebSocket) String() string {
	return w.name
}
