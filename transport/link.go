// Package transport provides the Tappy transports: a local serial port and
// a WebSocket bridge, optionally found through mDNS.
package transport

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/TapTrack/tappy-stream/protocol"
	"github.com/TapTrack/tappy-stream/tappy"
)

// link turns chunks read from a byte stream into transport events. It is
// shared by every transport; each owns one link per connection.
type link struct {
	events   chan tappy.TransportEvent
	stop     chan struct{}
	done     chan struct{}
	closing  atomic.Bool
	stopOnce sync.Once
	deframer protocol.Deframer
	logger   zerolog.Logger
}

func newLink(logger zerolog.Logger) *link {
	return &link{
		events: make(chan tappy.TransportEvent, eventBuffer),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// run calls read until it fails and closes the events channel on the way out.
func (l *link) run(read func() ([]byte, error)) {
	defer close(l.done)
	defer close(l.events)

	for {
		chunk, err := read()
		for _, r := range l.deframer.Feed(chunk) {
			ev := tappy.TransportEvent{Message: r.Message}
			if r.Err != nil {
				ev = tappy.TransportEvent{Err: tappy.NewError(tappy.KindOf(r.Err), "decode", r.Err)}
				l.logger.Debug().Err(r.Err).Msg("dropping undecodable frame")
			}
			if !l.emit(ev) {
				return
			}
		}
		if err != nil {
			if l.closing.Load() {
				return
			}
			l.logger.Warn().Err(err).Msg("link read failed")
			l.emit(tappy.TransportEvent{Err: tappy.NewError(tappy.KindConnectionError, "read", err)})
			return
		}
	}
}

func (l *link) emit(ev tappy.TransportEvent) bool {
	select {
	case l.events <- ev:
		return true
	case <-l.stop:
		return false
	}
}

// shutdown marks the link as closing and stops emitting. The caller closes
// the underlying stream, then calls wait.
func (l *link) shutdown() {
	l.closing.Store(true)
	l.stopOnce.Do(func() { close(l.stop) })
}

// wait blocks until the reader goroutine exits or closeWait passes.
func (l *link) wait() {
	select {
	case <-l.done:
	case <-time.After(closeWait):
		l.logger.Warn().Dur("waited", closeWait).Msg("reader did not exit after close")
	}
}
