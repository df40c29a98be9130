// Package tappy drives a tag streaming session against a Tappy reader:
// connect, send the stream command, classify everything the reader sends
// back, and disconnect with an exit code that says how it went.
package tappy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TapTrack/tappy-stream/logging"
	"github.com/TapTrack/tappy-stream/protocol"
	"github.com/TapTrack/tappy-stream/protocol/basicnfc"
)

// Process exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// MaxTimeoutSeconds is the longest scan period a stream command can carry.
const MaxTimeoutSeconds = 255

// ErrSessionUsed is reported when Run is called a second time.
var ErrSessionUsed = errors.New("session already ran")

// Command is the stream tags request a session sends once connected.
// TimeoutSeconds of zero streams until something else ends the session.
type Command struct {
	TimeoutSeconds int
	PollingMode    basicnfc.PollingMode
}

// NewCommand creates a general-mode stream command.
func NewCommand(timeoutSeconds int) Command {
	return Command{TimeoutSeconds: timeoutSeconds, PollingMode: basicnfc.PollingModeGeneral}
}

// Message encodes the command for the wire.
func (c Command) Message() (protocol.Message, error) {
	if c.TimeoutSeconds < 0 || c.TimeoutSeconds > MaxTimeoutSeconds {
		return protocol.Message{}, fmt.Errorf("timeout %d out of range 0..%d", c.TimeoutSeconds, MaxTimeoutSeconds)
	}
	mode := c.PollingMode
	if mode == 0 {
		mode = basicnfc.PollingModeGeneral
	}
	return basicnfc.NewStreamTags(uint8(c.TimeoutSeconds), mode).Message(), nil
}

// Observer is notified of session outcomes, e.g. to count them.
type Observer interface {
	TagScanned(described bool)
	TransportError(kind ErrorKind, fatal bool)
	UnexpectedResponse()
	SessionEnded(code int)
}

type nopObserver struct{}

func (nopObserver) TagScanned(bool)                {}
func (nopObserver) TransportError(ErrorKind, bool) {}
func (nopObserver) UnexpectedResponse()            {}
func (nopObserver) SessionEnded(int)               {}

// SessionConfig holds the collaborators of a Session. Only Transport is
// required.
type SessionConfig struct {
	Transport Transport
	Resolver  *Resolver       // defaults to DefaultResolver()
	TagTypes  TagTypeResolver // defaults to DefaultTagTypes
	Observer  Observer
	Stdout    io.Writer // defaults to os.Stdout
	Stderr    io.Writer // defaults to os.Stderr
}

// Session runs one stream command over one connection.
type Session struct {
	id       string
	conn     *Conn
	resolver *Resolver
	tagTypes TagTypeResolver
	observer Observer
	stdout   io.Writer
	stderr   io.Writer
	logger   zerolog.Logger

	state    atomic.Int32
	started  atomic.Bool
	exitCode int
}

// NewSession creates a session in the Disconnected state.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		id:       uuid.NewString(),
		conn:     NewConn(cfg.Transport),
		resolver: cfg.Resolver,
		tagTypes: cfg.TagTypes,
		observer: cfg.Observer,
		stdout:   cfg.Stdout,
		stderr:   cfg.Stderr,
	}
	if s.resolver == nil {
		s.resolver = DefaultResolver()
	}
	if s.tagTypes == nil {
		s.tagTypes = DefaultTagTypes
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}
	s.logger = logging.WithComponent("session").With().
		Str("session", s.id).
		Str("transport", cfg.Transport.String()).
		Logger()
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state. Safe for concurrent use.
func (s *Session) State() State {
	return State(s.state.Load())
}

// ExitCode returns the recorded exit code; meaningful once Terminated.
func (s *Session) ExitCode() int {
	return s.exitCode
}

// Run connects, streams until a terminal event and disconnects. It returns
// the process exit code. Cancelling ctx ends the session as a failure after
// a graceful disconnect.
func (s *Session) Run(ctx context.Context, cmd Command) int {
	if !s.started.CompareAndSwap(false, true) {
		s.logger.Error().Err(ErrSessionUsed).Msg("run refused")
		return ExitFailure
	}

	msg, err := cmd.Message()
	if err != nil {
		s.logger.Error().Err(err).Msg("invalid command")
		fmt.Fprintf(s.stderr, "Invalid command: %v\n", err)
		return ExitFailure
	}

	s.transition(StateConnecting)
	connecting := s.conn.Connect(ctx)
	<-connecting.Done()
	if err := connecting.Err(); err != nil {
		c := Classify(KindOf(err))
		if !c.Fatal {
			c = Classify(KindConnectionError)
		}
		s.logger.Error().Err(err).Msg("connect failed")
		s.observer.TransportError(c.Kind, true)
		fmt.Fprintln(s.stderr, c.Diagnostic())

		s.exitCode = ExitFailure
		s.transition(StateTerminated)
		s.observer.SessionEnded(s.exitCode)
		return s.exitCode
	}

	s.transition(StateConnected)
	fmt.Fprintln(s.stdout, "Tappy connected!")

	if err := s.conn.Send(ctx, msg); err != nil {
		c := Classify(KindOf(err))
		s.logger.Error().Err(err).Msg("sending stream command failed")
		s.observer.TransportError(c.Kind, true)
		fmt.Fprintln(s.stderr, c.Diagnostic())
		return s.terminate(ExitFailure)
	}
	s.transition(StateStreaming)
	s.logger.Info().
		Int("timeout", cmd.TimeoutSeconds).
		Stringer("polling_mode", cmd.PollingMode).
		Msg("streaming tags")

	events := s.conn.Events()
	for {
		select {
		case <-ctx.Done():
			s.logger.Warn().Err(ctx.Err()).Msg("interrupted")
			fmt.Fprintln(s.stderr, "Interrupted")
			return s.terminate(ExitFailure)

		case ev, ok := <-events:
			if !ok {
				c := Classify(KindConnectionError)
				s.logger.Error().Msg("transport closed while streaming")
				s.observer.TransportError(c.Kind, c.Fatal)
				fmt.Fprintln(s.stderr, c.Diagnostic())
				return s.terminate(ExitFailure)
			}
			if code, done := s.handle(ev); done {
				return s.terminate(code)
			}
		}
	}
}

// handle processes one inbound event and reports whether it ended the session.
func (s *Session) handle(ev TransportEvent) (int, bool) {
	if ev.Err != nil {
		c := Classify(KindOf(ev.Err))
		s.observer.TransportError(c.Kind, c.Fatal)
		fmt.Fprintln(s.stderr, c.Diagnostic())
		if !c.Fatal {
			s.logger.Warn().Err(ev.Err).Stringer("kind", c.Kind).Msg("recoverable transport error")
			return 0, false
		}
		s.logger.Error().Err(ev.Err).Stringer("kind", c.Kind).Msg("fatal transport error")
		return ExitFailure, true
	}

	switch e := s.resolver.Resolve(ev.Message).(type) {
	case TagFound:
		s.reportTag(e)
		return 0, false
	case ScanTimeout:
		s.logger.Info().Msg("scan timeout reached")
		fmt.Fprintln(s.stdout, "Timeout reached")
		return ExitSuccess, true
	case UnexpectedResponse:
		s.logger.Error().Str("reason", e.Reason).Stringer("message", ev.Message).Msg("unexpected response")
		s.observer.UnexpectedResponse()
		fmt.Fprintf(s.stderr, "Unexpected response: %s\n", e.Reason)
		return ExitFailure, true
	default:
		s.logger.Error().Msgf("unhandled event %T", e)
		return ExitFailure, true
	}
}

func (s *Session) reportTag(e TagFound) {
	uid := FormatTagCode(e.TagCode)
	tt, ok := s.tagTypes.ResolveTagType(e.TagType)
	if ok {
		fmt.Fprintf(s.stdout, "UID: %s, Tag Description: %s\n", uid, tt.Description)
	} else {
		fmt.Fprintf(s.stdout, "UID: %s\n", uid)
	}
	s.observer.TagScanned(ok)
	s.logger.Debug().Str("uid", uid).Int("tag_type", e.TagType).Bool("described", ok).Msg("tag found")
}

// terminate records code, disconnects and waits for the disconnect to finish.
func (s *Session) terminate(code int) int {
	s.exitCode = code
	s.transition(StateTerminating)

	if err := s.conn.Disconnect().Wait(context.Background()); err != nil {
		s.logger.Warn().Err(err).Msg("disconnect reported an error")
	}

	s.transition(StateTerminated)
	s.observer.SessionEnded(code)
	s.logger.Info().Int("exit_code", code).Msg("session terminated")
	return code
}

func (s *Session) transition(to State) {
	from := s.State()
	if !canTransition(from, to) {
		s.logger.Error().Stringer("from", from).Stringer("to", to).Msg("illegal state transition")
		return
	}
	s.state.Store(int32(to))
	s.logger.Debug().Stringer("from", from).Stringer("to", to).Msg("state changed")
}
