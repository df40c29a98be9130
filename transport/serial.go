package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"github.com/TapTrack/tappy-stream/logging"
	"github.com/TapTrack/tappy-stream/protocol"
	"github.com/TapTrack/tappy-stream/tappy"
)

var errClosed = errors.New("transport closed")

// openSerialPort is swapped out in tests.
var openSerialPort = func(path string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(path, mode)
}

// ListSerialPorts returns the serial ports present on this machine.
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}
	return ports, nil
}

// Serial talks to a Tappy plugged in over USB serial, 8N1.
type Serial struct {
	path     string
	baudRate int

	mu     sync.Mutex
	port   io.ReadWriteCloser
	link   *link
	closed bool
}

// NewSerial creates a serial transport for the device at path.
// A non-positive baud rate selects DefaultBaudRate.
func NewSerial(path string, baudRate int) *Serial {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	s := &Serial{path: path, baudRate: baudRate}
	s.link = newLink(logging.WithComponent("serial").With().Str("path", path).Logger())
	return s
}

// Connect opens the port and starts reading from it.
func (s *Serial) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return tappy.NewError(tappy.KindConnectionError, "open", errClosed)
	}
	if s.port != nil {
		return nil
	}

	port, err := openSerialPort(s.path, &serial.Mode{
		BaudRate: s.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return tappy.NewError(tappy.KindConnectionError, "open", err)
	}
	s.port = port

	buf := make([]byte, 256)
	go s.link.run(func() ([]byte, error) {
		n, err := port.Read(buf)
		return buf[:n], err
	})
	s.link.logger.Debug().Int("baud", s.baudRate).Msg("serial port open")
	return nil
}

// Send frames msg and writes it to the port.
func (s *Serial) Send(ctx context.Context, msg protocol.Message) error {
	frame, err := protocol.EncodeFrame(msg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", msg, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil || s.closed {
		return tappy.NewError(tappy.KindNotConnected, "send", nil)
	}
	if _, err := s.port.Write(frame); err != nil {
		return tappy.NewError(tappy.KindConnectionError, "write", err)
	}
	return nil
}

// Events implements tappy.Transport.
func (s *Serial) Events() <-chan tappy.TransportEvent {
	return s.link.events
}

// Close closes the port and waits briefly for the reader to exit.
func (s *Serial) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	port := s.port
	s.mu.Unlock()

	if port == nil {
		return nil
	}
	s.link.shutdown()
	err := port.Close()
	s.link.wait()
	return err
}

func (s *Serial) String() string {
	return "serial:" + s.path
}
