package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/TapTrack/tappy-stream/tappy"
)

// Options tune the transports Open creates.
type Options struct {
	BaudRate         int
	DiscoveryTimeout time.Duration
}

// Open picks a transport for path:
//
//	ws://host/path, wss://host/path   WebSocket bridge
//	mdns:, mdns:<instance>            bridge found over mDNS
//	anything else                     serial device
func Open(path string, opts Options) (tappy.Transport, error) {
	switch {
	case path == "":
		return nil, errors.New("device path is empty")
	case strings.HasPrefix(path, prefixWS), strings.HasPrefix(path, prefixWSS):
		u, err := url.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("invalid bridge URL %q: %w", path, err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("invalid bridge URL %q: missing host", path)
		}
		return NewWebSocket(path), nil
	case strings.HasPrefix(path, prefixMDNS):
		instance := strings.TrimPrefix(strings.TrimPrefix(path, prefixMDNS), "//")
		return NewDiscoveredWebSocket(instance, opts.DiscoveryTimeout), nil
	default:
		return NewSerial(path, opts.BaudRate), nil
	}
}
