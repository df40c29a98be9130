package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/TapTrack/tappy-stream/logging"
)

// ErrNoBridge is returned when discovery finds no matching bridge.
var ErrNoBridge = errors.New("no tappy bridge found")

// Discover browses the local network for a Tappy bridge and returns its
// WebSocket URL. An empty instance accepts the first bridge that answers.
func Discover(ctx context.Context, instance string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}
	logger := logging.WithComponent("discovery")

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("creating mDNS resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, BridgeServiceType, BridgeDomain, entries); err != nil {
		return "", fmt.Errorf("browsing %s: %w", BridgeServiceType, err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", notFound(instance)
			}
			if instance != "" && entry.Instance != instance {
				logger.Debug().Str("instance", entry.Instance).Msg("skipping bridge")
				continue
			}
			u, err := bridgeURL(entry)
			if err != nil {
				logger.Debug().Err(err).Str("instance", entry.Instance).Msg("unusable bridge")
				continue
			}
			logger.Debug().Str("instance", entry.Instance).Str("url", u).Msg("bridge found")
			return u, nil
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", notFound(instance)
			}
			return "", ctx.Err()
		}
	}
}

func notFound(instance string) error {
	if instance == "" {
		return ErrNoBridge
	}
	return fmt.Errorf("%w: %q", ErrNoBridge, instance)
}

// bridgeURL builds the WebSocket URL advertised by entry. IPv4 addresses
// are preferred over IPv6, and both over the host name.
func bridgeURL(entry *zeroconf.ServiceEntry) (string, error) {
	var host string
	switch {
	case len(entry.AddrIPv4) > 0:
		host = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		host = entry.AddrIPv6[0].String()
	case entry.HostName != "":
		host = strings.TrimSuffix(entry.HostName, ".")
	default:
		return "", errors.New("bridge advertised no address")
	}
	if entry.Port <= 0 {
		return "", errors.New("bridge advertised no port")
	}

	scheme, path := "ws", BridgeDefaultPath
	for _, txt := range entry.Text {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case TXTPath:
			if value != "" {
				path = value
			}
		case TXTScheme:
			if value == "ws" || value == "wss" {
				scheme = value
			}
		}
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(entry.Port)),
		Path:   path,
	}
	return u.String(), nil
}
