package transport

import "time"

// mDNS service discovery constants for Tappy WebSocket bridges.
const (
	BridgeServiceType = "_tappy._tcp"
	BridgeDomain      = "local."
	BridgeDefaultPath = "/ws"
)

// TXT record keys published by bridges.
const (
	TXTPath   = "path"
	TXTScheme = "scheme"
)

// Endpoint prefixes understood by Open.
const (
	prefixWS   = "ws://"
	prefixWSS  = "wss://"
	prefixMDNS = "mdns:"
)

const (
	DefaultBaudRate         = 115200
	DefaultDiscoveryTimeout = 5 * time.Second

	// eventBuffer is how many decoded events may wait for the session.
	eventBuffer = 16
	// closeWait bounds how long Close waits for the reader goroutine.
	closeWait = 2 * time.Second
	// writeWait bounds a WebSocket write when the caller gave no deadline.
	writeWait = 5 * time.Second
)
