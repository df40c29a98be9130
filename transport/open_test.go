package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		path     string
		wantType any
		wantName string
	}{
		{path: "/dev/ttyACM0", wantType: &Serial{}, wantName: "serial:/dev/ttyACM0"},
		{path: "COM3", wantType: &Serial{}, wantName: "serial:COM3"},
		{path: "ws://192.168.1.20:8080/ws", wantType: &WebSocket{}, wantName: "ws://192.168.1.20:8080/ws"},
		{path: "wss://bridge.example.com/ws", wantType: &WebSocket{}, wantName: "wss://bridge.example.com/ws"},
		{path: "mdns:", wantType: &WebSocket{}, wantName: "mdns:"},
		{path: "mdns:kitchen", wantType: &WebSocket{}, wantName: "mdns:kitchen"},
		{path: "mdns://kitchen", wantType: &WebSocket{}, wantName: "mdns:kitchen"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tr, err := Open(tt.path, Options{})
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, tr)
			assert.Equal(t, tt.wantName, tr.String())
		})
	}
}

func TestOpen_Invalid(t *testing.T) {
	for _, path := range []string{"", "ws://", "wss:///ws"} {
		_, err := Open(path, Options{})
		assert.Error(t, err, path)
	}
}

func TestOpen_BaudRate(t *testing.T) {
	tr, err := Open("/dev/ttyUSB0", Options{BaudRate: 9600})
	require.NoError(t, err)
	assert.Equal(t, 9600, tr.(*Serial).baudRate)

	tr, err = Open("/dev/ttyUSB0", Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaudRate, tr.(*Serial).baudRate)
}
