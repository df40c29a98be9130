package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TapTrack/tappy-stream/protocol"
)

func TestResolver_ResolveResponse(t *testing.T) {
	r := NewResolver()
	msg := func(code byte, payload ...byte) protocol.Message {
		return protocol.Message{Family: protocol.FamilySystem, Code: code, Payload: payload}
	}

	got, err := r.ResolveResponse(msg(CodePing))
	require.NoError(t, err)
	assert.IsType(t, &Ping{}, got)

	got, err = r.ResolveResponse(msg(CodeFirmwareVersion, 4, 2))
	require.NoError(t, err)
	assert.Equal(t, "firmware 4.2", got.(*Version).String())

	got, err = r.ResolveResponse(msg(CodeCrcMismatch))
	require.NoError(t, err)
	assert.EqualError(t, got.(*Rejection), "CRC mismatch")

	_, err = r.ResolveResponse(msg(CodeHardwareVersion, 1))
	assert.Error(t, err)

	got, err = r.ResolveResponse(msg(0x55))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolver_CheckFamily(t *testing.T) {
	r := NewResolver()
	assert.True(t, r.CheckFamily(protocol.Message{Family: protocol.FamilySystem}))
	assert.False(t, r.CheckFamily(protocol.Message{Family: protocol.FamilyBasicNFC}))
}

func TestApplicationError_Error(t *testing.T) {
	err := &ApplicationError{ErrorCode: 0x05, InternalErrorCode: 0x01, ReaderStatus: 0x02}
	assert.Equal(t, "system application error 0x05 (internal 0x01, reader status 0x02)", err.Error())

	err.Message = "busy"
	assert.Equal(t, "system application error 0x05 (internal 0x01, reader status 0x02): busy", err.Error())
}
