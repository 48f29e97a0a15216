package transport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("cross-partition testcase")
	frame, err := EncodeFrame(PacketTestcase, payload)
	require.NoError(t, err)
	assert.Len(t, frame, BufferSize)

	gotType, gotPayload, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, uint8(PacketTestcase), gotType)
	assert.True(t, bytes.Equal(payload, gotPayload))
}

func TestEncodeEmptyPayload(t *testing.T) {
	frame, err := EncodeFrame(PacketLocalGraph, nil)
	require.NoError(t, err)
	gotType, gotPayload, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, uint8(PacketLocalGraph), gotType)
	assert.Empty(t, gotPayload)
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	_, err := EncodeFrame(PacketGlobalGraph, make([]byte, MaxPayload+1))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, _, err := DecodeFrame([]byte{0, 0, 0})
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestDecodeRejectsOverclaimedLength(t *testing.T) {
	frame, err := EncodeFrame(PacketTestcase, []byte("hello"))
	require.NoError(t, err)
	truncated := frame[:HeaderSize+2] // declares 5 payload bytes, only 2 present
	_, _, err = DecodeFrame(truncated)
	assert.Error(t, err)
}
