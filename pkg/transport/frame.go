package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrFrameTooLarge is returned when a payload cannot fit in a single
// padded frame.
var ErrFrameTooLarge = errors.New("transport: payload exceeds max frame size")

// ErrShortFrame is returned when a byte slice is too small to contain
// a valid frame header.
var ErrShortFrame = errors.New("transport: frame shorter than header")

// EncodeFrame lays out a frame per the wire protocol: a 4-byte
// big-endian payload_length_plus_one (counting the type byte and the
// payload), a 1-byte packet type, the payload, then padding out to
// BufferSize.
func EncodeFrame(packetType uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(payload), MaxPayload)
	}

	buf := make([]byte, BufferSize)
	lengthPlusOne := uint32(len(payload) + 1)
	binary.BigEndian.PutUint32(buf[0:4], lengthPlusOne)
	buf[4] = packetType
	copy(buf[5:], payload)
	return buf, nil
}

// DecodeFrame reverses EncodeFrame, trimming the payload back to its
// original length using the embedded length prefix.
func DecodeFrame(buf []byte) (packetType uint8, payload []byte, err error) {
	if len(buf) < HeaderSize {
		return 0, nil, ErrShortFrame
	}
	lengthPlusOne := binary.BigEndian.Uint32(buf[0:4])
	if lengthPlusOne == 0 {
		return 0, nil, fmt.Errorf("%w: zero length prefix", ErrShortFrame)
	}
	payloadLen := int(lengthPlusOne) - 1
	if HeaderSize+payloadLen > len(buf) {
		return 0, nil, fmt.Errorf("%w: declared length %d exceeds buffer", ErrShortFrame, payloadLen)
	}
	packetType = buf[4]
	payload = make([]byte, payloadLen)
	copy(payload, buf[5:5+payloadLen])
	return packetType, payload, nil
}
