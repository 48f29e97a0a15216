package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFrameRoundTripSmallGraph(t *testing.T) {
	g := New()
	g.AddTrace([]Key{k(1, 0), k(2, 0)})

	frame := g.EncodeFrame()
	require.Equal(t, byte(0), frame[0], "small graph should be sent raw, not compressed")

	g2, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.Equal(t, g.NodeCount(), g2.NodeCount())
}

func TestEncodeFrameCompressesLargeGraph(t *testing.T) {
	g := New()
	for i := uint32(0); i < 2000; i++ {
		g.AddTrace([]Key{k(1, 0), k(i+2, 0)})
	}
	require.Greater(t, len(g.Serialize()), compressionThreshold)

	frame := g.EncodeFrame()
	require.Equal(t, byte(1), frame[0], "large graph should be snappy-compressed")

	g2, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.Equal(t, g.NodeCount(), g2.NodeCount())
}

func TestDecodeFrameRejectsUnknownFlag(t *testing.T) {
	_, err := DecodeFrame([]byte{0xFF, 0x01, 0x02})
	require.ErrorIs(t, err, ErrMalformedGraph)
}

func TestDecodeFrameRejectsEmpty(t *testing.T) {
	_, err := DecodeFrame(nil)
	require.ErrorIs(t, err, ErrMalformedGraph)
}
