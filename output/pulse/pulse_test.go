package pulse

import (
	"encoding/binary"
	"testing"

	"github.com/jfreymuth/pulse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/speaker"
	"github.com/gen2brain/speaker/output/internal/pcmbuf"
)

func TestBackendFormats(t *testing.T) {
	b, err := speaker.Lookup("pulse")
	require.NoError(t, err)

	formats := b.Formats()
	assert.True(t, speaker.EncodingSigned16.SupportedBy(formats))
	assert.True(t, speaker.EncodingFloat32.SupportedBy(formats))
	assert.False(t, speaker.EncodingSigned24.SupportedBy(formats))
	assert.False(t, speaker.EncodingFloat64.SupportedBy(formats))
}

func TestOpenRejectsLayout(t *testing.T) {
	_, err := New().Open(speaker.DeviceConfig{Channels: 6, SampleRate: 48000, Encoding: speaker.EncodingSigned16})
	assert.Error(t, err)

	_, err = New().Open(speaker.DeviceConfig{Channels: 2, SampleRate: 48000, Encoding: speaker.EncodingSigned24})
	assert.Error(t, err)
}

func TestPull(t *testing.T) {
	buf := pcmbuf.New(64, 0)

	in := make([]byte, 8)
	for i := 0; i < 4; i++ {
		binary.NativeEndian.PutUint16(in[i*2:], uint16(1000*(i+1)))
	}

	_, err := buf.Write(in)
	require.NoError(t, err)

	out := make([]int16, 6)
	n, err := pull(buf, pcmbuf.Bytes(out), 2)
	require.NoError(t, err)
	assert.Equal(t, 6, n, "missing samples are padded with silence")
	assert.Equal(t, []int16{1000, 2000, 3000, 4000, 0, 0}, out)

	buf.CloseWrite()

	n, err = pull(buf, pcmbuf.Bytes(out), 2)
	assert.ErrorIs(t, err, pulse.EndOfData)
	assert.Equal(t, 0, n)
}
