package wavstream_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/speaker"
	"github.com/gen2brain/speaker/wavstream"
)

// writeWav encodes samples into a temporary WAV file and reopens it for reading.
func writeWav(t *testing.T, rate, bitDepth, channels, tag int, samples []int) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")

	out, err := os.Create(path)
	require.NoError(t, err)

	encoder := wav.NewEncoder(out, rate, bitDepth, channels, tag)
	err = encoder.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	})
	require.NoError(t, err)
	require.NoError(t, encoder.Close())
	require.NoError(t, out.Close())

	in, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })

	return in
}

func TestOpen16Bit(t *testing.T) {
	f := writeWav(t, 44100, 16, 2, 1, []int{1, -1, 256, 0})

	s, err := wavstream.Open(f)
	require.NoError(t, err)

	assert.Equal(t, speaker.Format{
		Channels:   2,
		BitDepth:   16,
		SampleRate: 44100,
		Signed:     true,
		Endianness: speaker.LittleEndian,
	}, s.Format())
	assert.Equal(t, uint16(1), s.FormatTag())
	assert.Equal(t, int64(8), s.DataLen())
	assert.Equal(t, int64(2), s.Frames())

	data, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x01, 0x00, 0x00}, data)
}

func TestOpen8BitIsUnsigned(t *testing.T) {
	f := writeWav(t, 8000, 8, 1, 1, []int{0x80, 0x81})

	s, err := wavstream.Open(f)
	require.NoError(t, err)

	enc, ok := speaker.GetFormat(s.Format())
	require.True(t, ok)
	assert.Equal(t, speaker.EncodingUnsigned8, enc)
	assert.Equal(t, 250*time.Microsecond, s.Duration())
}

func TestDeclaredFormat(t *testing.T) {
	f := writeWav(t, 22050, 24, 1, 1, []int{1, 2, 3})

	s, err := wavstream.Open(f)
	require.NoError(t, err)

	spec := s.DeclaredFormat()
	require.NotNil(t, spec.BitDepth)
	assert.Equal(t, 24, *spec.BitDepth)
	assert.Equal(t, 22050, *spec.SampleRate)
	assert.Equal(t, 1, *spec.Channels)
	assert.True(t, *spec.Signed)
	assert.False(t, *spec.Float)

	var declarer speaker.FormatDeclarer = s
	assert.NotNil(t, declarer)
}

func TestOpenInvalid(t *testing.T) {
	_, err := wavstream.Open(strings.NewReader("definitely not a riff file"))
	assert.ErrorIs(t, err, wavstream.ErrInvalidFile)
}
