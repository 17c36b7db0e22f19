package speaker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gen2brain/speaker"
)

func TestGetFormat(t *testing.T) {
	testCases := []struct {
		name     string
		bitDepth int
		float    bool
		signed   bool
		want     speaker.Encoding
		ok       bool
	}{
		{"f32", 32, true, true, speaker.EncodingFloat32, true},
		{"f64", 64, true, true, speaker.EncodingFloat64, true},
		{"s8", 8, false, true, speaker.EncodingSigned8, true},
		{"u8", 8, false, false, speaker.EncodingUnsigned8, true},
		{"s16", 16, false, true, speaker.EncodingSigned16, true},
		{"u16", 16, false, false, speaker.EncodingUnsigned16, true},
		{"s24", 24, false, true, speaker.EncodingSigned24, true},
		{"u24", 24, false, false, speaker.EncodingUnsigned24, true},
		{"s32", 32, false, true, speaker.EncodingSigned32, true},
		{"u32", 32, false, false, speaker.EncodingUnsigned32, true},
		{"unsigned float", 32, true, false, 0, false},
		{"f16", 16, true, true, 0, false},
		{"s31", 31, false, true, 0, false},
		{"s64", 64, false, true, 0, false},
		{"zero", 0, false, true, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc, ok := speaker.GetFormat(speaker.Format{
				Channels:   2,
				SampleRate: 44100,
				BitDepth:   tc.bitDepth,
				Float:      tc.float,
				Signed:     tc.signed,
			})
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, enc)
		})
	}
}

func TestEncodingSupportedBy(t *testing.T) {
	mask := speaker.EncodingMask(speaker.EncodingSigned16, speaker.EncodingFloat32)

	assert.True(t, speaker.EncodingSigned16.SupportedBy(mask))
	assert.True(t, speaker.EncodingFloat32.SupportedBy(mask))
	assert.False(t, speaker.EncodingUnsigned8.SupportedBy(mask))
	assert.False(t, speaker.EncodingSigned32.SupportedBy(mask), "S32 shares bits with S16 but is not a subset")
	assert.False(t, speaker.Encoding(0).SupportedBy(mask))
}

func TestEncodingNames(t *testing.T) {
	for _, enc := range speaker.Encodings {
		assert.NotEmpty(t, speaker.EncodingNames[enc], "missing name for %#x", int(enc))
		assert.Positive(t, enc.BytesPerSample(), "missing size for %s", enc)
	}

	assert.Equal(t, "Encoding(0x7)", speaker.Encoding(7).String())
	assert.Equal(t, 3, speaker.EncodingSigned24.BytesPerSample())
}

func TestFormatBlockAlign(t *testing.T) {
	f := speaker.Format{Channels: 2, BitDepth: 16, SampleRate: 44100, Signed: true}
	assert.Equal(t, 4, f.BlockAlign())

	f = speaker.Format{Channels: 6, BitDepth: 24, SampleRate: 48000, Signed: true}
	assert.Equal(t, 18, f.BlockAlign())
}

func TestEndianness(t *testing.T) {
	host := speaker.HostEndianness()
	assert.Contains(t, []speaker.Endianness{speaker.LittleEndian, speaker.BigEndian}, host)

	assert.True(t, speaker.NativeEndian.IsNative())
	assert.True(t, host.IsNative())

	other := speaker.BigEndian
	if host == speaker.BigEndian {
		other = speaker.LittleEndian
	}
	assert.False(t, other.IsNative())
}

func TestFormatSpecOf(t *testing.T) {
	f := speaker.Format{Channels: 1, BitDepth: 8, SampleRate: 8000}
	spec := speaker.FormatSpecOf(f)

	assert.Equal(t, 1, *spec.Channels)
	assert.Equal(t, 8, *spec.BitDepth)
	assert.Equal(t, 8000, *spec.SampleRate)
	assert.False(t, *spec.Signed)
	assert.False(t, *spec.Float)
	assert.Nil(t, spec.SamplesPerFrame)
}
