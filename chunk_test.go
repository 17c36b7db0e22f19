package speaker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerForward(t *testing.T) {
	testCases := []struct {
		name   string
		size   int
		length int
		want   []int
	}{
		{"exact", 4096, 4096, []int{4096}},
		{"remainder", 4096, 5000, []int{4096, 904}},
		{"several", 4, 10, []int{4, 4, 2}},
		{"smaller", 4096, 100, []int{100}},
		{"empty", 4096, 0, nil},
		{"unsized", 0, 7, []int{7}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := make([]byte, tc.length)
			for i := range p {
				p[i] = byte(i)
			}

			var got []int
			var joined []byte
			n, err := chunker{size: tc.size}.forward(p, func(b []byte) (int, bool, error) {
				got = append(got, len(b))
				joined = append(joined, b...)

				return len(b), false, nil
			})
			require.NoError(t, err)
			assert.Equal(t, tc.length, n)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, p, append([]byte{}, joined...))
		})
	}
}

func TestChunkerMismatch(t *testing.T) {
	calls := 0
	n, err := chunker{size: 4}.forward(make([]byte, 12), func(b []byte) (int, bool, error) {
		calls++
		if calls == 2 {
			return 3, false, nil
		}

		return len(b), false, nil
	})

	var mismatch *WriteMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.ErrorIs(t, err, ErrBackendWriteMismatch)
	assert.Equal(t, 4, mismatch.Requested)
	assert.Equal(t, 3, mismatch.Written)
	assert.Equal(t, 7, n)
	assert.Equal(t, 2, calls, "no chunk may follow a mismatch")
}

func TestChunkerError(t *testing.T) {
	errDevice := errors.New("device gone")

	n, err := chunker{size: 4}.forward(make([]byte, 12), func(b []byte) (int, bool, error) {
		return -1, false, errDevice
	})
	assert.ErrorIs(t, err, errDevice)
	assert.Equal(t, 0, n)
}

func TestChunkerCanceled(t *testing.T) {
	calls := 0
	n, err := chunker{size: 4}.forward(make([]byte, 12), func(b []byte) (int, bool, error) {
		calls++

		return len(b), calls == 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, 2, calls)
}

func TestFormatStateResolve(t *testing.T) {
	var s formatState

	f, frames := s.resolve()
	assert.Equal(t, Format{Channels: 2, BitDepth: 16, SampleRate: 44100, Signed: true}, f)
	assert.Equal(t, DefaultSamplesPerFrame, frames)

	require.NoError(t, s.merge(FormatSpec{Float: Bool(true)}))
	f, _ = s.resolve()
	assert.Equal(t, 32, f.BitDepth)
	assert.True(t, f.Float)
	assert.True(t, f.Signed)

	require.NoError(t, s.merge(FormatSpec{Float: Bool(false), BitDepth: Int(8), SamplesPerFrame: Int(256)}))
	f, frames = s.resolve()
	assert.Equal(t, 8, f.BitDepth)
	assert.False(t, f.Signed, "8-bit defaults to unsigned")
	assert.Equal(t, 256, frames)

	require.NoError(t, s.merge(FormatSpec{Signed: Bool(true)}))
	f, _ = s.resolve()
	assert.True(t, f.Signed)
}

func TestFormatStateMergeEndianness(t *testing.T) {
	var s formatState

	other := BigEndian
	if HostEndianness() == BigEndian {
		other = LittleEndian
	}

	err := s.merge(FormatSpec{Channels: Int(1), Endianness: &other})
	assert.ErrorIs(t, err, ErrUnsupportedEndianness)

	f, _ := s.resolve()
	assert.Equal(t, 1, f.Channels, "other attributes still apply")

	host := HostEndianness()
	assert.NoError(t, s.merge(FormatSpec{Endianness: &host}))
}
