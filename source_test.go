package speaker_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/speaker"
)

func TestReadFromWaterMarks(t *testing.T) {
	b := newFakeBackend()
	s, _ := newSpeaker(t, b, speaker.Config{LowWaterMark: 100, HighWaterMark: 1000})

	n, err := s.ReadFrom(iotest.OneByteReader(bytes.NewReader(make([]byte, 1050))))
	require.NoError(t, err)
	assert.Equal(t, int64(1050), n)

	calls := b.Calls()
	require.Len(t, calls, 12)
	assert.Equal(t, "open", calls[0])
	for _, c := range calls[1:11] {
		assert.Equal(t, "write 100", c)
	}
	assert.Equal(t, "write 50", calls[11], "the remainder is written at EOF")
	assert.Equal(t, speaker.StateOpen, s.State(), "ReadFrom does not end the stream")
}

func TestReadFromHighWaterMark(t *testing.T) {
	b := newFakeBackend()
	s, _ := newSpeaker(t, b, speaker.Config{LowWaterMark: 5000, HighWaterMark: 300, SamplesPerFrame: 4096})

	n, err := s.ReadFrom(bytes.NewReader(make([]byte, 700)))
	require.NoError(t, err)
	assert.Equal(t, int64(700), n)
	assert.Equal(t, []string{"open", "write 300", "write 300", "write 100"}, b.Calls())
}

func TestReadFromError(t *testing.T) {
	errRead := errors.New("stream broken")

	b := newFakeBackend()
	s, _ := newSpeaker(t, b, speaker.Config{})

	r := io.MultiReader(bytes.NewReader(make([]byte, 8)), iotest.ErrReader(errRead))
	n, err := s.ReadFrom(r)
	assert.ErrorIs(t, err, errRead)
	assert.Equal(t, int64(8), n)
}

func TestReadFromDeclaredFormat(t *testing.T) {
	b := newFakeBackend()
	s, _ := newSpeaker(t, b, speaker.Config{Channels: 2, SampleRate: 48000})

	src := &declaredSource{
		data: make([]byte, 32),
		declared: speaker.FormatSpec{
			Channels: speaker.Int(1),
			BitDepth: speaker.Int(8),
		},
	}

	_, err := s.ReadFrom(src)
	require.NoError(t, err)

	require.Len(t, b.Opens(), 1)
	assert.Equal(t, speaker.DeviceConfig{
		Channels:   1,
		SampleRate: 48000,
		Encoding:   speaker.EncodingUnsigned8,
	}, b.Opens()[0])
}

func TestAttachAnnouncement(t *testing.T) {
	b := newFakeBackend()
	s, _ := newSpeaker(t, b, speaker.Config{})

	src := &declaredSource{announce: make(chan speaker.FormatSpec, 2)}
	src.announce <- speaker.FormatSpec{SampleRate: speaker.Int(22050)}
	src.announce <- speaker.FormatSpec{SampleRate: speaker.Int(8000)}

	s.Attach(src)

	assert.Eventually(t, func() bool {
		return s.Format().SampleRate == 22050
	}, time.Second, time.Millisecond)

	s.Detach()

	assert.Len(t, src.announce, 1, "only one announcement is consumed")
	assert.Equal(t, 22050, s.Format().SampleRate)
}

func TestDetach(t *testing.T) {
	b := newFakeBackend()
	s, events := newSpeaker(t, b, speaker.Config{})

	src := &declaredSource{announce: make(chan speaker.FormatSpec)}
	s.Attach(src)
	s.Detach()

	select {
	case src.announce <- speaker.FormatSpec{SampleRate: speaker.Int(8000)}:
		t.Fatal("announcement received after Detach")
	default:
	}

	assert.Equal(t, speaker.DefaultSampleRate, s.Format().SampleRate)
	assert.Empty(t, events.Types())

	// Attaching a plain reader is a no-op.
	s.Attach(bytes.NewReader(nil))
	s.Detach()
}

func TestAttachRejectedEndianness(t *testing.T) {
	other := speaker.BigEndian
	if speaker.HostEndianness() == speaker.BigEndian {
		other = speaker.LittleEndian
	}

	b := newFakeBackend()
	s, events := newSpeaker(t, b, speaker.Config{})

	s.Attach(&declaredSource{declared: speaker.FormatSpec{Endianness: &other}})
	s.Detach()

	errs := events.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], speaker.ErrUnsupportedEndianness)
}

func TestPlay(t *testing.T) {
	b := newFakeBackend()
	s, events := newSpeaker(t, b, speaker.Config{})

	err := s.Play(context.Background(), bytes.NewReader(make([]byte, 5000)))
	require.NoError(t, err)

	assert.Equal(t, []string{"open", "write 4096", "write 904", "flush", "close"}, b.Calls())
	assert.Equal(t, []speaker.EventType{speaker.EventOpen, speaker.EventFlush, speaker.EventClose}, events.Types())
	assert.Equal(t, speaker.StateClosed, s.State())
}

func TestPlayCanceled(t *testing.T) {
	b := newFakeBackend()
	s, events := newSpeaker(t, b, speaker.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Play(ctx, bytes.NewReader(make([]byte, 5000)))
	assert.ErrorIs(t, err, context.Canceled)

	assert.Eventually(t, func() bool {
		return s.State() == speaker.StateClosed
	}, time.Second, time.Millisecond)

	assert.NotContains(t, b.Calls(), "flush", "a canceled stream is not drained")
	assert.NotContains(t, events.Types(), speaker.EventFlush)
}

func TestReadFromFrameAligned(t *testing.T) {
	b := newFakeBackend()
	b.frame = 4
	s, _ := newSpeaker(t, b, speaker.Config{Channels: 2, BitDepth: 16})

	r := &cappedReader{r: bytes.NewReader(make([]byte, 8192)), max: 4097}
	n, err := s.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, int64(8192), n)
	assert.Equal(t, []string{"open", "write 4096", "write 4096"}, b.Calls(), "partial frames wait for the next read")
}

func TestReadFromTrailingPartialFrame(t *testing.T) {
	b := newFakeBackend()
	s, _ := newSpeaker(t, b, speaker.Config{Channels: 2, BitDepth: 16})

	r := &cappedReader{r: bytes.NewReader(make([]byte, 10)), max: 3}
	n, err := s.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, []string{"open", "write 4", "write 4", "write 2"}, b.Calls(), "the tail is written at EOF")
}
