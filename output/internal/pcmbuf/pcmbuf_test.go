package pcmbuf_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/speaker/output/internal/pcmbuf"
)

func TestReadPadsSilence(t *testing.T) {
	b := pcmbuf.New(16, 0x80)

	n, err := b.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	out := make([]byte, 6)
	n, err = b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{1, 2, 3, 0x80, 0x80, 0x80}, out)
	assert.Equal(t, uint64(1), b.Underflows())
}

func TestWriteBlocksUntilConsumed(t *testing.T) {
	b := pcmbuf.New(8, 0)

	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i + 1)
	}

	done := make(chan int, 1)
	go func() {
		n, _ := b.Write(data)
		done <- n
	}()

	var got []byte
	out := make([]byte, 4)
	deadline := time.After(5 * time.Second)

	for len(got) < len(data) {
		select {
		case <-deadline:
			t.Fatal("reader did not receive all data")
		default:
		}

		if b.Len() == 0 {
			time.Sleep(time.Millisecond)

			continue
		}

		n, err := b.Read(out[:min(len(out), b.Len())])
		require.NoError(t, err)
		got = append(got, out[:n]...)
	}

	assert.Equal(t, len(data), <-done)
	assert.True(t, bytes.Equal(data, got))
}

func TestCloseWrite(t *testing.T) {
	b := pcmbuf.New(16, 0)

	_, err := b.Write([]byte{1, 2})
	require.NoError(t, err)

	b.CloseWrite()

	_, err = b.Write([]byte{3})
	assert.ErrorIs(t, err, pcmbuf.ErrClosed)

	out := make([]byte, 4)
	n, err := b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "no padding after the end of the stream")

	n, err = b.Read(out)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, n)
}

func TestCloseReleasesWriter(t *testing.T) {
	b := pcmbuf.New(4, 0)

	errc := make(chan error, 1)
	go func() {
		_, err := b.Write(make([]byte, 32))
		errc <- err
	}()

	assert.Eventually(t, func() bool { return b.Len() == 4 }, time.Second, time.Millisecond)

	b.Close()
	b.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, pcmbuf.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("writer was not released")
	}

	assert.ErrorIs(t, b.Drain(), pcmbuf.ErrClosed)
	assert.Equal(t, 0, b.Len(), "queued data is discarded")
}

func TestDrain(t *testing.T) {
	b := pcmbuf.New(16, 0)

	_, err := b.Write(make([]byte, 12))
	require.NoError(t, err)

	drained := make(chan error, 1)
	go func() {
		drained <- b.Drain()
	}()

	out := make([]byte, 4)
	for i := 0; i < 3; i++ {
		_, err := b.Read(out)
		require.NoError(t, err)
	}

	select {
	case err := <-drained:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("drain did not return")
	}

	assert.Equal(t, 0, b.Len())
}

func TestSize(t *testing.T) {
	assert.Equal(t, 88200, pcmbuf.Size(176400, 0.5, 4096))
	assert.Equal(t, 4096, pcmbuf.Size(1000, 0.1, 4096))
}

func TestBytes(t *testing.T) {
	assert.Nil(t, pcmbuf.Bytes([]float32{}))
	assert.Len(t, pcmbuf.Bytes(make([]float32, 3)), 12)
	assert.Len(t, pcmbuf.Bytes(make([]int32, 2)), 8)
	assert.Len(t, pcmbuf.Bytes(make([]int8, 5)), 5)

	s := []int16{0x0102}
	b := pcmbuf.Bytes(s)
	b[0], b[1] = 0xff, 0xff
	assert.Equal(t, int16(-1), s[0], "the byte view aliases the samples")
}
