// Package pcmbuf decouples blocking device writes from the real-time audio
// callback of pull based backends.
//
//	Write (blocking)        ring buffer         audio callback
//	┌──────────────┐        ┌──────────┐        ┌────────────────┐
//	│ Speaker chunk │─write─▶│ ●●●●●○○○ │─read──▶│ copy to output │
//	└──────────────┘        └──────────┘        └────────────────┘
package pcmbuf

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/smallnest/ringbuffer"
)

// ErrClosed is returned by Write once the buffer is closed.
var ErrClosed = errors.New("pcm buffer closed")

// Buffer is a byte queue with a blocking producer and a non-blocking consumer.
type Buffer struct {
	ring    *ringbuffer.RingBuffer
	silence byte

	// consumed is signalled after every read from the ring.
	consumed chan struct{}

	closeOnce sync.Once
	done      chan struct{}
	ended     atomic.Bool

	underflows atomic.Uint64
}

// New returns a buffer holding up to size bytes. Read pads missing data
// with the silence byte, 0x80 for unsigned 8-bit samples and 0 otherwise.
func New(size int, silence byte) *Buffer {
	return &Buffer{
		ring:     ringbuffer.New(size),
		silence:  silence,
		consumed: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Size returns the buffer capacity in bytes for d seconds of audio, at least one period.
func Size(bytesPerSecond int, seconds float64, period int) int {
	size := int(float64(bytesPerSecond) * seconds)
	if size < period {
		size = period
	}

	return size
}

// Write queues all of p, blocking while the buffer is full.
func (b *Buffer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if b.ended.Load() {
			return written, ErrClosed
		}

		n, _ := b.ring.Write(p[written:])
		written += n

		if written == len(p) {
			break
		}

		select {
		case <-b.consumed:
		case <-b.done:
			return written, ErrClosed
		}
	}

	return written, nil
}

// Read fills p from the queue without blocking. While the producer is active
// the part of p that cannot be filled is set to silence and counted as an
// underflow; after CloseWrite, Read returns io.EOF once the queue is empty.
func (b *Buffer) Read(p []byte) (int, error) {
	n, _ := b.ring.Read(p)
	if n > 0 {
		select {
		case b.consumed <- struct{}{}:
		default:
		}
	}

	if n == len(p) {
		return n, nil
	}

	if b.ended.Load() {
		if n == 0 {
			return 0, io.EOF
		}

		return n, nil
	}

	if n < len(p) {
		b.underflows.Add(1)
	}

	for i := n; i < len(p); i++ {
		p[i] = b.silence
	}

	return len(p), nil
}

// Len returns the number of queued bytes.
func (b *Buffer) Len() int {
	return b.ring.Length()
}

// Underflows returns the number of reads padded with silence.
func (b *Buffer) Underflows() uint64 {
	return b.underflows.Load()
}

// Drain blocks until the consumer has read every queued byte or the buffer is closed.
func (b *Buffer) Drain() error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}

	for b.ring.Length() > 0 {
		select {
		case <-b.consumed:
		case <-b.done:
			return ErrClosed
		}
	}

	return nil
}

// CloseWrite marks the end of the stream. Queued data can still be read.
func (b *Buffer) CloseWrite() {
	b.ended.Store(true)
}

// Close releases blocked writers and drainers and discards queued data.
func (b *Buffer) Close() {
	b.closeOnce.Do(func() {
		b.ended.Store(true)
		close(b.done)
		b.ring.Reset()
	})
}
