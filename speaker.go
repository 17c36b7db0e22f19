// Package speaker provides a writable PCM sink that plays raw audio data through
// a native output backend.
//
// A Speaker chunks incoming bytes to the backend's preferred size, negotiates
// the PCM format from its Config and from the producer it reads from, opens
// the device lazily on the first write, and reports open, flush, close and
// error notifications to its listeners.
//
// Backends live in the output/ packages and register themselves when imported:
//
//	import _ "github.com/gen2brain/speaker/output/alsa"
//
//	s, err := speaker.New(speaker.Config{Channels: 2, BitDepth: 16, SampleRate: 48000})
//	if err != nil {
//		return err
//	}
//	err = s.Play(ctx, pcmReader)
package speaker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State is the lifecycle state of a Speaker.
type State int

const (
	// StateUnopened is the state before the first write.
	StateUnopened State = iota
	// StateOpen means the backend device is open.
	StateOpen
	// StateClosed is terminal, no further writes are accepted.
	StateClosed
)

// StateNames provides human-readable names for lifecycle states.
var StateNames = map[State]string{
	StateUnopened: "unopened",
	StateOpen:     "open",
	StateClosed:   "closed",
}

// String returns the name of the state.
func (s State) String() string {
	return StateNames[s]
}

// Speaker accepts raw PCM data and sends it to the output device of a backend.
// Calls to Write must not overlap; Close, Stop and End may be called from any goroutine.
type Speaker struct {
	backend Backend
	log     *slog.Logger
	events  emitter

	lowWaterMark  int
	highWaterMark int

	// mu guards the fields below.
	mu        sync.Mutex
	state     State
	format    formatState
	resolved  Format
	encoding  Encoding
	chunkSize int
	handle    *handle
	lastErr   error
	detach    func()

	// ioMu keeps a single backend call in flight.
	ioMu sync.Mutex
	// lifeMu orders EventOpen and EventFlush before EventClose. Taken before mu and ioMu.
	lifeMu sync.Mutex
}

// New creates a Speaker. The device is not opened until the first Write.
// A non-native Config.Endianness does not fail New, it is reported as an
// EventError to Config.OnEvent.
func New(cfg Config) (*Speaker, error) {
	b := cfg.Backend
	if b == nil {
		var err error
		if b, err = DefaultBackend(); err != nil {
			return nil, err
		}
	}

	s := &Speaker{
		backend: b,
		log:     cfg.logger(b),
	}
	s.lowWaterMark, s.highWaterMark = cfg.waterMarks()

	if cfg.OnEvent != nil {
		s.events.subscribe(cfg.OnEvent)
	}

	s.applyFormat(cfg.Spec())

	return s, nil
}

// Subscribe registers fn for lifecycle events and returns a function that removes it.
func (s *Speaker) Subscribe(fn Listener) (unsubscribe func()) {
	return s.events.subscribe(fn)
}

// Backend returns the output module of the speaker.
func (s *Speaker) Backend() Backend {
	return s.backend
}

// State returns the current lifecycle state.
func (s *Speaker) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Format returns the format the device is opened with. Before the device is
// open it returns the format that the current attributes resolve to.
func (s *Speaker) Format() Format {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUnopened {
		f, _ := s.format.resolve()

		return f
	}

	return s.resolved
}

// Encoding returns the backend encoding of the open device, zero before the first Write.
func (s *Speaker) Encoding() Encoding {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.encoding
}

// ChunkSize returns the number of bytes sent to the backend per call, zero before the first Write.
func (s *Speaker) ChunkSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chunkSize
}

// Err returns the last error reported as an EventError.
func (s *Speaker) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

// SetFormat merges spec over the current format attributes. It has no effect
// on a device that is already open.
func (s *Speaker) SetFormat(spec FormatSpec) {
	s.applyFormat(spec)
}

// Write sends p to the backend in chunks of ChunkSize bytes.
//
// The first call resolves the format and opens the device; failures surface
// as the returned error. If the speaker is closed while p is being
// forwarded, the remaining chunks are discarded and Write reports len(p).
func (s *Speaker) Write(p []byte) (int, error) {
	s.log.Debug("write()", "bytes", len(p))

	s.mu.Lock()
	state, h, size := s.state, s.handle, s.chunkSize
	s.mu.Unlock()

	switch state {
	case StateClosed:
		return 0, ErrWriteAfterClose
	case StateUnopened:
		var err error
		if h, size, err = s.open(); err != nil {
			return 0, err
		}

		if h == nil {
			s.log.Debug("closed while opening, discarding write()")

			return len(p), nil
		}
	}

	c := chunker{size: size}

	return c.forward(p, func(b []byte) (int, bool, error) {
		return s.writeChunk(h, b)
	})
}

// open resolves the format, acquires the device and raises EventOpen. The
// backend is called without s.mu held; a nil handle means the speaker was
// closed meanwhile.
func (s *Speaker) open() (*handle, int, error) {
	s.mu.Lock()
	f, frames := s.format.resolve()
	cfg := DeviceConfig{
		Channels:   f.Channels,
		SampleRate: f.SampleRate,
	}
	if s.format.device != nil {
		cfg.Device = *s.format.device
	}
	s.mu.Unlock()

	if f.Channels <= 0 || f.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}

	enc, ok := GetFormat(f)
	if !ok {
		return nil, 0, fmt.Errorf("%w: invalid PCM format specified (%s)", ErrUnsupportedFormat, f)
	}

	if !enc.SupportedBy(s.backend.Formats()) {
		return nil, 0, fmt.Errorf("%w: %s is not supported by %q backend", ErrUnsupportedFormat, enc, s.backend.Info().Name)
	}
	cfg.Encoding = enc

	s.log.Debug("open()", "format", f.String(), "encoding", enc.String(), "device", cfg.Device)

	dev, err := s.backend.Open(cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrOpenFailure, err)
	}

	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	if s.state != StateUnopened {
		s.mu.Unlock()

		if err := dev.Close(); err != nil {
			s.log.Warn("close failed", "err", err)
		}

		return nil, 0, nil
	}

	h := newHandle(dev)
	size := f.BlockAlign() * frames

	s.handle = h
	s.resolved = f
	s.encoding = enc
	s.chunkSize = size
	s.state = StateOpen
	s.mu.Unlock()

	s.events.emit(Event{Type: EventOpen})

	return h, size, nil
}

// writeChunk forwards b unless the speaker was closed since h was obtained.
func (s *Speaker) writeChunk(h *handle, b []byte) (n int, canceled bool, err error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	if !s.owns(h) {
		s.log.Debug("aborting remainder of write(), speaker is closed")

		return 0, true, nil
	}

	s.log.Debug("writing chunk", "bytes", len(b))
	n, err = h.dev.Write(b)
	s.log.Debug("wrote", "bytes", n)

	return n, false, err
}

// owns reports whether h is still the open device of the speaker.
func (s *Speaker) owns(h *handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == StateOpen && s.handle == h
}

// Close flushes buffered audio, then releases the device. Only the first call
// has an effect and raises EventClose.
func (s *Speaker) Close() error {
	return s.shutdown(true)
}

// Stop releases the device without waiting for buffered audio to play.
// Only the first call (of Stop or Close) has an effect.
func (s *Speaker) Stop() error {
	return s.shutdown(false)
}

// End marks the end of the stream. It flushes the device once, raises
// EventFlush, then closes without flushing again.
//
// The backends keep some buffered audio after the last write; EventFlush and
// EventClose, not the return of the last Write, signal that it was played.
func (s *Speaker) End() error {
	s.log.Debug("end()")

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()

		return nil
	}
	h := s.handle
	s.mu.Unlock()

	var flushErr error
	if h != nil {
		s.ioMu.Lock()
		if s.owns(h) {
			flushErr = h.dev.Flush()
		}
		s.ioMu.Unlock()

		if flushErr != nil {
			s.log.Warn("flush failed", "err", flushErr)
			flushErr = fmt.Errorf("flush: %w", flushErr)
		}
	}

	s.lifeMu.Lock()
	s.mu.Lock()
	live := s.state != StateClosed && s.handle == h
	s.mu.Unlock()

	if live {
		s.events.emit(Event{Type: EventFlush})
	}
	s.lifeMu.Unlock()

	return errors.Join(flushErr, s.shutdown(false))
}

func (s *Speaker) shutdown(flush bool) error {
	s.log.Debug("close()", "flush", flush)

	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		s.log.Debug("already closed")

		return nil
	}

	h := s.handle
	s.handle = nil
	s.state = StateClosed
	s.mu.Unlock()

	s.Detach()

	var err error
	if h != nil {
		// Waits for a chunk that is already with the backend.
		s.ioMu.Lock()
		flushErr, closeErr := h.release(flush)
		s.ioMu.Unlock()

		if flushErr != nil {
			s.log.Warn("flush failed", "err", flushErr)
			flushErr = fmt.Errorf("flush: %w", flushErr)
		}
		if closeErr != nil {
			s.log.Warn("close failed", "err", closeErr)
			closeErr = fmt.Errorf("close: %w", closeErr)
		}

		err = errors.Join(flushErr, closeErr)
	}

	s.events.emit(Event{Type: EventClose})

	return err
}

// applyFormat merges spec and reports a rejected byte order as an EventError.
func (s *Speaker) applyFormat(spec FormatSpec) {
	s.mu.Lock()
	err := s.format.merge(spec)
	s.mu.Unlock()

	if err != nil {
		s.reportError(err)
	}
}

func (s *Speaker) reportError(err error) {
	s.log.Warn("speaker error", "err", err)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	s.events.emit(Event{Type: EventError, Err: err})
}
