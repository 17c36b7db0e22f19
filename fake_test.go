package speaker_test

import (
	"fmt"
	"io"
	"sync"

	"github.com/gen2brain/speaker"
)

// fakeBackend records every call made to it and its devices.
type fakeBackend struct {
	formats speaker.Encoding
	openErr error

	// short makes every device write acknowledge that many bytes less.
	short int
	// gate, when set, blocks every device write until a value is received.
	gate chan struct{}
	// entered receives a value each time a device write starts.
	entered chan struct{}
	// frame, when set, makes device writes accept whole frames of that size only.
	frame int
	// openGate and flushGate block Open and Flush until they receive or are closed.
	openGate  chan struct{}
	flushGate chan struct{}
	// openEntered and flushEntered receive a value when Open or Flush starts.
	openEntered  chan struct{}
	flushEntered chan struct{}

	mu    sync.Mutex
	calls []string
	opens []speaker.DeviceConfig
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{formats: speaker.EncodingMask(speaker.Encodings...)}
}

func (b *fakeBackend) Info() speaker.BackendInfo {
	return speaker.BackendInfo{Name: "fake", Description: "records calls", APIVersion: 1}
}

func (b *fakeBackend) Formats() speaker.Encoding {
	return b.formats
}

func (b *fakeBackend) Open(cfg speaker.DeviceConfig) (speaker.Device, error) {
	b.record("open")
	if b.openEntered != nil {
		b.openEntered <- struct{}{}
	}
	if b.openGate != nil {
		<-b.openGate
	}
	if b.openErr != nil {
		return nil, b.openErr
	}

	b.mu.Lock()
	b.opens = append(b.opens, cfg)
	b.mu.Unlock()

	return &fakeDevice{b: b}, nil
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, call)
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) Opens() []speaker.DeviceConfig {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]speaker.DeviceConfig(nil), b.opens...)
}

type fakeDevice struct {
	b *fakeBackend
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	if d.b.entered != nil {
		d.b.entered <- struct{}{}
	}
	if d.b.gate != nil {
		<-d.b.gate
	}

	d.b.record(fmt.Sprintf("write %d", len(p)))

	if d.b.frame > 0 {
		return len(p) / d.b.frame * d.b.frame, nil
	}

	return len(p) - d.b.short, nil
}

func (d *fakeDevice) Flush() error {
	if d.b.flushEntered != nil {
		d.b.flushEntered <- struct{}{}
	}
	if d.b.flushGate != nil {
		<-d.b.flushGate
	}

	d.b.record("flush")

	return nil
}

func (d *fakeDevice) Close() error {
	d.b.record("close")

	return nil
}

// eventLog collects the events of a speaker.
type eventLog struct {
	mu     sync.Mutex
	events []speaker.Event
}

func (l *eventLog) listen(ev speaker.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, ev)
}

func (l *eventLog) Types() []speaker.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()

	types := make([]speaker.EventType, 0, len(l.events))
	for _, ev := range l.events {
		types = append(types, ev.Type)
	}

	return types
}

func (l *eventLog) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, ev := range l.events {
		if ev.Type == speaker.EventError {
			errs = append(errs, ev.Err)
		}
	}

	return errs
}

// declaredSource is a reader that declares and later announces its format.
type declaredSource struct {
	data     []byte
	declared speaker.FormatSpec
	announce chan speaker.FormatSpec
	off      int
}

func (s *declaredSource) Read(p []byte) (int, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}

	n := copy(p, s.data[s.off:])
	s.off += n

	return n, nil
}

func (s *declaredSource) DeclaredFormat() speaker.FormatSpec {
	return s.declared
}

func (s *declaredSource) FormatAnnounced() <-chan speaker.FormatSpec {
	return s.announce
}

// cappedReader returns at most max bytes per Read, like a pipe.
type cappedReader struct {
	r   io.Reader
	max int
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if len(p) > c.max {
		p = p[:c.max]
	}

	return c.r.Read(p)
}
