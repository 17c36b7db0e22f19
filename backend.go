package speaker

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"
)

// BackendInfo describes an output module.
type BackendInfo struct {
	Name        string
	Description string
	APIVersion  int
}

// DeviceConfig holds the parameters a device is opened with.
type DeviceConfig struct {
	Channels   int
	SampleRate int
	Encoding   Encoding
	// Device selects a backend specific device, empty for the default one.
	Device string
}

// Backend is a native audio output library.
type Backend interface {
	// Info returns the name and description of the output module.
	Info() BackendInfo
	// Formats returns the bitmask of encodings the backend can play.
	Formats() Encoding
	// Open acquires an output device. On error nothing stays allocated.
	Open(cfg DeviceConfig) (Device, error)
}

// Device is an open output device. Its methods block until the backend has
// completed the request and are never called concurrently.
type Device interface {
	// Write queues p for playback and returns the number of bytes consumed.
	Write(p []byte) (int, error)
	// Flush blocks until buffered audio has been played.
	Flush() error
	// Close releases the device, dropping audio that was not played yet.
	Close() error
}

// BackendEnv names the environment variable that selects the default backend.
const BackendEnv = "SPEAKER_BACKEND"

// backendPreference is the order DefaultBackend tries registered backends in.
var backendPreference = []string{"pulse", "alsa", "malgo", "oto", "portaudio"}

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Backend)
)

// Register makes a backend available by name.
// If Register is called twice with the same name or if b is nil, it panics.
func Register(name string, b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if b == nil {
		panic("speaker: Register backend is nil")
	}

	if _, dup := backends[name]; dup {
		panic("speaker: Register called twice for backend " + name)
	}

	backends[name] = b
}

// Backends returns a sorted list of the names of the registered backends.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered (forgotten import?)", ErrNoBackend, name)
	}

	return b, nil
}

// DefaultBackend returns the backend named by SPEAKER_BACKEND, or the first
// registered backend in preference order.
func DefaultBackend() (Backend, error) {
	if name := os.Getenv(BackendEnv); name != "" {
		return Lookup(name)
	}

	backendsMu.RLock()
	defer backendsMu.RUnlock()

	for _, name := range backendPreference {
		if b, ok := backends[name]; ok {
			return b, nil
		}
	}

	// Backends registered under other names, in a stable order.
	names := make([]string, 0, len(backends))
	for name := range backends {
		if !slices.Contains(backendPreference, name) {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: none registered", ErrNoBackend)
	}

	sort.Strings(names)

	return backends[names[0]], nil
}

// handle owns an open device and releases it exactly once.
type handle struct {
	dev  Device
	once sync.Once
}

func newHandle(dev Device) *handle {
	return &handle{dev: dev}
}

// release optionally flushes, then closes the device. Only the first call
// reaches the backend; the returned errors are those of that call.
func (h *handle) release(flush bool) (flushErr, closeErr error) {
	h.once.Do(func() {
		if flush {
			flushErr = h.dev.Flush()
		}

		closeErr = h.dev.Close()
	})

	return flushErr, closeErr
}
