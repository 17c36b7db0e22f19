package speaker

import (
	"log/slog"
	"os"
)

// Default values used for attributes that are neither configured nor
// declared by an upstream producer.
const (
	DefaultChannels        = 2
	DefaultBitDepth        = 16
	DefaultSampleRate      = 44100
	DefaultSamplesPerFrame = 1024
	DefaultHighWaterMark   = 16 * 1024
)

// DeviceEnv names the environment variable used when Config.Device is empty.
const DeviceEnv = "SPEAKER_DEVICE"

// Config encapsulates the format and stream parameters of a Speaker.
// Zero values mean "not specified": the attribute is taken from an upstream
// producer if one declares it, otherwise from the defaults above.
type Config struct {
	Channels   int
	BitDepth   int
	SampleRate int
	// Signed defaults to true for every bit depth except 8.
	Signed *bool
	// Float selects IEEE float samples; BitDepth then defaults to 32.
	Float *bool
	// Endianness must be the host byte order, anything else raises an error event.
	Endianness Endianness

	// SamplesPerFrame is the number of frames sent to the backend per write call.
	// Sending larger chunks starves some backends (CoreAudio) between callbacks.
	SamplesPerFrame int
	// Device is a backend specific device name, e.g. "hw:1,0" for ALSA.
	Device string

	// LowWaterMark is the number of bytes ReadFrom accumulates before it writes.
	LowWaterMark int
	// HighWaterMark is the size of the ReadFrom buffer, the largest single write it issues.
	HighWaterMark int

	// Backend is the output module, DefaultBackend() if nil.
	Backend Backend
	// Logger receives debug and warning records, slog.Default() if nil.
	Logger *slog.Logger
	// OnEvent is subscribed before any event can be raised.
	OnEvent Listener
}

// Spec returns the format attributes set in c.
func (c Config) Spec() FormatSpec {
	var spec FormatSpec

	if c.Channels > 0 {
		spec.Channels = Int(c.Channels)
	}
	if c.BitDepth > 0 {
		spec.BitDepth = Int(c.BitDepth)
	}
	if c.SampleRate > 0 {
		spec.SampleRate = Int(c.SampleRate)
	}
	if c.Signed != nil {
		spec.Signed = Bool(*c.Signed)
	}
	if c.Float != nil {
		spec.Float = Bool(*c.Float)
	}
	if c.Endianness != NativeEndian {
		e := c.Endianness
		spec.Endianness = &e
	}
	if c.SamplesPerFrame > 0 {
		spec.SamplesPerFrame = Int(c.SamplesPerFrame)
	}

	device := c.Device
	if device == "" {
		device = os.Getenv(DeviceEnv)
	}
	if device != "" {
		spec.Device = String(device)
	}

	return spec
}

// waterMarks returns the ReadFrom thresholds with defaults applied.
func (c Config) waterMarks() (low, high int) {
	high = c.HighWaterMark
	if high <= 0 {
		high = DefaultHighWaterMark
	}

	low = c.LowWaterMark
	if low < 0 {
		low = 0
	}
	if low > high {
		low = high
	}

	return low, high
}

func (c Config) logger(b Backend) *slog.Logger {
	l := c.Logger
	if l == nil {
		l = slog.Default()
	}

	return l.With(slog.String("component", "speaker"), slog.String("backend", b.Info().Name))
}
