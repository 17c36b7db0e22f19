//go:build portaudio

package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/gen2brain/speaker"
	"github.com/gen2brain/speaker/output/internal/pcmbuf"
)

func init() {
	speaker.Register("portaudio", New())
}

// Backend opens PortAudio output streams.
type Backend struct{}

// New returns a PortAudio backend.
func New() *Backend {
	return &Backend{}
}

// Info implements speaker.Backend.
func (b *Backend) Info() speaker.BackendInfo {
	return speaker.BackendInfo{
		Name:        "portaudio",
		Description: "Output audio using PortAudio",
		APIVersion:  2,
	}
}

// Formats implements speaker.Backend.
func (b *Backend) Formats() speaker.Encoding {
	return speaker.EncodingMask(
		speaker.EncodingUnsigned8,
		speaker.EncodingSigned8,
		speaker.EncodingSigned16,
		speaker.EncodingSigned32,
		speaker.EncodingFloat32,
	)
}

// callback returns the stream callback for enc. PortAudio infers the sample
// format from the slice type.
func callback(enc speaker.Encoding, buf *pcmbuf.Buffer) (any, error) {
	switch enc {
	case speaker.EncodingUnsigned8:
		return func(out []uint8) { _, _ = buf.Read(out) }, nil
	case speaker.EncodingSigned8:
		return func(out []int8) { _, _ = buf.Read(pcmbuf.Bytes(out)) }, nil
	case speaker.EncodingSigned16:
		return func(out []int16) { _, _ = buf.Read(pcmbuf.Bytes(out)) }, nil
	case speaker.EncodingSigned32:
		return func(out []int32) { _, _ = buf.Read(pcmbuf.Bytes(out)) }, nil
	case speaker.EncodingFloat32:
		return func(out []float32) { _, _ = buf.Read(pcmbuf.Bytes(out)) }, nil
	}

	return nil, fmt.Errorf("portaudio: encoding %s not supported", enc)
}

// Open implements speaker.Backend. The device name selects an output device
// by its PortAudio name, empty for the default output.
func (b *Backend) Open(cfg speaker.DeviceConfig) (speaker.Device, error) {
	silence := byte(0)
	if cfg.Encoding == speaker.EncodingUnsigned8 {
		silence = 0x80
	}

	bytesPerSecond := cfg.SampleRate * cfg.Channels * cfg.Encoding.BytesPerSample()
	buf := pcmbuf.New(pcmbuf.Size(bytesPerSecond, 0.25, 4096), silence)

	fn, err := callback(cfg.Encoding, buf)
	if err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	stream, err := openStream(cfg, fn)
	if err != nil {
		_ = portaudio.Terminate()

		return nil, err
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()

		return nil, fmt.Errorf("failed to start stream: %w", err)
	}

	latency := stream.Info().OutputLatency
	slog.Debug("portaudio stream started", "rate", cfg.SampleRate, "channels", cfg.Channels, "latency", latency)

	return &device{stream: stream, buf: buf, latency: latency}, nil
}

func openStream(cfg speaker.DeviceConfig, fn any) (*portaudio.Stream, error) {
	if cfg.Device == "" {
		stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), 0, fn)
		if err != nil {
			return nil, fmt.Errorf("failed to open stream: %w", err)
		}

		return stream, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	for _, info := range devices {
		if info.Name != cfg.Device || info.MaxOutputChannels < cfg.Channels {
			continue
		}

		params := portaudio.HighLatencyParameters(nil, info)
		params.Output.Channels = cfg.Channels
		params.SampleRate = float64(cfg.SampleRate)

		stream, err := portaudio.OpenStream(params, fn)
		if err != nil {
			return nil, fmt.Errorf("failed to open stream on %q: %w", cfg.Device, err)
		}

		return stream, nil
	}

	return nil, fmt.Errorf("portaudio: output device %q not found", cfg.Device)
}

type device struct {
	stream  *portaudio.Stream
	buf     *pcmbuf.Buffer
	latency time.Duration
}

func (d *device) Write(p []byte) (int, error) {
	return d.buf.Write(p)
}

// Flush waits until the callback consumed the queue and the stream latency
// has passed.
func (d *device) Flush() error {
	if err := d.buf.Drain(); err != nil {
		return err
	}

	time.Sleep(d.latency)

	return nil
}

func (d *device) Close() error {
	d.buf.Close()

	return errors.Join(d.stream.Stop(), d.stream.Close(), portaudio.Terminate())
}
