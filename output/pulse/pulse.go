// Package pulse plays speaker output through a PulseAudio (or PipeWire-pulse)
// server using the native protocol, without linking libpulse.
//
// Importing the package registers the "pulse" backend.
package pulse

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jfreymuth/pulse"

	"github.com/gen2brain/speaker"
	"github.com/gen2brain/speaker/output/internal/pcmbuf"
)

// Latency is the playback latency requested from the server, in seconds.
const Latency = 0.1

// ApplicationName is reported to the server for every client.
var ApplicationName = "speaker"

func init() {
	speaker.Register("pulse", New())
}

// Backend opens playback streams on a PulseAudio server.
type Backend struct{}

// New returns a PulseAudio backend.
func New() *Backend {
	return &Backend{}
}

// Info implements speaker.Backend.
func (b *Backend) Info() speaker.BackendInfo {
	return speaker.BackendInfo{
		Name:        "pulse",
		Description: "Output audio using PulseAudio Server",
		APIVersion:  2,
	}
}

// Formats implements speaker.Backend.
func (b *Backend) Formats() speaker.Encoding {
	return speaker.EncodingMask(
		speaker.EncodingUnsigned8,
		speaker.EncodingSigned16,
		speaker.EncodingSigned32,
		speaker.EncodingFloat32,
	)
}

// Open implements speaker.Backend. The device name selects a sink by name,
// empty for the server's default sink. Only mono and stereo are supported.
func (b *Backend) Open(cfg speaker.DeviceConfig) (speaker.Device, error) {
	var layout pulse.PlaybackOption
	switch cfg.Channels {
	case 1:
		layout = pulse.PlaybackMono
	case 2:
		layout = pulse.PlaybackStereo
	default:
		return nil, fmt.Errorf("pulse: %d channels not supported", cfg.Channels)
	}

	size := cfg.Encoding.BytesPerSample()
	if size == 0 || !cfg.Encoding.SupportedBy(b.Formats()) {
		return nil, fmt.Errorf("pulse: encoding %s not supported", cfg.Encoding)
	}

	silence := byte(0)
	if cfg.Encoding == speaker.EncodingUnsigned8 {
		silence = 0x80
	}

	bytesPerSecond := cfg.SampleRate * cfg.Channels * size
	buf := pcmbuf.New(pcmbuf.Size(bytesPerSecond, Latency*2, 4096), silence)

	client, err := pulse.NewClient(pulse.ClientApplicationName(ApplicationName))
	if err != nil {
		return nil, fmt.Errorf("pulse: connect: %w", err)
	}

	opts := []pulse.PlaybackOption{
		layout,
		pulse.PlaybackSampleRate(cfg.SampleRate),
		pulse.PlaybackLatency(Latency),
	}

	if cfg.Device != "" {
		sink, err := client.SinkByID(cfg.Device)
		if err != nil {
			client.Close()

			return nil, fmt.Errorf("pulse: sink %q: %w", cfg.Device, err)
		}

		opts = append(opts, pulse.PlaybackSink(sink))
	}

	stream, err := client.NewPlayback(reader(cfg.Encoding, buf), opts...)
	if err != nil {
		client.Close()

		return nil, fmt.Errorf("pulse: new playback: %w", err)
	}

	stream.Start()

	slog.Debug("pulse stream started", "rate", cfg.SampleRate, "channels", cfg.Channels, "encoding", cfg.Encoding.String(), "sink", cfg.Device)

	return &device{client: client, stream: stream, buf: buf}, nil
}

// reader returns the stream callback for enc, pulling bytes from buf.
func reader(enc speaker.Encoding, buf *pcmbuf.Buffer) pulse.Reader {
	switch enc {
	case speaker.EncodingUnsigned8:
		return pulse.Uint8Reader(func(out []byte) (int, error) {
			return pull(buf, out, 1)
		})
	case speaker.EncodingSigned16:
		return pulse.Int16Reader(func(out []int16) (int, error) {
			return pull(buf, pcmbuf.Bytes(out), 2)
		})
	case speaker.EncodingSigned32:
		return pulse.Int32Reader(func(out []int32) (int, error) {
			return pull(buf, pcmbuf.Bytes(out), 4)
		})
	default:
		return pulse.Float32Reader(func(out []float32) (int, error) {
			return pull(buf, pcmbuf.Bytes(out), 4)
		})
	}
}

// pull reads whole samples from buf into out and returns the sample count.
func pull(buf *pcmbuf.Buffer, out []byte, size int) (int, error) {
	n, err := buf.Read(out)
	if err != nil {
		return 0, pulse.EndOfData
	}

	return n / size, nil
}

type device struct {
	client *pulse.Client
	stream *pulse.PlaybackStream
	buf    *pcmbuf.Buffer
}

func (d *device) Write(p []byte) (int, error) {
	if err := d.stream.Error(); err != nil {
		return 0, err
	}

	return d.buf.Write(p)
}

// Flush ends the stream and waits until the server has played it.
func (d *device) Flush() error {
	d.buf.CloseWrite()
	d.stream.Drain()

	if d.stream.Underflow() {
		slog.Debug("pulse stream underflowed", "underflows", d.buf.Underflows())
	}

	return d.stream.Error()
}

func (d *device) Close() error {
	d.buf.Close()
	d.stream.Close()
	d.client.Close()

	err := d.stream.Error()
	if errors.Is(err, pulse.EndOfData) {
		return nil
	}

	return err
}
