// Package oto plays speaker output through ebitengine/oto, which drives the
// platform audio API (CoreAudio, WASAPI, ALSA via purego) without cgo on most targets.
//
// Importing the package registers the "oto" backend.
package oto

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/gen2brain/speaker"
)

// BufferSize is the output buffer length of the shared context.
const BufferSize = 100 * time.Millisecond

// ErrContextMismatch is returned when a device is opened with parameters that
// differ from the ones the process-wide context was created with.
var ErrContextMismatch = errors.New("oto: context already created with different parameters")

func init() {
	speaker.Register("oto", New())
}

// oto allows a single context per process.
var (
	contextMu     sync.Mutex
	sharedContext *oto.Context
	sharedOptions oto.NewContextOptions
)

// Backend opens oto players on the process-wide context.
type Backend struct{}

// New returns an oto backend.
func New() *Backend {
	return &Backend{}
}

// Info implements speaker.Backend.
func (b *Backend) Info() speaker.BackendInfo {
	return speaker.BackendInfo{
		Name:        "oto",
		Description: "Output audio using the oto library",
		APIVersion:  2,
	}
}

// Formats implements speaker.Backend. Only little-endian sample formats exist.
func (b *Backend) Formats() speaker.Encoding {
	if speaker.HostEndianness() != speaker.LittleEndian {
		return speaker.EncodingUnsigned8
	}

	return speaker.EncodingMask(speaker.EncodingUnsigned8, speaker.EncodingSigned16, speaker.EncodingFloat32)
}

func otoFormat(enc speaker.Encoding) (oto.Format, error) {
	switch enc {
	case speaker.EncodingUnsigned8:
		return oto.FormatUnsignedInt8, nil
	case speaker.EncodingSigned16:
		return oto.FormatSignedInt16LE, nil
	case speaker.EncodingFloat32:
		return oto.FormatFloat32LE, nil
	}

	return 0, fmt.Errorf("oto: encoding %s not supported", enc)
}

// Open implements speaker.Backend. The device name is ignored, oto always
// plays on the system default output.
func (b *Backend) Open(cfg speaker.DeviceConfig) (speaker.Device, error) {
	format, err := otoFormat(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	ctx, err := acquireContext(oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       format,
		BufferSize:   BufferSize,
	})
	if err != nil {
		return nil, err
	}

	r, w := io.Pipe()
	player := ctx.NewPlayer(r)
	player.Play()

	return &device{player: player, r: r, w: w}, nil
}

func acquireContext(opts oto.NewContextOptions) (*oto.Context, error) {
	contextMu.Lock()
	defer contextMu.Unlock()

	if sharedContext != nil {
		if opts.SampleRate != sharedOptions.SampleRate || opts.ChannelCount != sharedOptions.ChannelCount || opts.Format != sharedOptions.Format {
			return nil, fmt.Errorf("%w: %d Hz, %d channels", ErrContextMismatch, sharedOptions.SampleRate, sharedOptions.ChannelCount)
		}

		return sharedContext, nil
	}

	ctx, ready, err := oto.NewContext(&opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	<-ready

	slog.Debug("oto context created", "rate", opts.SampleRate, "channels", opts.ChannelCount)

	sharedContext = ctx
	sharedOptions = opts

	return ctx, nil
}

type device struct {
	player *oto.Player
	r      *io.PipeReader
	w      *io.PipeWriter
}

// Write blocks until the player has taken all of p.
func (d *device) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	if err != nil {
		if perr := d.player.Err(); perr != nil {
			return n, perr
		}
	}

	return n, err
}

// Flush ends the stream and waits until the player ran out of data.
func (d *device) Flush() error {
	if err := d.w.Close(); err != nil {
		return err
	}

	for d.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	return d.player.Err()
}

func (d *device) Close() error {
	d.player.Pause()

	return errors.Join(d.w.Close(), d.r.Close())
}
