// Package malgo plays speaker output through miniaudio, which picks the best
// native API of the platform (WASAPI, CoreAudio, PulseAudio, ALSA, ...).
// The package requires cgo.
//
// Importing the package registers the "malgo" backend.
package malgo

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/gen2brain/speaker"
	"github.com/gen2brain/speaker/output/internal/pcmbuf"
)

// Period layout requested from miniaudio.
const (
	PeriodMilliseconds = 20
	Periods            = 3
)

func init() {
	speaker.Register("malgo", New())
}

// Backend opens miniaudio playback devices.
type Backend struct{}

// New returns a miniaudio backend.
func New() *Backend {
	return &Backend{}
}

// Info implements speaker.Backend.
func (b *Backend) Info() speaker.BackendInfo {
	return speaker.BackendInfo{
		Name:        "malgo",
		Description: "Output audio using miniaudio",
		APIVersion:  2,
	}
}

// Formats implements speaker.Backend.
func (b *Backend) Formats() speaker.Encoding {
	return speaker.EncodingMask(
		speaker.EncodingUnsigned8,
		speaker.EncodingSigned16,
		speaker.EncodingSigned24,
		speaker.EncodingSigned32,
		speaker.EncodingFloat32,
	)
}

func malgoFormat(enc speaker.Encoding) (malgo.FormatType, error) {
	switch enc {
	case speaker.EncodingUnsigned8:
		return malgo.FormatU8, nil
	case speaker.EncodingSigned16:
		return malgo.FormatS16, nil
	case speaker.EncodingSigned24:
		return malgo.FormatS24, nil
	case speaker.EncodingSigned32:
		return malgo.FormatS32, nil
	case speaker.EncodingFloat32:
		return malgo.FormatF32, nil
	}

	return malgo.FormatUnknown, fmt.Errorf("malgo: encoding %s not supported", enc)
}

// Open implements speaker.Backend. The device name selects a playback device
// by its miniaudio name, empty for the default device.
func (b *Backend) Open(cfg speaker.DeviceConfig) (speaker.Device, error) {
	format, err := malgoFormat(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	silence := byte(0)
	if cfg.Encoding == speaker.EncodingUnsigned8 {
		silence = 0x80
	}

	bytesPerSecond := cfg.SampleRate * cfg.Channels * cfg.Encoding.BytesPerSample()
	buf := pcmbuf.New(pcmbuf.Size(bytesPerSecond, 0.25, 4096), silence)

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = PeriodMilliseconds
	deviceConfig.Periods = Periods
	deviceConfig.Alsa.NoMMap = 1

	if cfg.Device != "" {
		infos, err := ctx.Devices(malgo.Playback)
		if err != nil {
			freeContext(ctx)

			return nil, fmt.Errorf("failed to list playback devices: %w", err)
		}

		found := false
		for _, info := range infos {
			if info.Name() == cfg.Device {
				deviceConfig.Playback.DeviceID = info.ID.Pointer()
				found = true

				break
			}
		}

		if !found {
			freeContext(ctx)

			return nil, fmt.Errorf("malgo: playback device %q not found", cfg.Device)
		}
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			_, _ = buf.Read(out)
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		freeContext(ctx)

		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := dev.Start(); err != nil {
		dev.Uninit()
		freeContext(ctx)

		return nil, fmt.Errorf("failed to start device: %w", err)
	}

	slog.Debug("malgo device started", "rate", cfg.SampleRate, "channels", cfg.Channels, "encoding", cfg.Encoding.String())

	return &device{ctx: ctx, dev: dev, buf: buf}, nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	if err := ctx.Uninit(); err != nil {
		slog.Warn("malgo context uninit error", "err", err)
	}

	ctx.Free()
}

type device struct {
	ctx *malgo.AllocatedContext
	dev *malgo.Device
	buf *pcmbuf.Buffer
}

func (d *device) Write(p []byte) (int, error) {
	return d.buf.Write(p)
}

// Flush waits until the callback consumed the queue, then for the device
// buffer to play out.
func (d *device) Flush() error {
	if err := d.buf.Drain(); err != nil {
		return err
	}

	time.Sleep(PeriodMilliseconds * Periods * time.Millisecond)

	return nil
}

func (d *device) Close() error {
	d.buf.Close()

	err := d.dev.Stop()
	d.dev.Uninit()
	freeContext(d.ctx)

	if underflows := d.buf.Underflows(); underflows > 0 {
		slog.Debug("malgo device closed", "underflows", underflows)
	}

	return err
}
