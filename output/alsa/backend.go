//go:build linux

// Package alsa plays speaker output through the Linux ALSA kernel interface,
// using raw ioctls on /dev/snd without linking libasound.
//
// Importing the package registers the "alsa" backend:
//
//	import _ "github.com/gen2brain/speaker/output/alsa"
package alsa

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/speaker"
)

// Period layout used for every stream.
const (
	DefaultPeriodSize  = 1024
	DefaultPeriodCount = 4
)

func init() {
	speaker.Register("alsa", New())
}

// Backend opens ALSA hardware playback devices.
type Backend struct {
	formats func() speaker.Encoding
}

// New returns an ALSA backend. The capability mask is queried from the
// default device on first use.
func New() *Backend {
	return &Backend{formats: sync.OnceValue(probeFormats)}
}

// Info implements speaker.Backend.
func (b *Backend) Info() speaker.BackendInfo {
	return speaker.BackendInfo{
		Name:        "alsa",
		Description: "Output audio using the Linux ALSA kernel interface",
		APIVersion:  2,
	}
}

// Formats implements speaker.Backend.
func (b *Backend) Formats() speaker.Encoding {
	return b.formats()
}

// Open implements speaker.Backend. An empty device name selects the first
// playback device found in /proc/asound.
func (b *Backend) Open(cfg speaker.DeviceConfig) (speaker.Device, error) {
	format := NativeFormat(cfg.Encoding)
	if format == SNDRV_PCM_FORMAT_INVALID {
		return nil, fmt.Errorf("encoding %s has no ALSA format", cfg.Encoding)
	}

	name := cfg.Device
	if name == "" {
		name = DefaultDevice()
	}

	pcm, err := PcmOpenByName(name, &Config{
		Channels:    uint32(cfg.Channels),
		Rate:        uint32(cfg.SampleRate),
		PeriodSize:  DefaultPeriodSize,
		PeriodCount: DefaultPeriodCount,
		Format:      format,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("alsa device opened", "device", name, "subdevice", pcm.Subdevice(), "format", format.String(), "rate", pcm.Config().Rate, "buffer", pcm.BufferSize())

	return &device{pcm: pcm}, nil
}

// probeFormats returns the encodings of the default device, or every mappable
// encoding when the device cannot be queried.
func probeFormats() speaker.Encoding {
	var all speaker.Encoding
	for enc := range formatPairs {
		all |= enc
	}

	card, dev, err := ParseName(DefaultDevice())
	if err != nil {
		return all
	}

	params, err := PcmParamsGetRefined(card, dev)
	if err != nil {
		slog.Debug("alsa capability query failed", "err", err)

		return all
	}

	return encodingsOf(params)
}

// encodingsOf returns the mask of encodings whose native format params supports.
func encodingsOf(params *PcmParams) speaker.Encoding {
	var mask speaker.Encoding
	for enc := range formatPairs {
		if params.FormatIsSupported(NativeFormat(enc)) {
			mask |= enc
		}
	}

	return mask
}

type device struct {
	pcm *PCM
}

func (d *device) Write(p []byte) (int, error) {
	return d.pcm.Write(p)
}

// Flush drains the stream and prepares it for further writes.
func (d *device) Flush() error {
	if err := d.pcm.Drain(); err != nil {
		return err
	}

	return d.pcm.Prepare()
}

func (d *device) Close() error {
	stopErr := d.pcm.Stop()
	if xruns := d.pcm.Xruns(); xruns > 0 {
		slog.Debug("alsa device closed", "xruns", xruns)
	}

	return errors.Join(stopErr, d.pcm.Close())
}
