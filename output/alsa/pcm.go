//go:build linux

package alsa

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Config encapsulates the hardware parameters of a playback stream.
type Config struct {
	Channels    uint32
	Rate        uint32
	PeriodSize  uint32
	PeriodCount uint32
	Format      PcmFormat
}

// PCM represents an open ALSA playback device handle.
type PCM struct {
	file       *os.File
	config     Config
	bufferSize uint32 // In frames
	subdevice  uint32
	xruns      int
}

// devicePath returns the device node of a playback PCM.
func devicePath(card, device uint) string {
	return fmt.Sprintf("/dev/snd/pcmC%dD%dp", card, device)
}

// ParseName parses a PCM name in the format "hw:C,D".
func ParseName(name string) (card, device uint, err error) {
	if !strings.HasPrefix(name, "hw:") {
		return 0, 0, fmt.Errorf("invalid PCM name format: missing 'hw:' prefix")
	}

	parts := strings.Split(strings.TrimPrefix(name, "hw:"), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid PCM name format: expected 'hw:card,device'")
	}

	c, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid card number '%s': %w", parts[0], err)
	}

	d, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid device number '%s': %w", parts[1], err)
	}

	return uint(c), uint(d), nil
}

// PcmOpenByName opens a PCM by its name, in the format "hw:C,D".
func PcmOpenByName(name string, config *Config) (*PCM, error) {
	card, device, err := ParseName(name)
	if err != nil {
		return nil, err
	}

	return PcmOpen(card, device, config)
}

// PcmOpen opens an ALSA playback device, configures it and prepares it for writing.
// Only direct hardware devices (e.g., /dev/snd/pcmC0D0p) are supported, the ALSA plugin layer is not.
func PcmOpen(card, device uint, config *Config) (*PCM, error) {
	if config == nil {
		return nil, fmt.Errorf("PCM config is nil")
	}

	path := devicePath(card, device)

	// Always open non-blocking to avoid getting stuck
	// if the device is in use, then switch to blocking I/O.
	file, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCM device %s: %w", path, err)
	}

	currentFlags, err := unix.FcntlInt(file.Fd(), unix.F_GETFL, 0)
	if err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("fcntl F_GETFL for %s failed: %w", path, err)
	}

	if _, err = unix.FcntlInt(file.Fd(), unix.F_SETFL, currentFlags&^syscall.O_NONBLOCK); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("failed to set blocking mode on %s: %w", path, err)
	}

	var info sndPcmInfo
	if err := ioctl(file.Fd(), SNDRV_PCM_IOCTL_INFO, uintptr(unsafe.Pointer(&info))); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("ioctl INFO failed: %w", err)
	}

	pcm := &PCM{
		file:      file,
		subdevice: info.Subdevice,
	}

	if err := pcm.setConfig(*config); err != nil {
		_ = pcm.Close()

		return nil, fmt.Errorf("failed to set PCM config: %w", err)
	}

	if err := pcm.Prepare(); err != nil {
		_ = pcm.Close()

		return nil, err
	}

	return pcm, nil
}

// IsReady checks if the PCM handle is valid.
func (p *PCM) IsReady() bool {
	return p != nil && p.file != nil
}

// Close releases the hardware parameters and closes the PCM device handle.
func (p *PCM) Close() error {
	if !p.IsReady() {
		return nil
	}

	// Fails with EBADFD when no parameters were installed.
	_ = ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_HW_FREE, 0)

	err := p.file.Close()
	p.bufferSize = 0
	p.file = nil

	return err
}

// Config returns the configuration refined by the driver.
func (p *PCM) Config() Config {
	return p.config
}

// BufferSize returns the PCM's total buffer size in frames.
func (p *PCM) BufferSize() uint32 {
	return p.bufferSize
}

// Subdevice returns the subdevice number of the PCM stream.
func (p *PCM) Subdevice() uint32 {
	return p.subdevice
}

// Xruns returns the number of buffer underruns that have occurred.
func (p *PCM) Xruns() int {
	return p.xruns
}

// FrameSize returns the size of a single frame in bytes.
func (p *PCM) FrameSize() uint32 {
	return p.config.Channels * (PcmFormatToBits(p.config.Format) / 8)
}

func (p *PCM) setConfig(config Config) error {
	p.config = config

	hwParams := &sndPcmHwParams{}
	paramInit(hwParams)

	paramSetMask(hwParams, SNDRV_PCM_HW_PARAM_ACCESS, SNDRV_PCM_ACCESS_RW_INTERLEAVED)
	paramSetMask(hwParams, SNDRV_PCM_HW_PARAM_FORMAT, uint32(config.Format))
	paramSetMin(hwParams, SNDRV_PCM_HW_PARAM_PERIOD_SIZE, config.PeriodSize)
	paramSetInt(hwParams, SNDRV_PCM_HW_PARAM_CHANNELS, config.Channels)
	paramSetInt(hwParams, SNDRV_PCM_HW_PARAM_PERIODS, config.PeriodCount)
	paramSetInt(hwParams, SNDRV_PCM_HW_PARAM_RATE, config.Rate)

	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_HW_PARAMS, uintptr(unsafe.Pointer(hwParams))); err != nil {
		return fmt.Errorf("ioctl HW_PARAMS failed: %w", err)
	}

	// Update our config with the refined parameters from the driver.
	p.config.PeriodSize = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_PERIOD_SIZE)
	p.config.PeriodCount = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_PERIODS)
	p.config.Channels = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_CHANNELS)
	p.config.Rate = paramGetInt(hwParams, SNDRV_PCM_HW_PARAM_RATE)
	p.bufferSize = p.config.PeriodSize * p.config.PeriodCount

	if p.config.Channels == 0 || p.config.Rate == 0 || p.config.PeriodSize == 0 || p.config.PeriodCount == 0 {
		return fmt.Errorf("driver finalized invalid PCM configuration (Channels=%d, Rate=%d, PeriodSize=%d, PeriodCount=%d)",
			p.config.Channels, p.config.Rate, p.config.PeriodSize, p.config.PeriodCount)
	}

	swParams := &sndPcmSwParams{}
	swParams.TstampMode = 1 // SNDRV_PCM_TSTAMP_ENABLE
	swParams.PeriodStep = 1
	swParams.AvailMin = sndPcmUframesT(p.config.PeriodSize)
	swParams.StartThreshold = sndPcmUframesT(p.bufferSize / 2)
	swParams.StopThreshold = sndPcmUframesT(p.bufferSize)
	swParams.XferAlign = sndPcmUframesT(p.config.PeriodSize / 2) // Needed for old kernels

	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_SW_PARAMS, uintptr(unsafe.Pointer(swParams))); err != nil {
		return fmt.Errorf("ioctl SW_PARAMS failed: %w", err)
	}

	return nil
}

// Prepare readies the PCM device for I/O operations.
// This is also used to recover from an XRUN.
func (p *PCM) Prepare() error {
	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_PREPARE, 0); err != nil {
		return fmt.Errorf("ioctl PREPARE failed: %w", err)
	}

	return nil
}

// Stop abruptly stops the PCM stream, dropping any pending frames.
func (p *PCM) Stop() error {
	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_DROP, 0); err != nil {
		return fmt.Errorf("ioctl DROP failed: %w", err)
	}

	return nil
}

// Drain waits for all pending frames in the buffer to be played.
// The stream has to be prepared again before the next write.
func (p *PCM) Drain() error {
	if !p.IsReady() {
		return fmt.Errorf("PCM handle is not valid")
	}

	if err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_DRAIN, 0); err != nil {
		return fmt.Errorf("ioctl DRAIN failed: %w", err)
	}

	return nil
}

// Write writes interleaved audio data to the device and returns the number of bytes written.
// Trailing bytes that do not form a whole frame are not written.
// An underrun is counted and recovered from by preparing the stream again.
func (p *PCM) Write(data []byte) (int, error) {
	if !p.IsReady() {
		return 0, fmt.Errorf("PCM handle is not valid")
	}

	frameSize := p.FrameSize()
	if frameSize == 0 {
		return 0, fmt.Errorf("invalid PCM frame size")
	}

	frames := uint32(len(data)) / frameSize
	if frames == 0 {
		return 0, nil
	}

	defer runtime.KeepAlive(data)

	framesWritten := uint32(0)
	for framesWritten < frames {
		xfer := sndXferi{
			Frames: sndPcmUframesT(frames - framesWritten),
			Buf:    uintptr(unsafe.Pointer(&data[framesWritten*frameSize])),
		}

		err := ioctl(p.file.Fd(), SNDRV_PCM_IOCTL_WRITEI_FRAMES, uintptr(unsafe.Pointer(&xfer)))

		if xfer.Result > 0 {
			framesWritten += uint32(xfer.Result)
		}

		if err != nil {
			if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ESTRPIPE) {
				p.xruns++

				if errRec := p.Prepare(); errRec != nil {
					return int(framesWritten * frameSize), fmt.Errorf("recovery failed: %w", errRec)
				}

				continue
			}

			if errors.Is(err, syscall.EINTR) {
				continue
			}

			return int(framesWritten * frameSize), fmt.Errorf("ioctl WRITEI_FRAMES failed: %w", err)
		}
	}

	return int(framesWritten * frameSize), nil
}
