//go:build linux

package alsa

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"syscall"
	"unsafe"
)

// PcmParam identifies a hardware parameter for a PCM device.
// These values correspond to the SNDRV_PCM_HW_PARAM_* constants.
type PcmParam int

const (
	SNDRV_PCM_HW_PARAM_ACCESS      PcmParam = 0
	SNDRV_PCM_HW_PARAM_FORMAT      PcmParam = 1
	SNDRV_PCM_HW_PARAM_SUBFORMAT   PcmParam = 2
	SNDRV_PCM_HW_PARAM_SAMPLE_BITS PcmParam = 8
	SNDRV_PCM_HW_PARAM_FRAME_BITS  PcmParam = 9
	SNDRV_PCM_HW_PARAM_CHANNELS    PcmParam = 10
	SNDRV_PCM_HW_PARAM_RATE        PcmParam = 11
	SNDRV_PCM_HW_PARAM_PERIOD_TIME PcmParam = 12
	SNDRV_PCM_HW_PARAM_PERIOD_SIZE PcmParam = 13
	SNDRV_PCM_HW_PARAM_PERIODS     PcmParam = 15
	SNDRV_PCM_HW_PARAM_TICK_TIME   PcmParam = 19
)

const (
	SNDRV_PCM_ACCESS_RW_INTERLEAVED = 3

	SNDRV_PCM_INTERVAL_INTEGER = 1 << 2
)

// PcmParamMask represents a bitmask for a PCM hardware parameter.
type PcmParamMask struct {
	bits [8]uint32
}

// Test checks if a specific bit in the mask is set.
func (m *PcmParamMask) Test(bit uint) bool {
	if bit >= 256 { // SNDRV_MASK_MAX
		return false
	}

	return m.bits[bit>>5]&(1<<(bit&31)) != 0
}

// PcmParams holds the hardware capabilities of a PCM device.
type PcmParams struct {
	params *sndPcmHwParams
}

// PcmParamsGetRefined queries the full range of hardware capabilities of a playback device.
// The parameters are initialized to allow everything and then restricted by the
// SNDRV_PCM_IOCTL_HW_REFINE ioctl to what the hardware supports.
func PcmParamsGetRefined(card, device uint) (*PcmParams, error) {
	path := devicePath(card, device)

	// Use O_NONBLOCK on open to avoid getting stuck
	file, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCM device %s for query: %w", path, err)
	}
	defer file.Close()

	hwParams := &sndPcmHwParams{}
	paramInit(hwParams)

	if err := ioctl(file.Fd(), SNDRV_PCM_IOCTL_HW_REFINE, uintptr(unsafe.Pointer(hwParams))); err != nil {
		return nil, fmt.Errorf("ioctl HW_REFINE failed: %w", err)
	}

	return &PcmParams{params: hwParams}, nil
}

// RangeMin returns the minimum value for an interval parameter.
func (pp *PcmParams) RangeMin(param PcmParam) (uint32, error) {
	iv, err := pp.interval(param)
	if err != nil {
		return 0, err
	}

	return iv.MinVal, nil
}

// RangeMax returns the maximum value for an interval parameter.
func (pp *PcmParams) RangeMax(param PcmParam) (uint32, error) {
	iv, err := pp.interval(param)
	if err != nil {
		return 0, err
	}

	return iv.MaxVal, nil
}

func (pp *PcmParams) interval(param PcmParam) (*sndInterval, error) {
	if pp == nil || pp.params == nil {
		return nil, fmt.Errorf("params not initialized")
	}

	if param < SNDRV_PCM_HW_PARAM_SAMPLE_BITS || param > SNDRV_PCM_HW_PARAM_TICK_TIME {
		return nil, fmt.Errorf("parameter %v is not an interval type", param)
	}

	return &pp.params.Intervals[param-SNDRV_PCM_HW_PARAM_SAMPLE_BITS], nil
}

// Mask returns the bitmask for a mask-type parameter.
func (pp *PcmParams) Mask(param PcmParam) (*PcmParamMask, error) {
	if pp == nil || pp.params == nil {
		return nil, fmt.Errorf("params not initialized")
	}

	if param < SNDRV_PCM_HW_PARAM_ACCESS || param > SNDRV_PCM_HW_PARAM_SUBFORMAT {
		return nil, fmt.Errorf("parameter %v is not a mask type", param)
	}

	return (*PcmParamMask)(unsafe.Pointer(&pp.params.Masks[param-SNDRV_PCM_HW_PARAM_ACCESS])), nil
}

// FormatIsSupported checks if a given PCM format is supported.
func (pp *PcmParams) FormatIsSupported(format PcmFormat) bool {
	if format < 0 {
		return false
	}

	mask, err := pp.Mask(SNDRV_PCM_HW_PARAM_FORMAT)
	if err != nil {
		return false
	}

	return mask.Test(uint(format))
}

// String returns a human-readable representation of the PCM device's capabilities.
func (pp *PcmParams) String() string {
	if pp == nil || pp.params == nil {
		return "<nil>"
	}

	var b strings.Builder

	b.WriteString("PCM device capabilities:\n")

	formats := make([]PcmFormat, 0, len(PcmParamFormatNames))
	for f := range PcmParamFormatNames {
		if pp.FormatIsSupported(f) {
			formats = append(formats, f)
		}
	}

	slices.Sort(formats)

	if len(formats) > 0 {
		names := make([]string, 0, len(formats))
		for _, f := range formats {
			names = append(names, f.String())
		}

		b.WriteString(fmt.Sprintf("%12s: %s\n", "Format", strings.Join(names, ", ")))
	}

	printInterval := func(name string, param PcmParam, unit string) {
		rangeMin, errMin := pp.RangeMin(param)
		rangeMax, errMax := pp.RangeMax(param)

		if errMin != nil || errMax != nil {
			return
		}

		if rangeMax == 0 || rangeMax == ^uint32(0) { // Don't print meaningless ranges
			return
		}

		b.WriteString(fmt.Sprintf("%12s: min=%-6d max=%-6d %s\n", name, rangeMin, rangeMax, unit))
	}

	printInterval("Rate", SNDRV_PCM_HW_PARAM_RATE, "Hz")
	printInterval("Channels", SNDRV_PCM_HW_PARAM_CHANNELS, "")
	printInterval("Sample bits", SNDRV_PCM_HW_PARAM_SAMPLE_BITS, "")
	printInterval("Period size", SNDRV_PCM_HW_PARAM_PERIOD_SIZE, "frames")
	printInterval("Periods", SNDRV_PCM_HW_PARAM_PERIODS, "")

	return b.String()
}

// paramInit initializes a sndPcmHwParams struct to allow all possible values.
func paramInit(p *sndPcmHwParams) {
	for n := range p.Masks {
		for i := range p.Masks[n].Bits {
			p.Masks[n].Bits[i] = ^uint32(0)
		}
	}

	for n := range p.Mres {
		for i := range p.Mres[n].Bits {
			p.Mres[n].Bits[i] = ^uint32(0)
		}
	}

	for n := range p.Intervals {
		p.Intervals[n] = sndInterval{MaxVal: ^uint32(0)}
	}

	for n := range p.Ires {
		p.Ires[n] = sndInterval{MaxVal: ^uint32(0)}
	}

	p.Rmask = ^uint32(0)
	p.Info = ^uint32(0)
}

func paramSetMask(p *sndPcmHwParams, param PcmParam, bit uint32) {
	if param < SNDRV_PCM_HW_PARAM_ACCESS || param > SNDRV_PCM_HW_PARAM_SUBFORMAT {
		return
	}

	mask := &p.Masks[param-SNDRV_PCM_HW_PARAM_ACCESS]
	for i := range mask.Bits {
		mask.Bits[i] = 0
	}

	if bit >= 256 { // SNDRV_MASK_MAX
		return
	}

	mask.Bits[bit>>5] |= 1 << (bit & 31)
}

func paramSetInt(p *sndPcmHwParams, param PcmParam, val uint32) {
	if param < SNDRV_PCM_HW_PARAM_SAMPLE_BITS || param > SNDRV_PCM_HW_PARAM_TICK_TIME {
		return
	}

	interval := &p.Intervals[param-SNDRV_PCM_HW_PARAM_SAMPLE_BITS]
	interval.MinVal = val
	interval.MaxVal = val
	interval.Flags = SNDRV_PCM_INTERVAL_INTEGER
}

func paramSetMin(p *sndPcmHwParams, param PcmParam, val uint32) {
	if param < SNDRV_PCM_HW_PARAM_SAMPLE_BITS || param > SNDRV_PCM_HW_PARAM_TICK_TIME {
		return
	}

	p.Intervals[param-SNDRV_PCM_HW_PARAM_SAMPLE_BITS].MinVal = val
}

// paramGetInt reads the value the driver narrowed an interval to.
func paramGetInt(p *sndPcmHwParams, param PcmParam) uint32 {
	if param < SNDRV_PCM_HW_PARAM_SAMPLE_BITS || param > SNDRV_PCM_HW_PARAM_TICK_TIME {
		return 0
	}

	return p.Intervals[param-SNDRV_PCM_HW_PARAM_SAMPLE_BITS].MinVal
}
