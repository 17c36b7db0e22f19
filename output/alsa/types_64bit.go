//go:build linux && (amd64 || arm64 || riscv64 || ppc64le || loong64)

package alsa

// sndPcmUframesT is an unsigned long in the ALSA headers.
type sndPcmUframesT = uint64

// sndPcmSwParams contains software parameters for a PCM device.
// SleepMin is followed by 4 bytes of padding to align the 64-bit fields.
type sndPcmSwParams struct {
	TstampMode       uint32
	PeriodStep       uint32
	SleepMin         uint32
	_                [4]byte
	AvailMin         sndPcmUframesT
	XferAlign        sndPcmUframesT
	StartThreshold   sndPcmUframesT
	StopThreshold    sndPcmUframesT
	SilenceThreshold sndPcmUframesT
	SilenceSize      sndPcmUframesT
	Boundary         sndPcmUframesT
	Proto            uint32
	TstampType       uint32
	Reserved         [56]byte
}
