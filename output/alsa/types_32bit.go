//go:build linux && (386 || arm)

package alsa

// sndPcmUframesT is an unsigned long in the ALSA headers.
type sndPcmUframesT = uint32

// sndPcmSwParams contains software parameters for a PCM device.
type sndPcmSwParams struct {
	TstampMode       uint32
	PeriodStep       uint32
	SleepMin         uint32
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
