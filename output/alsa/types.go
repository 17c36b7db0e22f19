//go:build linux

package alsa

// sndMask is a bitmask for hardware parameters.
type sndMask struct {
	Bits [8]uint32
}

// sndInterval represents a range of values for a hardware parameter.
type sndInterval struct {
	MinVal uint32
	MaxVal uint32
	Flags  uint32
}

// sndPcmInfo contains general information about a PCM device.
type sndPcmInfo struct {
	Device          uint32
	Subdevice       uint32
	Stream          int32
	Card            int32
	Id              [64]byte
	Name            [80]byte
	Subname         [32]byte
	DevClass        int32
	DevSubclass     int32
	SubdevicesCount uint32
	SubdevicesAvail uint32
	Sync            [16]byte // snd_sync_id_t
	Reserved        [64]byte
}

// sndXferi is for interleaved read/write operations.
type sndXferi struct {
	Result int     // ssize_t
	Buf    uintptr // void*
	Frames sndPcmUframesT
}

// sndPcmHwParams contains hardware parameters for a PCM device.
type sndPcmHwParams struct {
	Flags     uint32
	Masks     [3]sndMask
	Mres      [5]sndMask // reserved
	Intervals [12]sndInterval
	Ires      [9]sndInterval // reserved
	Rmask     uint32
	Cmask     uint32
	Info      uint32
	Msbits    uint32
	RateNum   uint32
	RateDen   uint32
	FifoSize  sndPcmUframesT
	Reserved  [64]byte
}
