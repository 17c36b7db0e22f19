//go:build linux

package alsa

import (
	"github.com/gen2brain/speaker"
)

// PcmFormat defines the sample format for a PCM stream.
// These values correspond to the SNDRV_PCM_FORMAT_* constants in the ALSA kernel headers.
type PcmFormat int32

const (
	SNDRV_PCM_FORMAT_INVALID    PcmFormat = -1
	SNDRV_PCM_FORMAT_S8         PcmFormat = 0
	SNDRV_PCM_FORMAT_U8         PcmFormat = 1
	SNDRV_PCM_FORMAT_S16_LE     PcmFormat = 2
	SNDRV_PCM_FORMAT_S16_BE     PcmFormat = 3
	SNDRV_PCM_FORMAT_U16_LE     PcmFormat = 4
	SNDRV_PCM_FORMAT_U16_BE     PcmFormat = 5
	SNDRV_PCM_FORMAT_S32_LE     PcmFormat = 10
	SNDRV_PCM_FORMAT_S32_BE     PcmFormat = 11
	SNDRV_PCM_FORMAT_U32_LE     PcmFormat = 12
	SNDRV_PCM_FORMAT_U32_BE     PcmFormat = 13
	SNDRV_PCM_FORMAT_FLOAT_LE   PcmFormat = 14
	SNDRV_PCM_FORMAT_FLOAT_BE   PcmFormat = 15
	SNDRV_PCM_FORMAT_FLOAT64_LE PcmFormat = 16
	SNDRV_PCM_FORMAT_FLOAT64_BE PcmFormat = 17
	SNDRV_PCM_FORMAT_S24_3LE    PcmFormat = 32
	SNDRV_PCM_FORMAT_S24_3BE    PcmFormat = 33
	SNDRV_PCM_FORMAT_U24_3LE    PcmFormat = 34
	SNDRV_PCM_FORMAT_U24_3BE    PcmFormat = 35
)

// PcmParamFormatNames provides human-readable names for PCM formats.
var PcmParamFormatNames = map[PcmFormat]string{
	SNDRV_PCM_FORMAT_S8:         "S8",
	SNDRV_PCM_FORMAT_U8:         "U8",
	SNDRV_PCM_FORMAT_S16_LE:     "S16_LE",
	SNDRV_PCM_FORMAT_S16_BE:     "S16_BE",
	SNDRV_PCM_FORMAT_U16_LE:     "U16_LE",
	SNDRV_PCM_FORMAT_U16_BE:     "U16_BE",
	SNDRV_PCM_FORMAT_S32_LE:     "S32_LE",
	SNDRV_PCM_FORMAT_S32_BE:     "S32_BE",
	SNDRV_PCM_FORMAT_U32_LE:     "U32_LE",
	SNDRV_PCM_FORMAT_U32_BE:     "U32_BE",
	SNDRV_PCM_FORMAT_FLOAT_LE:   "FLOAT_LE",
	SNDRV_PCM_FORMAT_FLOAT_BE:   "FLOAT_BE",
	SNDRV_PCM_FORMAT_FLOAT64_LE: "FLOAT64_LE",
	SNDRV_PCM_FORMAT_FLOAT64_BE: "FLOAT64_BE",
	SNDRV_PCM_FORMAT_S24_3LE:    "S24_3LE",
	SNDRV_PCM_FORMAT_S24_3BE:    "S24_3BE",
	SNDRV_PCM_FORMAT_U24_3LE:    "U24_3LE",
	SNDRV_PCM_FORMAT_U24_3BE:    "U24_3BE",
}

// String returns the ALSA name of the format.
func (f PcmFormat) String() string {
	if name, ok := PcmParamFormatNames[f]; ok {
		return name
	}

	return "INVALID"
}

// PcmFormatToBits returns the number of bits per sample for a given format.
// This reflects the space occupied in memory.
func PcmFormatToBits(f PcmFormat) uint32 {
	switch f {
	case SNDRV_PCM_FORMAT_FLOAT64_LE, SNDRV_PCM_FORMAT_FLOAT64_BE:
		return 64
	case SNDRV_PCM_FORMAT_S32_LE, SNDRV_PCM_FORMAT_S32_BE, SNDRV_PCM_FORMAT_U32_LE, SNDRV_PCM_FORMAT_U32_BE,
		SNDRV_PCM_FORMAT_FLOAT_LE, SNDRV_PCM_FORMAT_FLOAT_BE:
		return 32
	case SNDRV_PCM_FORMAT_S24_3LE, SNDRV_PCM_FORMAT_S24_3BE, SNDRV_PCM_FORMAT_U24_3LE, SNDRV_PCM_FORMAT_U24_3BE:
		return 24
	case SNDRV_PCM_FORMAT_S16_LE, SNDRV_PCM_FORMAT_S16_BE, SNDRV_PCM_FORMAT_U16_LE, SNDRV_PCM_FORMAT_U16_BE:
		return 16
	case SNDRV_PCM_FORMAT_S8, SNDRV_PCM_FORMAT_U8:
		return 8
	default:
		return 0
	}
}

// formatPairs maps an encoding to its little- and big-endian ALSA formats.
// 24-bit samples are packed in 3 bytes.
var formatPairs = map[speaker.Encoding][2]PcmFormat{
	speaker.EncodingSigned8:    {SNDRV_PCM_FORMAT_S8, SNDRV_PCM_FORMAT_S8},
	speaker.EncodingUnsigned8:  {SNDRV_PCM_FORMAT_U8, SNDRV_PCM_FORMAT_U8},
	speaker.EncodingSigned16:   {SNDRV_PCM_FORMAT_S16_LE, SNDRV_PCM_FORMAT_S16_BE},
	speaker.EncodingUnsigned16: {SNDRV_PCM_FORMAT_U16_LE, SNDRV_PCM_FORMAT_U16_BE},
	speaker.EncodingSigned24:   {SNDRV_PCM_FORMAT_S24_3LE, SNDRV_PCM_FORMAT_S24_3BE},
	speaker.EncodingUnsigned24: {SNDRV_PCM_FORMAT_U24_3LE, SNDRV_PCM_FORMAT_U24_3BE},
	speaker.EncodingSigned32:   {SNDRV_PCM_FORMAT_S32_LE, SNDRV_PCM_FORMAT_S32_BE},
	speaker.EncodingUnsigned32: {SNDRV_PCM_FORMAT_U32_LE, SNDRV_PCM_FORMAT_U32_BE},
	speaker.EncodingFloat32:    {SNDRV_PCM_FORMAT_FLOAT_LE, SNDRV_PCM_FORMAT_FLOAT_BE},
	speaker.EncodingFloat64:    {SNDRV_PCM_FORMAT_FLOAT64_LE, SNDRV_PCM_FORMAT_FLOAT64_BE},
}

// NativeFormat returns the host byte order ALSA format for enc.
func NativeFormat(enc speaker.Encoding) PcmFormat {
	pair, ok := formatPairs[enc]
	if !ok {
		return SNDRV_PCM_FORMAT_INVALID
	}

	if speaker.HostEndianness() == speaker.BigEndian {
		return pair[1]
	}

	return pair[0]
}
