package speaker

import (
	"encoding/binary"
	"fmt"
)

// Endianness is the byte order of multi-byte samples.
type Endianness int

const (
	// NativeEndian is the host byte order. It is the only order a backend accepts.
	NativeEndian Endianness = iota
	// LittleEndian requests little-endian samples.
	LittleEndian
	// BigEndian requests big-endian samples.
	BigEndian
)

// String returns the name of the byte order.
func (e Endianness) String() string {
	switch e {
	case NativeEndian:
		return "native"
	case LittleEndian:
		return "LE"
	case BigEndian:
		return "BE"
	default:
		return fmt.Sprintf("Endianness(%d)", int(e))
	}
}

// HostEndianness returns LittleEndian or BigEndian depending on the host CPU.
func HostEndianness() Endianness {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return LittleEndian
	}

	return BigEndian
}

// IsNative reports whether e equals the host byte order.
func (e Endianness) IsNative() bool {
	return e == NativeEndian || e == HostEndianness()
}

// Encoding is a backend sample encoding code.
// The values match the MPG123_ENC_* constants of the out123 output modules.
type Encoding int

const (
	EncodingUnsigned8  Encoding = 0x01
	EncodingSigned8    Encoding = 0x82
	EncodingSigned16   Encoding = 0xd0
	EncodingUnsigned16 Encoding = 0x60
	EncodingSigned24   Encoding = 0x5080
	EncodingUnsigned24 Encoding = 0x6000
	EncodingSigned32   Encoding = 0x1180
	EncodingUnsigned32 Encoding = 0x2100
	EncodingFloat32    Encoding = 0x200
	EncodingFloat64    Encoding = 0x400
)

// Encodings lists every encoding a Format can map to.
var Encodings = []Encoding{
	EncodingSigned8,
	EncodingUnsigned8,
	EncodingSigned16,
	EncodingUnsigned16,
	EncodingSigned24,
	EncodingUnsigned24,
	EncodingSigned32,
	EncodingUnsigned32,
	EncodingFloat32,
	EncodingFloat64,
}

// EncodingNames provides human-readable names for encodings.
var EncodingNames = map[Encoding]string{
	EncodingSigned8:    "S8",
	EncodingUnsigned8:  "U8",
	EncodingSigned16:   "S16",
	EncodingUnsigned16: "U16",
	EncodingSigned24:   "S24",
	EncodingUnsigned24: "U24",
	EncodingSigned32:   "S32",
	EncodingUnsigned32: "U32",
	EncodingFloat32:    "F32",
	EncodingFloat64:    "F64",
}

// String returns the short name of the encoding.
func (e Encoding) String() string {
	if name, ok := EncodingNames[e]; ok {
		return name
	}

	return fmt.Sprintf("Encoding(%#x)", int(e))
}

// SupportedBy reports whether every bit of e is set in mask.
func (e Encoding) SupportedBy(mask Encoding) bool {
	return e != 0 && mask&e == e
}

// EncodingMask combines encodings into a capability bitmask.
func EncodingMask(encodings ...Encoding) Encoding {
	var mask Encoding
	for _, e := range encodings {
		mask |= e
	}

	return mask
}

// BytesPerSample returns the container size of one sample in bytes.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingSigned8, EncodingUnsigned8:
		return 1
	case EncodingSigned16, EncodingUnsigned16:
		return 2
	case EncodingSigned24, EncodingUnsigned24:
		return 3
	case EncodingSigned32, EncodingUnsigned32, EncodingFloat32:
		return 4
	case EncodingFloat64:
		return 8
	default:
		return 0
	}
}

// Format describes a concrete PCM layout.
type Format struct {
	Channels   int
	BitDepth   int
	SampleRate int
	Signed     bool
	Float      bool
	Endianness Endianness
}

// BlockAlign returns the size of one frame in bytes.
func (f Format) BlockAlign() int {
	return f.BitDepth / 8 * f.Channels
}

// String returns a human-readable representation of the format.
func (f Format) String() string {
	kind := "int"
	if f.Float {
		kind = "float"
	} else if !f.Signed {
		kind = "uint"
	}

	return fmt.Sprintf("%d Hz, %d channels, %d-bit %s, %s", f.SampleRate, f.Channels, f.BitDepth, kind, f.Endianness)
}

// GetFormat returns the encoding that corresponds to f.
// The second return value is false when no encoding matches the
// (bitDepth, float, signed) combination.
func GetFormat(f Format) (Encoding, bool) {
	if f.Float {
		if !f.Signed {
			return 0, false
		}

		switch f.BitDepth {
		case 32:
			return EncodingFloat32, true
		case 64:
			return EncodingFloat64, true
		}

		return 0, false
	}

	switch {
	case f.BitDepth == 8 && f.Signed:
		return EncodingSigned8, true
	case f.BitDepth == 8:
		return EncodingUnsigned8, true
	case f.BitDepth == 16 && f.Signed:
		return EncodingSigned16, true
	case f.BitDepth == 16:
		return EncodingUnsigned16, true
	case f.BitDepth == 24 && f.Signed:
		return EncodingSigned24, true
	case f.BitDepth == 24:
		return EncodingUnsigned24, true
	case f.BitDepth == 32 && f.Signed:
		return EncodingSigned32, true
	case f.BitDepth == 32:
		return EncodingUnsigned32, true
	}

	return 0, false
}

// IsSupported reports whether the default backend can play enc.
// It returns false when no backend is registered.
func IsSupported(enc Encoding) bool {
	b, err := DefaultBackend()
	if err != nil {
		return false
	}

	return enc.SupportedBy(b.Formats())
}

// FormatSpec is a partially specified format. Nil fields are left untouched
// when the spec is merged.
type FormatSpec struct {
	Channels        *int
	BitDepth        *int
	SampleRate      *int
	Signed          *bool
	Float           *bool
	Endianness      *Endianness
	SamplesPerFrame *int
	Device          *string
}

// FormatSpecOf returns a fully specified FormatSpec for f.
func FormatSpecOf(f Format) FormatSpec {
	return FormatSpec{
		Channels:   Int(f.Channels),
		BitDepth:   Int(f.BitDepth),
		SampleRate: Int(f.SampleRate),
		Signed:     Bool(f.Signed),
		Float:      Bool(f.Float),
		Endianness: &f.Endianness,
	}
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// formatState holds the merged, possibly incomplete, format attributes of a sink.
type formatState struct {
	channels        *int
	bitDepth        *int
	sampleRate      *int
	signed          *bool
	float           *bool
	samplesPerFrame *int
	device          *string
}

// merge applies the specified fields of spec over s. Fields spec leaves nil
// keep their current value. A non-native endianness is rejected with
// ErrUnsupportedEndianness, the other fields still apply.
func (s *formatState) merge(spec FormatSpec) error {
	if spec.Channels != nil {
		s.channels = Int(*spec.Channels)
	}
	if spec.BitDepth != nil {
		s.bitDepth = Int(*spec.BitDepth)
	}
	if spec.SampleRate != nil {
		s.sampleRate = Int(*spec.SampleRate)
	}
	if spec.Float != nil {
		s.float = Bool(*spec.Float)
	}
	if spec.Signed != nil {
		s.signed = Bool(*spec.Signed)
	}
	if spec.SamplesPerFrame != nil {
		s.samplesPerFrame = Int(*spec.SamplesPerFrame)
	}
	if spec.Device != nil {
		s.device = String(*spec.Device)
	}

	if spec.Endianness != nil && !spec.Endianness.IsNative() {
		return fmt.Errorf("%w: %s requested, host is %s", ErrUnsupportedEndianness, *spec.Endianness, HostEndianness())
	}

	return nil
}

// resolve fills in defaults and returns the concrete format together with
// the number of frames per backend write.
func (s *formatState) resolve() (Format, int) {
	f := Format{
		Channels:   DefaultChannels,
		SampleRate: DefaultSampleRate,
		Endianness: NativeEndian,
	}

	if s.float != nil {
		f.Float = *s.float
	}
	if s.channels != nil {
		f.Channels = *s.channels
	}
	if s.sampleRate != nil {
		f.SampleRate = *s.sampleRate
	}

	switch {
	case s.bitDepth != nil:
		f.BitDepth = *s.bitDepth
	case f.Float:
		f.BitDepth = 32
	default:
		f.BitDepth = DefaultBitDepth
	}

	if s.signed != nil {
		f.Signed = *s.signed
	} else {
		f.Signed = f.BitDepth != 8
	}

	frames := DefaultSamplesPerFrame
	if s.samplesPerFrame != nil && *s.samplesPerFrame > 0 {
		frames = *s.samplesPerFrame
	}

	return f, frames
}
