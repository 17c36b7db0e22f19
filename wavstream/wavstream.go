// Package wavstream exposes the sample data of a WAV file as a reader that
// declares its PCM format to a speaker.
//
//	f, _ := os.Open("song.wav")
//	s, _ := wavstream.Open(f)
//	err := spk.Play(ctx, s)
package wavstream

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"

	"github.com/gen2brain/speaker"
)

// WAV format tags.
const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xfffe
)

// ErrInvalidFile is returned when the input is not a RIFF/WAVE file.
var ErrInvalidFile = errors.New("invalid WAV file")

// Stream reads the data chunk of a WAV file.
type Stream struct {
	r       io.Reader
	format  speaker.Format
	dataLen int64
	tag     uint16
}

// Open parses the header of rs and positions it at the start of the sample data.
func Open(rs io.ReadSeeker) (*Stream, error) {
	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidFile
	}

	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find data chunk: %w", err)
	}

	tag := decoder.WavAudioFormat
	if tag != formatPCM && tag != formatFloat && tag != formatExtensible {
		return nil, fmt.Errorf("unsupported WAV format tag %#x", tag)
	}

	bitDepth := int(decoder.BitDepth)
	isFloat := tag == formatFloat

	format := speaker.Format{
		Channels:   int(decoder.NumChans),
		BitDepth:   bitDepth,
		SampleRate: int(decoder.SampleRate),
		// WAV stores 8-bit samples unsigned.
		Signed:     isFloat || bitDepth > 8,
		Float:      isFloat,
		Endianness: speaker.LittleEndian,
	}

	if format.Channels == 0 || format.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, format)
	}

	if _, ok := speaker.GetFormat(format); !ok {
		return nil, fmt.Errorf("unsupported WAV sample layout: %s", format)
	}

	dataLen := decoder.PCMLen()

	return &Stream{
		r:       io.LimitReader(rs, dataLen),
		format:  format,
		dataLen: dataLen,
		tag:     tag,
	}, nil
}

// Read reads sample data, returning io.EOF at the end of the data chunk.
func (s *Stream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Format returns the PCM layout of the file.
func (s *Stream) Format() speaker.Format {
	return s.format
}

// DeclaredFormat implements speaker.FormatDeclarer.
func (s *Stream) DeclaredFormat() speaker.FormatSpec {
	return speaker.FormatSpecOf(s.format)
}

// FormatTag returns the WAV format tag, 1 for integer PCM and 3 for IEEE float.
func (s *Stream) FormatTag() uint16 {
	return s.tag
}

// DataLen returns the size of the sample data in bytes.
func (s *Stream) DataLen() int64 {
	return s.dataLen
}

// Frames returns the number of frames in the file.
func (s *Stream) Frames() int64 {
	align := s.format.BlockAlign()
	if align == 0 {
		return 0
	}

	return s.dataLen / int64(align)
}

// Duration returns the playing time of the file.
func (s *Stream) Duration() time.Duration {
	return time.Duration(s.Frames()) * time.Second / time.Duration(s.format.SampleRate)
}
