package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"github.com/gen2brain/speaker"
	"github.com/gen2brain/speaker/wavstream"
)

// input is an opened audio source. Reader may declare its format.
type input struct {
	io.Reader
	// duration is zero when unknown.
	duration time.Duration
	close    func() error
}

// mp3Stream is decoded MP3 audio. go-mp3 always decodes to 16-bit
// little-endian stereo.
type mp3Stream struct {
	*mp3.Decoder
}

// DeclaredFormat implements speaker.FormatDeclarer.
func (m mp3Stream) DeclaredFormat() speaker.FormatSpec {
	return speaker.FormatSpecOf(speaker.Format{
		Channels:   2,
		BitDepth:   16,
		SampleRate: m.SampleRate(),
		Signed:     true,
		Endianness: speaker.LittleEndian,
	})
}

func (m mp3Stream) duration() time.Duration {
	frames := m.Length() / 4

	return time.Duration(frames) * time.Second / time.Duration(m.SampleRate())
}

// openInput opens path by its extension. "-" reads raw PCM from stdin.
func openInput(path string) (*input, error) {
	if path == "-" {
		return &input{Reader: os.Stdin, close: func() error { return nil }}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		decoder, err := mp3.NewDecoder(file)
		if err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("failed to decode MP3: %w", err)
		}

		s := mp3Stream{Decoder: decoder}

		return &input{Reader: s, duration: s.duration(), close: file.Close}, nil
	case ".raw", ".pcm":
		return &input{Reader: file, close: file.Close}, nil
	default:
		s, err := wavstream.Open(file)
		if err != nil {
			_ = file.Close()

			return nil, err
		}

		return &input{Reader: s, duration: s.Duration(), close: file.Close}, nil
	}
}
