package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gen2brain/speaker"
	"github.com/gen2brain/speaker/wavstream"
)

func main() {
	var help bool
	flag.BoolVar(&help, "help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <wav-file>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		fmt.Fprintln(os.Stderr, "  --help      Show this help message")
	}

	flag.Parse()

	if help || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	wavPath := flag.Arg(0)

	file, err := os.Open(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	s, err := wavstream.Open(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read WAV header: %v\n", err)
		os.Exit(1)
	}

	f := s.Format()

	fmt.Printf("Filename:           %s\n", wavPath)
	fmt.Printf("Channels:           %d\n", f.Channels)
	fmt.Printf("Sample Rate:        %d Hz\n", f.SampleRate)
	fmt.Printf("Bits Per Sample:    %d\n", f.BitDepth)

	// Format tag 1 is integer PCM, 3 is IEEE float.
	formatStr := "Integer PCM"
	if f.Float {
		formatStr = "IEEE Float"
	} else if !f.Signed {
		formatStr = "Unsigned Integer PCM"
	}

	fmt.Printf("Format:             %s (tag %#x)\n", formatStr, s.FormatTag())
	fmt.Printf("Duration:           %s\n", formatDuration(s.Duration()))
	fmt.Printf("Frames:             %d\n", s.Frames())

	enc, ok := speaker.GetFormat(f)
	if !ok {
		fmt.Println("Encoding:           none")

		return
	}

	fmt.Printf("Encoding:           %s\n", enc)

	fmt.Println("Supported by:")
	for _, name := range speaker.Backends() {
		b, err := speaker.Lookup(name)
		if err != nil {
			continue
		}

		fmt.Printf("  %-16s  %t\n", name+":", enc.SupportedBy(b.Formats()))
	}
}

// formatDuration formats a time.Duration into a more readable HH:MM:SS.ms format.
func formatDuration(d time.Duration) string {
	nanos := d.Nanoseconds() % 1e9
	millis := nanos / 1e6

	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
