package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gen2brain/speaker"
)

func main() {
	var (
		backend         string
		device          string
		channels        int
		rate            int
		bits            int
		float           bool
		unsigned        bool
		samplesPerFrame int
		verbose         bool
	)

	flag.StringVar(&backend, "backend", "", "The output backend (default from $SPEAKER_BACKEND or the first available)")
	flag.StringVar(&device, "device", "", "The backend specific output device, e.g. hw:1,0 for alsa")
	flag.IntVar(&channels, "channels", 0, "The amount of channels per frame of raw input")
	flag.IntVar(&rate, "rate", 0, "The amount of frames per second of raw input")
	flag.IntVar(&bits, "bits", 0, "The bits per sample of raw input")
	flag.BoolVar(&float, "float", false, "Raw samples are IEEE floats")
	flag.BoolVar(&unsigned, "unsigned", false, "Raw samples are unsigned integers")
	flag.IntVar(&samplesPerFrame, "samples-per-frame", 0, "The amount of frames per backend write")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <wav-file | mp3-file | raw-file | ->\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nA \"-\" reads raw PCM from stdin, described by the format options.")
		fmt.Fprintln(os.Stderr, "WAV and MP3 files declare their own format.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nBackends: %v\n", speaker.Backends())
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	config := speaker.Config{
		Channels:        channels,
		BitDepth:        bits,
		SampleRate:      rate,
		SamplesPerFrame: samplesPerFrame,
		Device:          device,
		OnEvent: func(e speaker.Event) {
			if e.Type == speaker.EventError {
				fmt.Fprintf(os.Stderr, "Speaker error: %v\n", e.Err)
			}
		},
	}

	if float {
		config.Float = speaker.Bool(true)
	}

	if unsigned {
		config.Signed = speaker.Bool(false)
	}

	if backend != "" {
		b, err := speaker.Lookup(backend)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error selecting backend: %v\n", err)
			os.Exit(1)
		}
		config.Backend = b
	}

	in, err := openInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening input: %v\n", err)
		os.Exit(1)
	}
	defer in.close()

	spk, err := speaker.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating speaker: %v\n", err)
		os.Exit(1)
	}

	spk.Subscribe(func(e speaker.Event) {
		if e.Type == speaker.EventOpen {
			fmt.Printf("Playing on %s: %s (%s, %d bytes per write)\n",
				spk.Backend().Info().Name, spk.Format(), spk.Encoding(), spk.ChunkSize())
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if in.duration > 0 {
		fmt.Printf("Duration: %s\n", in.duration.Round(time.Millisecond))
	}

	startTime := time.Now()

	err = spk.Play(ctx, in.Reader)
	if errors.Is(err, context.Canceled) {
		fmt.Println("Playback interrupted.")

		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during playback: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Playback finished in %v.\n", time.Since(startTime).Round(time.Millisecond))
}
