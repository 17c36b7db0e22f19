package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/speaker"
)

func main() {
	var (
		card   int
		device int
		cards  bool
	)

	flag.IntVar(&card, "card", -1, "Dump the ALSA hardware parameters of this card")
	flag.IntVar(&device, "device", 0, "The ALSA device number used with -card")
	flag.BoolVar(&cards, "cards", false, "List the ALSA sound cards")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Displays the output backends and the encodings they can play.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	def, err := speaker.DefaultBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, name := range speaker.Backends() {
		b, err := speaker.Lookup(name)
		if err != nil {
			continue
		}

		marker := " "
		if b == def {
			marker = "*"
		}

		info := b.Info()
		fmt.Printf("%s %-10s %s\n", marker, info.Name, info.Description)
		fmt.Printf("  %-10s %s\n", "", encodings(b.Formats()))
	}

	if cards {
		if err := listCards(); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing cards: %v\n", err)
			os.Exit(1)
		}
	}

	if card >= 0 {
		fmt.Printf("\nPCM card %d, device %d, stream playback:\n", card, device)

		if err := dumpParams(uint(card), uint(device)); err != nil {
			fmt.Fprintf(os.Stderr, "Error getting PCM parameters: %v\n", err)
			os.Exit(1)
		}
	}
}

// encodings lists the names of the encodings in mask.
func encodings(mask speaker.Encoding) string {
	var names []string
	for _, enc := range speaker.Encodings {
		if enc.SupportedBy(mask) {
			names = append(names, enc.String())
		}
	}

	if len(names) == 0 {
		return "(none)"
	}

	return strings.Join(names, " ")
}
