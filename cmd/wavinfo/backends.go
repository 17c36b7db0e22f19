package main

import (
	_ "github.com/gen2brain/speaker/output/oto"
	_ "github.com/gen2brain/speaker/output/portaudio"
	_ "github.com/gen2brain/speaker/output/pulse"
)
