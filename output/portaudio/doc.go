// Package portaudio plays speaker output through the PortAudio C library.
//
// PortAudio needs cgo and the library headers, so the backend is only built
// with the "portaudio" build tag:
//
//	go build -tags portaudio ./...
//
// Without the tag the package is empty and registers nothing. With it,
// importing the package registers the "portaudio" backend.
package portaudio
