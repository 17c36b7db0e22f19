//go:build !linux

package main

import "errors"

var errNoALSA = errors.New("ALSA is only available on Linux")

func listCards() error {
	return errNoALSA
}

func dumpParams(_, _ uint) error {
	return errNoALSA
}
