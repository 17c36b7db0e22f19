package main

import (
	"fmt"

	"github.com/gen2brain/speaker/output/alsa"
)

func listCards() error {
	cards, err := alsa.EnumerateCards()
	if err != nil {
		return err
	}

	fmt.Println()
	for _, c := range cards {
		fmt.Print(c)
	}

	fmt.Printf("Default device: %s\n", alsa.DefaultDevice())

	return nil
}

func dumpParams(card, device uint) error {
	params, err := alsa.PcmParamsGetRefined(card, device)
	if err != nil {
		return err
	}

	fmt.Println(params)

	return nil
}
