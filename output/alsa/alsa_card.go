//go:build linux

package alsa

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SoundCardDevice represents a single playback PCM device on a sound card.
type SoundCardDevice struct {
	ID          int
	Name        string
	Description string
}

// String returns a human-readable representation of the SoundCardDevice.
func (d SoundCardDevice) String() string {
	return fmt.Sprintf("  Device %d: %s (%s)", d.ID, d.Name, d.Description)
}

// SoundCard represents an enumerated sound card with its playback devices.
type SoundCard struct {
	ID          int
	Name        string
	Description string
	Devices     []SoundCardDevice
}

// String returns a human-readable representation of the SoundCard.
func (c SoundCard) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Card %d: %s (%s)\n", c.ID, c.Name, c.Description))
	for _, dev := range c.Devices {
		sb.WriteString(dev.String() + "\n")
	}

	return sb.String()
}

// HwName returns the "hw:C,D" name of a device of the card.
func (c SoundCard) HwName(d SoundCardDevice) string {
	return fmt.Sprintf("hw:%d,%d", c.ID, d.ID)
}

var (
	cardRegex = regexp.MustCompile(`^\s*(\d+)\s+\[\s*([^]]*?)\s*\]:\s*(.*)`)
	// Matches lines like "02-00: Loopback PCM : Loopback PCM : playback 8 : capture 8"
	pcmRegex = regexp.MustCompile(`^(\d+)-(\d+): (.*?) :.*`)
)

// EnumerateCards scans /proc/asound to find all sound cards and their playback devices.
func EnumerateCards() ([]SoundCard, error) {
	cardsContent, err := os.ReadFile("/proc/asound/cards")
	if err != nil {
		return nil, fmt.Errorf("could not read /proc/asound/cards: %w", err)
	}

	pcmContent, err := os.ReadFile("/proc/asound/pcm")
	if err != nil {
		return nil, fmt.Errorf("could not read /proc/asound/pcm: %w", err)
	}

	return parseCards(string(cardsContent), string(pcmContent)), nil
}

// parseCards builds the card list from the contents of /proc/asound/cards and /proc/asound/pcm.
func parseCards(cards, pcms string) []SoundCard {
	cardMap := make(map[int]*SoundCard)

	for _, line := range strings.Split(cards, "\n") {
		matches := cardRegex.FindStringSubmatch(line)
		if len(matches) != 4 {
			continue
		}

		id, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}

		cardMap[id] = &SoundCard{
			ID:          id,
			Name:        strings.TrimSpace(matches[2]),
			Description: strings.TrimSpace(matches[3]),
		}
	}

	for _, line := range strings.Split(pcms, "\n") {
		matches := pcmRegex.FindStringSubmatch(line)
		if len(matches) < 4 || !strings.Contains(line, "playback") {
			continue
		}

		cardID, _ := strconv.Atoi(matches[1])
		devID, _ := strconv.Atoi(matches[2])

		card, ok := cardMap[cardID]
		if !ok {
			continue
		}

		card.Devices = append(card.Devices, SoundCardDevice{
			ID:          devID,
			Name:        fmt.Sprintf("pcm%dp", devID),
			Description: strings.TrimSpace(matches[3]),
		})
	}

	cardIDs := make([]int, 0, len(cardMap))
	for id := range cardMap {
		cardIDs = append(cardIDs, id)
	}

	sort.Ints(cardIDs)

	result := make([]SoundCard, 0, len(cardIDs))
	for _, id := range cardIDs {
		result = append(result, *cardMap[id])
	}

	return result
}

// DefaultDevice returns the name of the first playback device, "hw:0,0" if none is found.
func DefaultDevice() string {
	cards, err := EnumerateCards()
	if err != nil {
		return "hw:0,0"
	}

	for _, c := range cards {
		if len(c.Devices) > 0 {
			return c.HwName(c.Devices[0])
		}
	}

	return "hw:0,0"
}
