// Package status holds the server list entry that is shown to clients before
// they log in. Every Status connection reads it while the game loop updates
// the player counts.
package status

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Players shown in the hover text of the server list are capped by the client.
const maxSampleSize = 12

// Player is one entry of the player sample.
type Player struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Snapshot is a point-in-time copy of everything in the server list entry.
type Snapshot struct {
	Name            string
	ProtocolVersion int
	Online          int
	Max             int
	Sample          []Player
	Description     string
	// Data URI of a 64x64 PNG, or empty for none.
	Favicon string
}

// Status guards the current Snapshot. sync.RWMutex lets any number of Status
// connections read concurrently and keeps a waiting writer from being
// starved by new readers.
type Status struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New(initial Snapshot) *Status {
	return &Status{snap: initial}
}

// Snapshot returns a copy of the current values.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snap
	snap.Sample = append([]Player(nil), s.snap.Sample...)
	return snap
}

// SetPlayers replaces the online count and player sample.
func (s *Status) SetPlayers(online int, sample []Player) {
	if len(sample) > maxSampleSize {
		sample = sample[:maxSampleSize]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Online = online
	s.snap.Sample = append([]Player(nil), sample...)
}

// SetDescription replaces the message of the day.
func (s *Status) SetDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Description = description
}

type versionJSON struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type playersJSON struct {
	Max    int      `json:"max"`
	Online int      `json:"online"`
	Sample []Player `json:"sample"`
}

type textJSON struct {
	Text  string     `json:"text"`
	Extra []textJSON `json:"extra,omitempty"`
}

type responseJSON struct {
	Version     versionJSON `json:"version"`
	Players     playersJSON `json:"players"`
	Description textJSON    `json:"description"`
	Favicon     string      `json:"favicon,omitempty"`
}

// JSON renders the snapshot in the format expected by the status response.
func (snap Snapshot) JSON() (string, error) {
	sample := snap.Sample
	if sample == nil {
		sample = []Player{}
	}

	b, err := json.Marshal(responseJSON{
		Version: versionJSON{Name: snap.Name, Protocol: snap.ProtocolVersion},
		Players: playersJSON{Max: snap.Max, Online: snap.Online, Sample: sample},
		Description: textJSON{
			Text:  "",
			Extra: []textJSON{{Text: snap.Description}},
		},
		Favicon: snap.Favicon,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding status response: %w", err)
	}
	return string(b), nil
}

// LoadFavicon reads a PNG file and returns it as a data URI. An empty path
// returns an empty favicon.
func LoadFavicon(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading favicon: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b), nil
}
