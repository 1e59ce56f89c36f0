// Package world describes the properties of the world that players join.
// World storage and simulation live elsewhere; this package only carries the
// values the network needs to put a player into the world.
package world

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/dcrodman/craftmine/internal/core"
)

type Gamemode uint8

const (
	Survival Gamemode = iota
	Creative
	Adventure
	Spectator
)

func (g Gamemode) String() string {
	switch g {
	case Survival:
		return "survival"
	case Creative:
		return "creative"
	case Adventure:
		return "adventure"
	case Spectator:
		return "spectator"
	}
	return fmt.Sprintf("gamemode(%d)", uint8(g))
}

// ParseGamemode accepts a gamemode name or its numeric id.
func ParseGamemode(s string) (Gamemode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "survival", "0":
		return Survival, nil
	case "creative", "1":
		return Creative, nil
	case "adventure", "2":
		return Adventure, nil
	case "spectator", "3":
		return Spectator, nil
	}
	return 0, fmt.Errorf("unknown gamemode %q", s)
}

type Dimension int32

const (
	Nether    Dimension = -1
	Overworld Dimension = 0
	End       Dimension = 1
)

func (d Dimension) String() string {
	switch d {
	case Nether:
		return "nether"
	case Overworld:
		return "overworld"
	case End:
		return "end"
	}
	return fmt.Sprintf("dimension(%d)", int32(d))
}

// ParseDimension accepts a dimension name or its numeric id.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nether", "the_nether", "-1":
		return Nether, nil
	case "overworld", "0":
		return Overworld, nil
	case "end", "the_end", "1":
		return End, nil
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// Point is a position within the world.
type Point struct {
	X, Y, Z int32
}

// Properties are the world-wide values sent to every player on join.
type Properties struct {
	DefaultGamemode     Gamemode
	Dimension           Dimension
	Seed                string
	LevelType           string
	ViewDistance        int32
	MaxPlayers          uint8
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	Spawn               Point
}

// HashedSeed is the value the client uses for biome noise. It is the first
// 8 bytes of the SHA-256 digest of the seed, so the seed itself is never sent.
func (p Properties) HashedSeed() int64 {
	sum := sha256.Sum256([]byte(p.Seed))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// PropertiesFromConfig validates the world section of the config.
func PropertiesFromConfig(cfg *core.Config) (Properties, error) {
	gamemode, err := ParseGamemode(cfg.World.DefaultGamemode)
	if err != nil {
		return Properties{}, err
	}
	dimension, err := ParseDimension(cfg.World.Dimension)
	if err != nil {
		return Properties{}, err
	}
	if cfg.World.MaxPlayers < 0 || cfg.World.MaxPlayers > 255 {
		return Properties{}, fmt.Errorf("max_players must be between 0 and 255, got %d", cfg.World.MaxPlayers)
	}
	if cfg.World.ViewDistance < 2 || cfg.World.ViewDistance > 32 {
		return Properties{}, fmt.Errorf("view_distance must be between 2 and 32, got %d", cfg.World.ViewDistance)
	}

	return Properties{
		DefaultGamemode:     gamemode,
		Dimension:           dimension,
		Seed:                cfg.World.Seed,
		LevelType:           cfg.World.LevelType,
		ViewDistance:        int32(cfg.World.ViewDistance),
		MaxPlayers:          uint8(cfg.World.MaxPlayers),
		ReducedDebugInfo:    cfg.World.ReducedDebugInfo,
		EnableRespawnScreen: cfg.World.EnableRespawnScreen,
		Spawn: Point{
			X: int32(cfg.World.SpawnX),
			Y: int32(cfg.World.SpawnY),
			Z: int32(cfg.World.SpawnZ),
		},
	}, nil
}
