package world

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dcrodman/craftmine/internal/core"
)

func TestParseGamemode(t *testing.T) {
	tests := []struct {
		input   string
		want    Gamemode
		wantErr bool
	}{
		{input: "survival", want: Survival},
		{input: "Creative", want: Creative},
		{input: "2", want: Adventure},
		{input: " spectator ", want: Spectator},
		{input: "hardcore", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGamemode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGamemode() wantErr = %v, error = %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("ParseGamemode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDimension(t *testing.T) {
	tests := []struct {
		input   string
		want    Dimension
		wantErr bool
	}{
		{input: "overworld", want: Overworld},
		{input: "the_nether", want: Nether},
		{input: "-1", want: Nether},
		{input: "END", want: End},
		{input: "aether", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDimension(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDimension() wantErr = %v, error = %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("ParseDimension() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testConfig() *core.Config {
	cfg := &core.Config{}
	cfg.World.DefaultGamemode = "creative"
	cfg.World.Dimension = "overworld"
	cfg.World.Seed = "craftmine"
	cfg.World.LevelType = "flat"
	cfg.World.ViewDistance = 8
	cfg.World.MaxPlayers = 20
	cfg.World.SpawnY = 64
	return cfg
}

func TestPropertiesFromConfig(t *testing.T) {
	got, err := PropertiesFromConfig(testConfig())
	if err != nil {
		t.Fatalf("PropertiesFromConfig() returned unexpected error: %v", err)
	}
	want := Properties{
		DefaultGamemode: Creative,
		Dimension:       Overworld,
		Seed:            "craftmine",
		LevelType:       "flat",
		ViewDistance:    8,
		MaxPlayers:      20,
		Spawn:           Point{Y: 64},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PropertiesFromConfig() returned unexpected properties; diff:\n%s", diff)
	}
}

func TestPropertiesFromConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *core.Config)
	}{
		{"gamemode", func(cfg *core.Config) { cfg.World.DefaultGamemode = "hardcore" }},
		{"dimension", func(cfg *core.Config) { cfg.World.Dimension = "moon" }},
		{"max players", func(cfg *core.Config) { cfg.World.MaxPlayers = 1000 }},
		{"view distance", func(cfg *core.Config) { cfg.World.ViewDistance = 64 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(cfg)
			if _, err := PropertiesFromConfig(cfg); err == nil {
				t.Errorf("PropertiesFromConfig() expected an error")
			}
		})
	}
}

func TestProperties_HashedSeed(t *testing.T) {
	a := Properties{Seed: "craftmine"}
	b := Properties{Seed: "craftmine"}
	c := Properties{Seed: "other"}

	if a.HashedSeed() != b.HashedSeed() {
		t.Errorf("HashedSeed() is not stable for the same seed")
	}
	if a.HashedSeed() == c.HashedSeed() {
		t.Errorf("HashedSeed() collided for different seeds")
	}
	// SHA-256 of the empty string starts with e3b0c44298fc1c14.
	if got := (Properties{}).HashedSeed(); got != int64(-0x1c4f3bbd6703e3ec) {
		t.Errorf("HashedSeed() of empty seed = %x", got)
	}
}
