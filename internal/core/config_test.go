package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0644); err != nil {
		t.Fatalf("error writing test config: %v", err)
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, `
hostname: 127.0.0.1
port: 25570
auth:
  online_mode: false
world:
  max_players: 50
  level_type: default
performance:
  tick_interval: 100ms
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"hostname", cfg.Hostname, "127.0.0.1"},
		{"port", cfg.Port, 25570},
		{"online mode", cfg.Auth.OnlineMode, false},
		{"max players", cfg.World.MaxPlayers, 50},
		{"level type", cfg.World.LevelType, "default"},
		{"tick interval", cfg.Performance.TickInterval, 100 * time.Millisecond},
		// Defaults.
		{"command buffer", cfg.Network.CommandBuffer, 10000},
		{"kick invalid packet", cfg.Network.KickInvalidPacket, false},
		{"view distance", cfg.World.ViewDistance, 16},
		{"keep alive interval", cfg.Performance.KeepAliveInterval, 10 * time.Second},
		{"database engine", cfg.Database.Engine, "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("LoadConfig() %s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	dir := writeConfig(t, "port: 25570\n")
	t.Setenv("CRAFTMINE_NETWORK_KICK_INVALID_PACKET", "true")
	t.Setenv("CRAFTMINE_DATABASE_HOST", "db.internal")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() returned unexpected error: %v", err)
	}
	if !cfg.Network.KickInvalidPacket {
		t.Errorf("LoadConfig() did not apply CRAFTMINE_NETWORK_KICK_INVALID_PACKET")
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("LoadConfig() database.host = %s, want db.internal", cfg.Database.Host)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Errorf("LoadConfig() expected an error for a directory without config.yaml")
	}
}

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "testdb"
	cfg.Database.Username = "testuser"
	cfg.Database.Password = "testpassword"

	url := cfg.DatabaseURL()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode="
	if url != expected {
		t.Errorf("DatabaseURL() want = %s, got = %s", expected, url)
	}
}

func TestConfig_ListenAddress(t *testing.T) {
	cfg := &Config{Hostname: "0.0.0.0", Port: 25565}
	if addr := cfg.ListenAddress(); addr != "0.0.0.0:25565" {
		t.Errorf("ListenAddress() want = 0.0.0.0:25565, got = %s", addr)
	}
}
