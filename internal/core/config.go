package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of the
// server's components. It is loaded once at startup and never modified after.
type Config struct {
	// Hostname or IP address on which the server will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Port on which the server will listen for connections.
	Port int `mapstructure:"port"`
	// Maximum number of concurrent connections the server will allow.
	MaxConnections int `mapstructure:"max_connections"`

	Logging struct {
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"logging"`

	Network struct {
		// Number of commands the game loop can queue for the network before blocking.
		CommandBuffer int `mapstructure:"command_buffer"`
		// Number of frames queued for a single connection before it is considered too slow.
		OutboundBuffer int `mapstructure:"outbound_buffer"`
		// Disconnect clients that send packets the server doesn't recognize.
		KickInvalidPacket bool `mapstructure:"kick_invalid_packet"`
		// How long a connection may stay silent before reaching Play.
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
	} `mapstructure:"network"`

	Auth struct {
		// Require players to authenticate with their account (encrypted login).
		OnlineMode bool `mapstructure:"online_mode"`
	} `mapstructure:"auth"`

	Status struct {
		// Version name displayed in the server list.
		Name string `mapstructure:"name"`
		// Message of the day.
		Description string `mapstructure:"description"`
		// Optional path to a 64x64 PNG shown next to the server.
		FaviconPath string `mapstructure:"favicon_path"`
	} `mapstructure:"status"`

	World struct {
		// survival, creative, adventure, or spectator.
		DefaultGamemode string `mapstructure:"default_gamemode"`
		// overworld, nether, or end.
		Dimension string `mapstructure:"dimension"`
		Seed      string `mapstructure:"seed"`
		// Sent to the client to select sky rendering, e.g. default or flat.
		LevelType           string `mapstructure:"level_type"`
		ViewDistance        int    `mapstructure:"view_distance"`
		MaxPlayers          int    `mapstructure:"max_players"`
		ReducedDebugInfo    bool   `mapstructure:"reduced_debug_info"`
		EnableRespawnScreen bool   `mapstructure:"enable_respawn_screen"`
		SpawnX              int    `mapstructure:"spawn_x"`
		SpawnY              int    `mapstructure:"spawn_y"`
		SpawnZ              int    `mapstructure:"spawn_z"`
	} `mapstructure:"world"`

	Performance struct {
		// Duration of one game loop tick.
		TickInterval time.Duration `mapstructure:"tick_interval"`
		// How often the game loop pings every player.
		KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"`
	} `mapstructure:"performance"`

	Database struct {
		// sqlite or postgres.
		Engine string `mapstructure:"engine"`
		// Database file used by the sqlite engine.
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on db_host on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database in Postgres.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${db_name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Debugging struct {
		// Enable extra info-providing mechanisms for the server.
		Enabled bool `mapstructure:"enabled"`
		// Port on which the pprof and metrics server will be started if debug mode is enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Log every packet sent and received.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "CRAFTMINE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("hostname", "0.0.0.0")
	v.SetDefault("port", 25565)
	v.SetDefault("max_connections", 1000)
	v.SetDefault("logging.log_level", "info")
	v.SetDefault("logging.log_file_path", "")
	v.SetDefault("network.command_buffer", 10000)
	v.SetDefault("network.outbound_buffer", 1024)
	v.SetDefault("network.kick_invalid_packet", false)
	v.SetDefault("network.read_timeout", "30s")
	v.SetDefault("auth.online_mode", true)
	v.SetDefault("status.name", "1.15.2")
	v.SetDefault("status.description", "A Minecraft Server")
	v.SetDefault("status.favicon_path", "")
	v.SetDefault("world.default_gamemode", "creative")
	v.SetDefault("world.dimension", "overworld")
	v.SetDefault("world.seed", "")
	v.SetDefault("world.level_type", "flat")
	v.SetDefault("world.view_distance", 16)
	v.SetDefault("world.max_players", 20)
	v.SetDefault("world.reduced_debug_info", false)
	v.SetDefault("world.enable_respawn_screen", false)
	v.SetDefault("world.spawn_x", 0)
	v.SetDefault("world.spawn_y", 64)
	v.SetDefault("world.spawn_z", 0)
	v.SetDefault("performance.tick_interval", "50ms")
	v.SetDefault("performance.keep_alive_interval", "10s")
	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.filename", "craftmine.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "craftmine")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("debugging.enabled", false)
	v.SetDefault("debugging.pprof_port", 4000)
}

// LoadConfig reads config.yaml from the directory at configPath, applying
// defaults for anything it leaves out and environment overrides on top.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envVarPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: no config file in path %s", configPath)
		}
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range v.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := v.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			return nil, fmt.Errorf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config object: %v", err)
	}
	return config, nil
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a database URL generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// ListenAddress returns the host:port the server binds.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}
