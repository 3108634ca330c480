package server

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the HTTP server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string `toml:"listen"`

	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory SQLite database, or empty for the
	// in-memory driver.
	DBPath string `toml:"sqlite"`

	// BodyLimit caps the size of an uploaded chunk stream in bytes.
	BodyLimit int `toml:"body_limit"`

	Debug bool `toml:"debug"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		BodyLimit:  32 << 20,
	}
}

// LoadConfig reads a TOML config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("unknown keys in config %s: %v", path, undecoded)
	}

	return cfg, nil
}
