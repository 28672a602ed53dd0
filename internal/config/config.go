// Package config loads the service configuration from a TOML file,
// creating one with defaults on first run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration surface.
type Config struct {
	Address          string        // bind IP
	Port             int           // listen port
	DBFile           string        // database file path, or "memory" for an ephemeral store
	DBMaxConns       int           // connection pool size
	DBAcquireTimeout time.Duration // pool acquisition timeout
}

// Load reads the configuration file at path. If the file does not exist
// it is created with the default settings, which are then returned. Any
// other error is fatal to startup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("address", "127.0.0.1")
	v.SetDefault("port", 4000)
	v.SetDefault("db_file", "memory")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("db_acquire_timeout", "5s")

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		// First run: persist the defaults so they can be edited.
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("writing default config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Address:          v.GetString("address"),
		Port:             v.GetInt("port"),
		DBFile:           v.GetString("db_file"),
		DBMaxConns:       v.GetInt("db_max_conns"),
		DBAcquireTimeout: v.GetDuration("db_acquire_timeout"),
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %s", cfg.Port, path)
	}
	return cfg, nil
}

// Addr returns the host:port pair to bind the server to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}
