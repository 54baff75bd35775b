package utils

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Default values
const (
	DefaultListeners    = "udp"
	DefaultUDPPort      = "514"
	DefaultTCPPort      = "601"
	DefaultAPIPort      = "3000"
	DefaultDBDriver     = "sqlite3"
	DefaultDBPath       = "./logs.db"
	DefaultStoreTimeout = "5s"
	DefaultMaxWorkers   = 100
)

var (
	knownListeners = []string{"udp", "tcp"}
	knownDrivers   = []string{"sqlite3", "duckdb", "memory"}
)

type Config struct {
	Listeners    []string `yaml:"listeners"`
	UDPPort      string   `yaml:"udp_port"`
	TCPPort      string   `yaml:"tcp_port"`
	APIPort      string   `yaml:"api_port"`
	DBDriver     string   `yaml:"db_driver"`
	DBPath       string   `yaml:"db_path"`
	StoreTimeout string   `yaml:"store_timeout"`
	MaxWorkers   int      `yaml:"max_workers"`
	Verbose      bool     `yaml:"verbose"`
	Debug        bool     `yaml:"debug"`
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at path and SYSRECV_* environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	setDefaults(&cfg)
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if len(cfg.Listeners) == 0 {
		cfg.Listeners = strings.Split(DefaultListeners, ",")
	}
	if cfg.UDPPort == "" {
		cfg.UDPPort = DefaultUDPPort
	}
	if cfg.TCPPort == "" {
		cfg.TCPPort = DefaultTCPPort
	}
	if cfg.APIPort == "" {
		cfg.APIPort = DefaultAPIPort
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = DefaultDBDriver
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.StoreTimeout == "" {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
}

func applyEnv(cfg *Config) {
	if listeners := GetSanitizedEnvString("SYSRECV_LISTENERS", ""); listeners != "" {
		cfg.Listeners = nil
		for _, l := range strings.Split(listeners, ",") {
			if l = strings.TrimSpace(l); l != "" {
				cfg.Listeners = append(cfg.Listeners, l)
			}
		}
	}

	cfg.UDPPort = GetSanitizedEnvString("SYSRECV_UDP_PORT", cfg.UDPPort)
	cfg.TCPPort = GetSanitizedEnvString("SYSRECV_TCP_PORT", cfg.TCPPort)
	cfg.APIPort = GetSanitizedEnvString("SYSRECV_API_PORT", cfg.APIPort)
	cfg.DBDriver = GetSanitizedEnvString("SYSRECV_DB_DRIVER", cfg.DBDriver)
	cfg.DBPath = GetEnvString("SYSRECV_DB_PATH", cfg.DBPath)
	cfg.StoreTimeout = GetSanitizedEnvString("SYSRECV_STORE_TIMEOUT", cfg.StoreTimeout)
	cfg.MaxWorkers = int(GetSanitizedEnvInt64("SYSRECV_MAX_WORKERS", int64(cfg.MaxWorkers)))
	cfg.Verbose = GetSanitizedEnvBool("SYSRECV_VERBOSE", cfg.Verbose)
	cfg.Debug = GetSanitizedEnvBool("SYSRECV_DEBUG", cfg.Debug)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for _, l := range c.Listeners {
		if !slices.Contains(knownListeners, l) {
			return fmt.Errorf("%w: unknown listener %q", ErrInvalidConfig, l)
		}
	}

	for name, port := range map[string]string{"udp_port": c.UDPPort, "tcp_port": c.TCPPort, "api_port": c.APIPort} {
		n, err := strconv.Atoi(port)
		if err != nil || n < 0 || n > 65535 {
			return fmt.Errorf("%w: %s %q is not a port number", ErrInvalidConfig, name, port)
		}
	}

	if !slices.Contains(knownDrivers, c.DBDriver) {
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}

	timeout, err := time.ParseDuration(c.StoreTimeout)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("%w: store_timeout %q must be a positive duration", ErrInvalidConfig, c.StoreTimeout)
	}

	if c.MaxWorkers < 1 {
		return fmt.Errorf("%w: max_workers must be at least 1", ErrInvalidConfig)
	}

	return nil
}

// HasListener reports whether the named transport is enabled.
func (c *Config) HasListener(name string) bool {
	return slices.Contains(c.Listeners, name)
}

// StoreTimeoutDuration returns the parsed store timeout. Validate guarantees
// it parses.
func (c *Config) StoreTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.StoreTimeout)
	return d
}
