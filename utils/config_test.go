package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"udp"}, cfg.Listeners)
	assert.Equal(t, "514", cfg.UDPPort)
	assert.Equal(t, "601", cfg.TCPPort)
	assert.Equal(t, "3000", cfg.APIPort)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "./logs.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeoutDuration())
	assert.Equal(t, DefaultMaxWorkers, cfg.MaxWorkers)
	assert.True(t, cfg.HasListener("udp"))
	assert.False(t, cfg.HasListener("tcp"))
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
listeners: [udp, tcp]
udp_port: "5514"
api_port: "8080"
db_driver: duckdb
db_path: /var/lib/sysrecv/logs.duckdb
store_timeout: 250ms
max_workers: 8
verbose: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"udp", "tcp"}, cfg.Listeners)
	assert.Equal(t, "5514", cfg.UDPPort)
	assert.Equal(t, "601", cfg.TCPPort)
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "duckdb", cfg.DBDriver)
	assert.Equal(t, "/var/lib/sysrecv/logs.duckdb", cfg.DBPath)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeoutDuration())
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.Debug)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "udp_port: \"5514\"\ndb_path: ./from-file.db\n")

	t.Setenv("SYSRECV_UDP_PORT", " 6000 ")
	t.Setenv("SYSRECV_LISTENERS", "TCP, udp")
	t.Setenv("SYSRECV_DB_PATH", "/Data/Logs.db")
	t.Setenv("SYSRECV_DEBUG", "true")
	t.Setenv("SYSRECV_MAX_WORKERS", "not-a-number")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.UDPPort)
	assert.Equal(t, []string{"tcp", "udp"}, cfg.Listeners)
	assert.Equal(t, "/Data/Logs.db", cfg.DBPath, "paths keep their case")
	assert.True(t, cfg.Debug)
	assert.Equal(t, DefaultMaxWorkers, cfg.MaxWorkers)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "listeners: [udp\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{}
		setDefaults(&cfg)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown listener", func(c *Config) { c.Listeners = []string{"sctp"} }},
		{"bad udp port", func(c *Config) { c.UDPPort = "syslog" }},
		{"port out of range", func(c *Config) { c.APIPort = "70000" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "postgres" }},
		{"bad timeout", func(c *Config) { c.StoreTimeout = "soon" }},
		{"zero timeout", func(c *Config) { c.StoreTimeout = "0s" }},
		{"no workers", func(c *Config) { c.MaxWorkers = -1 }},
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestGetSanitizedEnv(t *testing.T) {
	t.Setenv("SYSRECV_TEST_STRING", "  MiXeD ")
	t.Setenv("SYSRECV_TEST_INT", "42")
	t.Setenv("SYSRECV_TEST_BOOL", "yes")

	assert.Equal(t, "mixed", GetSanitizedEnvString("SYSRECV_TEST_STRING", "d"))
	assert.Equal(t, "MiXeD", GetEnvString("SYSRECV_TEST_STRING", "d"))
	assert.Equal(t, "d", GetSanitizedEnvString("SYSRECV_TEST_UNSET", "d"))
	assert.Equal(t, int64(42), GetSanitizedEnvInt64("SYSRECV_TEST_INT", 1))
	assert.True(t, GetSanitizedEnvBool("SYSRECV_TEST_BOOL", true), "unparseable bool keeps the default")
	assert.False(t, GetSanitizedEnvBool("SYSRECV_TEST_UNSET", false))
}
