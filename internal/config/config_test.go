package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "greensat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := load(flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-config-file", filepath.Join(t.TempDir(), "absent.yaml")}, noEnv)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "greensat.db", cfg.DBPath)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.LivePollInterval())
	assert.Equal(t, 200, cfg.LiveWindow)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, 5, cfg.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerReset())
	assert.Equal(t, 20.0, cfg.GasAlertThreshold)
	assert.Equal(t, "greensat/readings", cfg.MQTT.Topic)
	assert.Equal(t, "greensat.measurements", cfg.Kafka.Topic)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, time.Local, cfg.Location())
}

func TestLoad_FileThenEnvThenFlags(t *testing.T) {
	path := writeYAML(t, `
db_path: /data/file.db
port: 6000
base_url: http://sensor.local:6000
timezone: Europe/Paris
live_window: 50
mqtt:
  broker: tcp://file-broker:1883
kafka:
  brokers: [k1:9092]
dd_tags: [site:roof]
`)
	env := envMap(map[string]string{
		"GREENSAT_DB_PATH":       "/data/env.db",
		"GREENSAT_KAFKA_BROKERS": "k2:9092, k3:9092",
		"GREENSAT_NTFY_TOPIC":    "greensat-alerts",
		"DD_AGENT_HOST":          "dd-agent",
	})

	cfg, err := load(flag.NewFlagSet("test", flag.ContinueOnError),
		[]string{"-config-file", path, "-port", "7000", "-log-level", "debug"}, env)
	require.NoError(t, err)

	assert.Equal(t, "/data/env.db", cfg.DBPath)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "http://sensor.local:6000", cfg.BaseURL)
	assert.Equal(t, 50, cfg.LiveWindow)
	assert.Equal(t, "tcp://file-broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "greensat/readings", cfg.MQTT.Topic, "unset keys keep defaults")
	assert.Equal(t, []string{"k2:9092", "k3:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "greensat-alerts", cfg.NtfyTopic)
	assert.Equal(t, "dd-agent:8125", cfg.DDAgentAddr)
	assert.True(t, cfg.EnableDatadog)
	assert.Equal(t, []string{"site:roof"}, cfg.DDTags)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "Europe/Paris", cfg.Location().String())
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeYAML(t, "port: [not a number")
	_, err := load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config-file", path}, noEnv)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"huge port", func(c *Config) { c.Port = 70000 }},
		{"zero poll", func(c *Config) { c.LivePollSeconds = 0 }},
		{"negative window", func(c *Config) { c.LiveWindow = -1 }},
		{"zero timeout", func(c *Config) { c.HTTPTimeoutSeconds = 0 }},
		{"breaker", func(c *Config) { c.Breaker.MaxFailures = 0 }},
		{"relative url", func(c *Config) { c.BaseURL = "/api" }},
		{"empty db", func(c *Config) { c.DBPath = "" }},
		{"bad zone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.validate())
		})
	}

	cfg := Defaults()
	assert.NoError(t, cfg.validate())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("verbose"))
}
