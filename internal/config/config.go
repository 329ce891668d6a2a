package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Breaker struct {
	MaxFailures  int `yaml:"max_failures"`
	ResetSeconds int `yaml:"reset_seconds"`
}

type MQTT struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	ConfigFile string        `yaml:"-"`
	LogLevel   zerolog.Level `yaml:"-"`
	LogFile    string        `yaml:"log_file"`

	DBPath   string `yaml:"db_path"`
	Port     int    `yaml:"port"`
	BaseURL  string `yaml:"base_url"`
	Timezone string `yaml:"timezone"`

	LivePollSeconds    int     `yaml:"live_poll_seconds"`
	LiveWindow         int     `yaml:"live_window"`
	HTTPTimeoutSeconds int     `yaml:"http_timeout_seconds"`
	Breaker            Breaker `yaml:"breaker"`
	GasAlertThreshold  float64 `yaml:"gas_alert_threshold"`
	PrefsFile          string  `yaml:"prefs_file"`

	MQTT      MQTT   `yaml:"mqtt"`
	Kafka     Kafka  `yaml:"kafka"`
	NtfyTopic string `yaml:"ntfy_topic"`

	EnableDatadog bool     `yaml:"enable_datadog"`
	DDAgentAddr   string   `yaml:"dd_agent_addr"`
	DDNamespace   string   `yaml:"dd_namespace"`
	DDTags        []string `yaml:"dd_tags"`
}

func Defaults() Config {
	return Config{
		LogLevel:           zerolog.InfoLevel,
		DBPath:             "greensat.db",
		Port:               5000,
		BaseURL:            "http://127.0.0.1:5000",
		LivePollSeconds:    2,
		LiveWindow:         200,
		HTTPTimeoutSeconds: 10,
		Breaker:            Breaker{MaxFailures: 5, ResetSeconds: 30},
		GasAlertThreshold:  20,
		PrefsFile:          "greensat-console.json",
		MQTT:               MQTT{Topic: "greensat/readings", ClientID: "greensat-bridge"},
		Kafka:              Kafka{Topic: "greensat.measurements"},
		DDAgentAddr:        "127.0.0.1:8125",
		DDNamespace:        "greensat.",
	}
}

// Load parses the process flags, the YAML file they point at and the
// environment overrides. Invalid configuration panics.
func Load() Config {
	cfg, err := load(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

func load(fset *flag.FlagSet, args []string, getenv func(string) string) (Config, error) {
	cfg := Defaults()
	var logLevel, logFile, dbPath, baseURL string
	var port int

	fset.StringVar(&cfg.ConfigFile, "config-file", "greensat.yaml", "Path to YAML config file")
	fset.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fset.StringVar(&logFile, "log-file", "", "Append JSON logs to this file instead of stderr")
	fset.StringVar(&dbPath, "db", "", "Path to the SQLite database file")
	fset.IntVar(&port, "port", 0, "HTTP listen port")
	fset.StringVar(&baseURL, "base-url", "", "Base URL of the GreenSat API")
	if err := fset.Parse(args); err != nil {
		return cfg, err
	}

	if err := cfg.readFile(cfg.ConfigFile); err != nil {
		return cfg, err
	}
	cfg.applyEnv(getenv)

	// Flags given explicitly beat both the file and the environment.
	cfg.LogLevel = parseLogLevel(logLevel)
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if port != 0 {
		cfg.Port = port
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return cfg, cfg.validate()
}

// readFile merges the YAML file over the defaults. A missing file is fine.
func (cfg *Config) readFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv(getenv func(string) string) {
	if v := getenv("GREENSAT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("GREENSAT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := getenv("GREENSAT_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := getenv("GREENSAT_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := getenv("GREENSAT_NTFY_TOPIC"); v != "" {
		cfg.NtfyTopic = v
	}
	if v := getenv("DD_AGENT_HOST"); v != "" {
		cfg.DDAgentAddr = v + ":8125"
		cfg.EnableDatadog = true
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() error {
	var problems []string

	if cfg.Port <= 0 || cfg.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", cfg.Port))
	}
	if cfg.LivePollSeconds <= 0 {
		problems = append(problems, "live_poll_seconds must be positive")
	}
	if cfg.LiveWindow <= 0 {
		problems = append(problems, "live_window must be positive")
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		problems = append(problems, "http_timeout_seconds must be positive")
	}
	if cfg.Breaker.MaxFailures <= 0 || cfg.Breaker.ResetSeconds <= 0 {
		problems = append(problems, "breaker settings must be positive")
	}
	if cfg.DBPath == "" {
		problems = append(problems, "db_path is required")
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("base_url %q is not an absolute URL", cfg.BaseURL))
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			problems = append(problems, fmt.Sprintf("unknown timezone %q", cfg.Timezone))
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Location resolves the configured timezone, defaulting to the host zone.
func (cfg Config) Location() *time.Location {
	if cfg.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (cfg Config) LivePollInterval() time.Duration {
	return time.Duration(cfg.LivePollSeconds) * time.Second
}

func (cfg Config) HTTPTimeout() time.Duration {
	return time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
}

func (cfg Config) BreakerReset() time.Duration {
	return time.Duration(cfg.Breaker.ResetSeconds) * time.Second
}
