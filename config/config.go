package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultFileName is looked up in the working directory and beside the executable.
const DefaultFileName = "evedash.yml"

// Output sink modes.
const (
	ModeFile  = "file"
	ModeHTTP  = "http"
	ModeRedis = "redis"
	ModeNATS  = "nats"
)

// Config is the root configuration.
type Config struct {
	EveDash EveDashConfig `mapstructure:"evedash" yaml:"evedash"`
}

// EveDashConfig is the project configuration.
type EveDashConfig struct {
	Events  EventsConfig  `mapstructure:"events" yaml:"events"`
	Rules   RulesConfig   `mapstructure:"rules" yaml:"rules"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Charts  ChartsConfig  `mapstructure:"charts" yaml:"charts"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Event sources.
const (
	SourceFile  = "file"
	SourceRedis = "redis"
)

// EventsConfig points at the static event collection.
type EventsConfig struct {
	Source string            `mapstructure:"source" yaml:"source"`
	Path   string            `mapstructure:"path" yaml:"path"`
	Redis  RedisSourceConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisSourceConfig reads events from a list filled by Suricata's redis output.
type RedisSourceConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Password  string `mapstructure:"password" yaml:"password"`
	DB        int    `mapstructure:"db" yaml:"db"`
	Key       string `mapstructure:"key" yaml:"key"`
	BatchSize int64  `mapstructure:"batch_size" yaml:"batch_size"`
}

// RulesConfig controls the Sigma pre-filter.
type RulesConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// ChartsConfig holds default chart ordering and truncation.
type ChartsConfig struct {
	Order string `mapstructure:"order" yaml:"order"`
	Limit int    `mapstructure:"limit" yaml:"limit"`
}

// OutputConfig selects snapshot sinks.
type OutputConfig struct {
	Modes []string          `mapstructure:"modes" yaml:"modes"`
	File  FileOutputConfig  `mapstructure:"file" yaml:"file"`
	HTTP  HTTPOutputConfig  `mapstructure:"http" yaml:"http"`
	Redis RedisOutputConfig `mapstructure:"redis" yaml:"redis"`
	NATS  NATSOutputConfig  `mapstructure:"nats" yaml:"nats"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
	// MaxBytes rotates the snapshot file once exceeded; 0 disables rotation.
	MaxBytes int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL      string            `mapstructure:"url" yaml:"url"`
	Timeout  time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Headers  map[string]string `mapstructure:"headers" yaml:"headers"`
	Attempts uint              `mapstructure:"attempts" yaml:"attempts"`
}

// RedisOutputConfig config for the Redis snapshot sink.
type RedisOutputConfig struct {
	Addr      string        `mapstructure:"addr" yaml:"addr"`
	Password  string        `mapstructure:"password" yaml:"password"`
	DB        int           `mapstructure:"db" yaml:"db"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	Channel   string        `mapstructure:"channel" yaml:"channel"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// NATSOutputConfig config for the NATS snapshot sink.
type NATSOutputConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
	// MaxReconnects of -1 reconnects forever.
	MaxReconnects int `mapstructure:"max_reconnects" yaml:"max_reconnects"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Level   string `mapstructure:"level" yaml:"level"`
	File    string `mapstructure:"file" yaml:"file"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// FindConfigFile resolves the config path: the explicit argument, then
// ./evedash.yml, then evedash.yml beside the executable. It returns ""
// when none exists.
func FindConfigFile(configArg string) string {
	if configArg != "" {
		if _, err := os.Stat(configArg); err == nil {
			return configArg
		}
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}

	exePath, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exePath), DefaultFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfig reads path (optional), applies defaults and EVEDASH_*
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides resolve. Keys are
// rooted at "evedash", which doubles as the environment prefix.
func setDefaults(v *viper.Viper) {
	v.SetDefault("evedash.events.source", SourceFile)
	v.SetDefault("evedash.events.path", "")
	v.SetDefault("evedash.events.redis.addr", "127.0.0.1:6379")
	v.SetDefault("evedash.events.redis.password", "")
	v.SetDefault("evedash.events.redis.db", 0)
	v.SetDefault("evedash.events.redis.key", "suricata")
	v.SetDefault("evedash.events.redis.batch_size", 1000)
	v.SetDefault("evedash.rules.enabled", false)
	v.SetDefault("evedash.rules.path", "rules")

	v.SetDefault("evedash.server.addr", ":8080")
	v.SetDefault("evedash.server.read_timeout", 5*time.Second)
	v.SetDefault("evedash.server.write_timeout", 30*time.Second)

	v.SetDefault("evedash.charts.order", "key")
	v.SetDefault("evedash.charts.limit", 0)

	v.SetDefault("evedash.output.modes", []string{})
	v.SetDefault("evedash.output.file.path", "output/snapshots.jsonl")
	v.SetDefault("evedash.output.http.url", "")
	v.SetDefault("evedash.output.http.timeout", 5*time.Second)
	v.SetDefault("evedash.output.http.attempts", 3)
	v.SetDefault("evedash.output.redis.addr", "127.0.0.1:6379")
	v.SetDefault("evedash.output.redis.password", "")
	v.SetDefault("evedash.output.redis.db", 0)
	v.SetDefault("evedash.output.redis.key_prefix", "evedash:snapshot")
	v.SetDefault("evedash.output.redis.channel", "evedash.snapshots")
	v.SetDefault("evedash.output.redis.ttl", time.Duration(0))
	v.SetDefault("evedash.output.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("evedash.output.nats.subject", "evedash.snapshots")
	v.SetDefault("evedash.output.nats.max_reconnects", -1)

	v.SetDefault("evedash.logging.enabled", true)
	v.SetDefault("evedash.logging.level", "info")
	v.SetDefault("evedash.logging.file", "")
	v.SetDefault("evedash.logging.console", true)
}

// Validate rejects unknown sources, sink modes and chart orders, and sinks
// missing required settings.
func (c *Config) Validate() error {
	var errs []error
	ed := c.EveDash

	switch strings.ToLower(ed.Events.Source) {
	case "", SourceFile, SourceRedis:
	default:
		errs = append(errs, fmt.Errorf("events.source: unknown source %q", ed.Events.Source))
	}

	switch strings.ToLower(ed.Charts.Order) {
	case "", "key", "count":
	default:
		errs = append(errs, fmt.Errorf("charts.order: unknown order %q", ed.Charts.Order))
	}
	if ed.Charts.Limit < 0 {
		errs = append(errs, fmt.Errorf("charts.limit: must be non-negative, got %d", ed.Charts.Limit))
	}
	if ed.Rules.Enabled && strings.TrimSpace(ed.Rules.Path) == "" {
		errs = append(errs, errors.New("rules.path: required when rules are enabled"))
	}

	for _, mode := range ed.Output.Modes {
		switch strings.ToLower(strings.TrimSpace(mode)) {
		case ModeFile:
			if ed.Output.File.Path == "" {
				errs = append(errs, errors.New("output.file.path: required for file mode"))
			}
		case ModeHTTP:
			if ed.Output.HTTP.URL == "" {
				errs = append(errs, errors.New("output.http.url: required for http mode"))
			}
		case ModeRedis:
		case ModeNATS:
			if ed.Output.NATS.Subject == "" {
				errs = append(errs, errors.New("output.nats.subject: required for nats mode"))
			}
		default:
			errs = append(errs, fmt.Errorf("output.modes: unknown mode %q", mode))
		}
	}
	return errors.Join(errs...)
}
