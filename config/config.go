// Package config loads the server settings from YAML with environment
// overrides. Every field has a default, so a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dvalinn/snek/agent"
	"github.com/dvalinn/snek/api"
	"github.com/dvalinn/snek/logging"
)

type Config struct {
	Listen            string        `yaml:"listen"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	// MoveTimeout is used when the engine does not send game.timeout.
	MoveTimeout time.Duration `yaml:"move_timeout"`
	// LatencyBuffer is subtracted from the turn timeout to leave room for the
	// network round trip.
	LatencyBuffer time.Duration `yaml:"latency_buffer"`
	Gzip          bool          `yaml:"gzip"`

	Log      LogConfig   `yaml:"log"`
	Fallback string      `yaml:"fallback"`
	Snake    SnakeConfig `yaml:"snake"`
}

type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// SnakeConfig overrides the cosmetic fields of the info response.
type SnakeConfig struct {
	Author string `yaml:"author"`
	Color  string `yaml:"color"`
	Head   string `yaml:"head"`
	Tail   string `yaml:"tail"`
}

func Default() Config {
	return Config{
		Listen:            ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		MoveTimeout:       500 * time.Millisecond,
		LatencyBuffer:     200 * time.Millisecond,
		Gzip:              true,
		Log:               LogConfig{Level: "info", Format: "json"},
		Fallback:          "up",
	}
}

// Load reads path (if it exists) over the defaults, then applies env
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables. A set but malformed value is an
// error rather than a silent fallback to the file value.
func (c *Config) applyEnv() error {
	var errs []error
	var err error
	c.Listen = getEnvOrDefault("LISTEN", c.Listen)
	if c.MoveTimeout, err = getEnvDurationOrDefault("MOVE_TIMEOUT", c.MoveTimeout); err != nil {
		errs = append(errs, err)
	}
	if c.LatencyBuffer, err = getEnvDurationOrDefault("LATENCY_BUFFER", c.LatencyBuffer); err != nil {
		errs = append(errs, err)
	}
	if c.Gzip, err = getEnvBoolOrDefault("GZIP", c.Gzip); err != nil {
		errs = append(errs, err)
	}
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)
	c.Fallback = getEnvOrDefault("FALLBACK", c.Fallback)
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.MoveTimeout <= 0 {
		return fmt.Errorf("move_timeout must be positive, got %s", c.MoveTimeout)
	}
	if c.LatencyBuffer < 0 {
		return fmt.Errorf("latency_buffer must not be negative, got %s", c.LatencyBuffer)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	if _, err := agent.ParseFallbackPolicy(c.Fallback); err != nil {
		return err
	}
	return nil
}

// Agent returns the engine settings. Validate has already checked Fallback.
func (c Config) Agent() agent.Config {
	p, _ := agent.ParseFallbackPolicy(c.Fallback)
	return agent.Config{Fallback: p}
}

// Info is the identity record with any cosmetic overrides applied.
func (c Config) Info() api.InfoResponse {
	info := api.DefaultInfo()
	if c.Snake.Author != "" {
		info.Author = c.Snake.Author
	}
	if c.Snake.Color != "" {
		info.Color = c.Snake.Color
	}
	if c.Snake.Head != "" {
		info.Head = c.Snake.Head
	}
	if c.Snake.Tail != "" {
		info.Tail = c.Snake.Tail
	}
	return info
}

func (c Config) LogOptions() logging.Options {
	format, _ := logging.ParseFormat(c.Log.Format)
	return logging.Options{Level: c.Log.Level, Format: format, AddSource: c.Log.AddSource}
}

// Environment variable helpers
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// getEnvBoolOrDefault accepts strconv.ParseBool forms plus yes/no and on/off.
func getEnvBoolOrDefault(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	switch strings.ToLower(val) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
