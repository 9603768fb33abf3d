// Package config loads the settings of a jambonz websocket server from a
// YAML file and JAMBONZWS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Routes    RoutesConfig    `yaml:"routes"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
}

type ServerConfig struct {
	BindIP   string `yaml:"bind_ip"`
	BindPort int    `yaml:"bind_port"`
}

// RoutesConfig holds the paths of the two standard routes. An empty path
// disables that route.
type RoutesConfig struct {
	WSPath     string       `yaml:"ws_path"`
	RecordPath string       `yaml:"record_path"`
	Extra      []ExtraRoute `yaml:"extra"`
}

// ExtraRoute is an additional route; Flavor is "hook" or "recording".
type ExtraRoute struct {
	Path   string `yaml:"path"`
	Flavor string `yaml:"flavor"`
}

// HeartbeatConfig uses Go duration strings ("5s", "250ms").
type HeartbeatConfig struct {
	PingPeriod time.Duration `yaml:"ping_period"`
	PongPeriod time.Duration `yaml:"pong_period"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			BindIP:   "0.0.0.0",
			BindPort: 8080,
		},
		Routes: RoutesConfig{
			WSPath:     "/ws",
			RecordPath: "/record",
		},
		Heartbeat: HeartbeatConfig{
			PingPeriod: 5 * time.Second,
			PongPeriod: 10 * time.Second,
		},
	}
}

// Load reads a YAML config file, applies env var overrides and validates the
// result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps JAMBONZWS_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("JAMBONZWS_BIND_IP"); v != "" {
		cfg.Server.BindIP = v
	}
	if v := os.Getenv("JAMBONZWS_BIND_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: JAMBONZWS_BIND_PORT=%q: %v", ErrInvalidConfig, v, err)
		}
		cfg.Server.BindPort = port
	}
	if v, ok := os.LookupEnv("JAMBONZWS_WS_PATH"); ok {
		cfg.Routes.WSPath = v
	}
	if v, ok := os.LookupEnv("JAMBONZWS_RECORD_PATH"); ok {
		cfg.Routes.RecordPath = v
	}
	if v := os.Getenv("JAMBONZWS_PING_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: JAMBONZWS_PING_PERIOD=%q: %v", ErrInvalidConfig, v, err)
		}
		cfg.Heartbeat.PingPeriod = d
	}
	if v := os.Getenv("JAMBONZWS_PONG_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: JAMBONZWS_PONG_PERIOD=%q: %v", ErrInvalidConfig, v, err)
		}
		cfg.Heartbeat.PongPeriod = d
	}
	return nil
}

// Validate checks the config for values the server cannot run with.
func Validate(cfg *Config) error {
	var errs []error
	if cfg.Server.BindPort < 0 || cfg.Server.BindPort > 65535 {
		errs = append(errs, fmt.Errorf("server.bind_port %d out of range", cfg.Server.BindPort))
	}
	paths := map[string]string{}
	checkPath := func(field, path string) {
		if path == "" {
			return
		}
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, fmt.Errorf("%s %q must start with /", field, path))
			return
		}
		if other, dup := paths[path]; dup {
			errs = append(errs, fmt.Errorf("%s %q already used by %s", field, path, other))
			return
		}
		paths[path] = field
	}
	checkPath("routes.ws_path", cfg.Routes.WSPath)
	checkPath("routes.record_path", cfg.Routes.RecordPath)
	for i, r := range cfg.Routes.Extra {
		field := fmt.Sprintf("routes.extra[%d]", i)
		checkPath(field, r.Path)
		if r.Path == "" {
			errs = append(errs, fmt.Errorf("%s has no path", field))
		}
		switch strings.ToLower(strings.TrimSpace(r.Flavor)) {
		case "hook", "recording", "record":
		default:
			errs = append(errs, fmt.Errorf("%s flavor %q must be hook or recording", field, r.Flavor))
		}
	}
	hb := cfg.Heartbeat
	if hb.PingPeriod <= 0 {
		errs = append(errs, fmt.Errorf("heartbeat.ping_period must be positive, got %s", hb.PingPeriod))
	} else if hb.PongPeriod < 2*hb.PingPeriod {
		errs = append(errs, fmt.Errorf("heartbeat.pong_period %s must be at least twice ping_period %s", hb.PongPeriod, hb.PingPeriod))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
