// Package config loads the optional YAML settings file. Command-line flags
// override whatever the file sets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	DefaultBaudRate         = 115200
	DefaultLogFormat        = "console"
	DefaultDiscoveryTimeout = 5 * time.Second

	maxTimeout = 255
)

// Config is the resolved program configuration.
type Config struct {
	Device           string        `yaml:"device"`
	Timeout          int           `yaml:"timeout"`
	BaudRate         int           `yaml:"baud"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
	MetricsFile      string        `yaml:"metrics_file"`
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		BaudRate:         DefaultBaudRate,
		LogFormat:        DefaultLogFormat,
		DiscoveryTimeout: DefaultDiscoveryTimeout,
	}
}

// Load reads path over the defaults. An empty path returns Default().
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return cfg, fmt.Errorf("unsupported config format %q (only YAML supported)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: multiple documents or trailing content", path)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Timeout < 0 || c.Timeout > maxTimeout {
		errs = append(errs, fmt.Errorf("%w: timeout %d is outside 0..%d seconds", ErrInvalid, c.Timeout, maxTimeout))
	}
	if c.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: baud rate must be positive, got %d", ErrInvalid, c.BaudRate))
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log format %q is not one of json, console", ErrInvalid, c.LogFormat))
	}
	if c.DiscoveryTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: discovery timeout must not be negative", ErrInvalid))
	}
	return errors.Join(errs...)
}
