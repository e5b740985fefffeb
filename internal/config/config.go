// Package config loads the optional YAML run configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/belasco/gpsgeomancy/internal/geomancy"
)

// Duration wraps time.Duration so YAML accepts "30s" style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// Config holds the run configuration. Any field left unset in the file keeps
// its default; command line flags override file values.
type Config struct {
	// Port is the serial device path of the GPS receiver.
	Port string `yaml:"port"`
	// Baud is the serial baud rate. Garmin etrex and similar tend to sit at
	// 4800; dataloggers are usually 115200.
	Baud int `yaml:"baud"`
	// Timeout bounds the wait for a complete satellite snapshot.
	Timeout Duration `yaml:"timeout"`
	// Verbose enables the decision trace on collector and selector.
	Verbose bool `yaml:"verbose"`
	// Parity maps cardinal names to a PRN parity preference (even, odd, or
	// none), overriding the Skinner defaults.
	Parity map[string]string `yaml:"parity"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:    "/dev/ttyUSB0",
		Baud:    4800,
		Timeout: Duration(30 * time.Second),
	}
}

// Load reads a YAML config file and validates it. Fields omitted from the
// file retain the defaults.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s", c.Timeout)
	}
	if _, err := c.ParityMap(); err != nil {
		return err
	}
	return nil
}

// ParityMap converts the parity section into the selector's mapping,
// starting from the defaults so partial overrides are safe.
func (c Config) ParityMap() (geomancy.ParityMap, error) {
	m := geomancy.DefaultParityMap()
	for name, word := range c.Parity {
		cardinal, err := geomancy.ParseCardinal(name)
		if err != nil {
			return nil, fmt.Errorf("parity: %w", err)
		}
		parity, err := geomancy.ParseParity(word)
		if err != nil {
			return nil, fmt.Errorf("parity for %s: %w", cardinal, err)
		}
		m[cardinal] = parity
	}
	return m, nil
}
