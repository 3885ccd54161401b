// Package config resolves server settings from flags, environment variables
// and an optional config file.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TOON_PORT.
const EnvPrefix = "TOON"

// Keys shared by flags, environment and config file.
const (
	KeyMode      = "mode"
	KeyHost      = "host"
	KeyPort      = "port"
	KeyVerbose   = "verbose"
	KeyLogFormat = "log-format"
	KeyConfig    = "config"
)

// Server modes.
const (
	ModeMCP  = "mcp"
	ModeHTTP = "http"
)

// Config is the resolved server configuration.
type Config struct {
	Mode      string
	Host      string
	Port      int
	Verbose   bool
	LogFormat string
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyMode, ModeMCP)
	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyLogFormat, "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Mode:      strings.ToLower(strings.TrimSpace(v.GetString(KeyMode))),
		Host:      v.GetString(KeyHost),
		Port:      v.GetInt(KeyPort),
		Verbose:   v.GetBool(KeyVerbose),
		LogFormat: v.GetString(KeyLogFormat),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the mode and port range.
func (c *Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeMCP, ModeHTTP:
	default:
		errs = append(errs, fmt.Errorf("invalid mode %q: must be %s or %s", c.Mode, ModeMCP, ModeHTTP))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	return errors.Join(errs...)
}
