package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the root configuration structure for the application
type Config struct {
	Decoder DecoderConfig `mapstructure:"decoder"`
	Reader  ReaderConfig  `mapstructure:"reader"`
	Client  ClientConfig  `mapstructure:"client"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

// DecoderConfig defines the limits and null handling of the RESP decoder
type DecoderConfig struct {
	MaxDepth      int  `mapstructure:"max_depth"`      // maximum array nesting
	PreserveEmpty bool `mapstructure:"preserve_empty"` // keep $0/*0 apart from $-1/*-1
}

// ReaderConfig defines stream reading limits
type ReaderConfig struct {
	MaxBuffer int `mapstructure:"max_buffer"` // bytes kept for one pending value
}

// ClientConfig holds the network settings of the command client
type ClientConfig struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds the network settings of the inspecting server
type ServerConfig struct {
	Listen    string `mapstructure:"listen"`
	ReusePort bool   `mapstructure:"reuseport"` // bind with SO_REUSEPORT
}

// LogConfig defines logging verbosity and output style
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"max-depth":      "decoder.max_depth",
	"preserve-empty": "decoder.preserve_empty",
	"max-buffer":     "reader.max_buffer",
	"addr":           "client.addr",
	"timeout":        "client.timeout",
	"listen":         "server.listen",
	"reuseport":      "server.reuseport",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// Load reads the configuration from a file and overrides it with environment variables
// and, when flags is not nil, with the flags the user has set
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(".")

	v.SetEnvPrefix("INHALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Decoder.MaxDepth < 0 {
		return fmt.Errorf("decoder.max_depth must not be negative, got %d", c.Decoder.MaxDepth)
	}
	if c.Reader.MaxBuffer <= 0 {
		return fmt.Errorf("reader.max_buffer must be positive, got %d", c.Reader.MaxBuffer)
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive, got %s", c.Client.Timeout)
	}
	return nil
}

// setDefaults populates viper with fallback values if they are not provided via file or ENV
func setDefaults(v *viper.Viper) {
	// Decoder
	v.SetDefault("decoder.max_depth", 512)
	v.SetDefault("decoder.preserve_empty", false)

	// Reader
	v.SetDefault("reader.max_buffer", 64<<20)

	// Client
	v.SetDefault("client.addr", "127.0.0.1:6379")
	v.SetDefault("client.timeout", "5s")

	// Server
	v.SetDefault("server.listen", "127.0.0.1:6380")
	v.SetDefault("server.reuseport", false)

	// Logger
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
