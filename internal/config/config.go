package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Version is the release version, overridable at build time with -ldflags.
var Version = "0.1.0"

// Config holds all pipelens configuration.
type Config struct {
	ChunkSize int // lines decoded per cooperative chunk
	TopN      int // rows in the top-N derived statistics views
	Log       LogConfig
	Server    ServerConfig
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
}

// ServerConfig holds the JSON API settings.
type ServerConfig struct {
	Host       string
	Port       int
	EnableCORS bool
}

// Load reads configuration from PIPELENS_* environment variables (and any
// flags bound into viper by the CLI) with sensible defaults.
func Load() Config {
	v := viper.GetViper()
	setDefaults(v)
	v.SetEnvPrefix("PIPELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return Config{
		ChunkSize: v.GetInt("chunk_size"),
		TopN:      v.GetInt("top_n"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Server: ServerConfig{
			Host:       v.GetString("server.host"),
			Port:       v.GetInt("server.port"),
			EnableCORS: v.GetBool("server.cors"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("top_n", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors", true)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if c.TopN < 0 {
		errs = append(errs, fmt.Errorf("top_n must not be negative, got %d", c.TopN))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be 'text' or 'json', got %q", c.Log.Format))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port out of range: %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

// Addr returns the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
