package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvironmentVariable selects which configuration files are loaded.
const EnvironmentVariable = "SERVER_ENVIRONMENT"

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Middleware    MiddlewareConfig    `mapstructure:"middleware"`
	Info          InfoConfig          `mapstructure:"info"`
}

type ServerConfig struct {
	Framework    string        `mapstructure:"framework"` // fiber, http or echo
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type ObservabilityConfig struct {
	SkipPaths       []string      `mapstructure:"skip_paths"`
	RequestIDHeader string        `mapstructure:"request_id_header"`
	BodyLimit       int64         `mapstructure:"body_limit"` // bytes of request body kept on errors
	Metrics         MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// MiddlewareConfig toggles the stages of the default middleware stack.
type MiddlewareConfig struct {
	CORS              bool     `mapstructure:"cors"`
	Compress          bool     `mapstructure:"compress"`
	CompressMimetypes []string `mapstructure:"compress_mimetypes"`
	ReverseProxy      bool     `mapstructure:"reverse_proxy"`
}

// InfoConfig is published by the service info endpoint.
type InfoConfig struct {
	Title   string `mapstructure:"title"`
	Version string `mapstructure:"version"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	// Sink selects the request record backend: zerolog or zap.
	Sink string `mapstructure:"sink"`
}

// Environment returns the current server environment.
func Environment() string {
	if env := os.Getenv(EnvironmentVariable); env != "" {
		return env
	}
	return "default"
}

// LoadConfig reads configuration_<environment>.yml from folder. A missing
// file is not an error: defaults are returned instead.
func LoadConfig(folder string) (*Config, error) {
	v := newViper(filepath.Join(folder, fmt.Sprintf("configuration_%s.yml", Environment())))
	v.SetDefault("server.framework", "fiber")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("observability.skip_paths", []string{"/health"})
	v.SetDefault("observability.request_id_header", "X-Request-Id")
	v.SetDefault("observability.body_limit", 4*1024*1024)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.metrics.namespace", "gozlem")
	v.SetDefault("middleware.cors", true)
	v.SetDefault("middleware.compress", false)
	v.SetDefault("middleware.compress_mimetypes", []string{})
	v.SetDefault("middleware.reverse_proxy", true)
	v.SetDefault("info.title", "gozlem")
	v.SetDefault("info.version", "dev")

	if err := read(v); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return &config, nil
}

// LoadLogConfig reads logging_<environment>.yml from folder. Without the
// file logging happens at info level, as JSON on stdout.
func LoadLogConfig(folder string) (*LogConfig, error) {
	v := newViper(filepath.Join(folder, fmt.Sprintf("logging_%s.yml", Environment())))
	v.SetDefault("level", "info")
	v.SetDefault("format", "json")
	v.SetDefault("sink", "zerolog")

	if err := read(v); err != nil {
		return nil, err
	}

	var config LogConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode logging configuration: %w", err)
	}
	return &config, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func read(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		log.Info().Str("file", v.ConfigFileUsed()).Msg("Configuration loaded")
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
		log.Warn().Str("file", v.ConfigFileUsed()).Msg("Configuration file cannot be found, using defaults")
		return nil
	}
	return fmt.Errorf("read %s: %w", v.ConfigFileUsed(), err)
}
