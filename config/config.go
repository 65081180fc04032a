package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "CALLMATCH_"

// Config holds all configuration for the service
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Upload  UploadConfig  `yaml:"upload"`
	Phone   PhoneConfig   `yaml:"phone"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	CORS    CORSConfig    `yaml:"cors"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host                   string `yaml:"host" validate:"required"`
	Port                   int    `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds" validate:"min=1"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds" validate:"min=1"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds" validate:"min=1"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReadTimeout returns the read timeout as a duration
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown window
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// UploadConfig bounds uploaded reports and the results preview
type UploadConfig struct {
	MaxUploadMB int `yaml:"max_upload_mb" validate:"min=1,max=1024"`
	PreviewRows int `yaml:"preview_rows" validate:"min=1"`
}

// MaxBytes is the request body limit in bytes.
func (c UploadConfig) MaxBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// PhoneConfig holds number formatting settings
type PhoneConfig struct {
	Region string `yaml:"region" validate:"len=2,uppercase"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// MetricsConfig holds the Prometheus listener settings
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"min=1,max=65535"`
}

// CORSConfig holds the allowed origins of the JSON API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 60
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 60
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 15
	}
	if c.Upload.MaxUploadMB == 0 {
		c.Upload.MaxUploadMB = 32
	}
	if c.Upload.PreviewRows == 0 {
		c.Upload.PreviewRows = 5
	}
	if c.Phone.Region == "" {
		c.Phone.Region = "US"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 9090
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

// Load reads and parses the configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.setDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file in the working directory is loaded first when present.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("SERVER_HOST", &c.Server.Host)
	num("SERVER_PORT", &c.Server.Port)
	num("SERVER_READ_TIMEOUT_SECONDS", &c.Server.ReadTimeoutSeconds)
	num("SERVER_WRITE_TIMEOUT_SECONDS", &c.Server.WriteTimeoutSeconds)
	num("SERVER_SHUTDOWN_TIMEOUT_SECONDS", &c.Server.ShutdownTimeoutSeconds)
	num("UPLOAD_MAX_UPLOAD_MB", &c.Upload.MaxUploadMB)
	num("UPLOAD_PREVIEW_ROWS", &c.Upload.PreviewRows)
	str("PHONE_REGION", &c.Phone.Region)
	str("LOG_LEVEL", &c.Log.Level)
	num("METRICS_PORT", &c.Metrics.Port)

	if v, ok := os.LookupEnv(EnvPrefix + "METRICS_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMETRICS_ENABLED: %w", EnvPrefix, err))
		} else {
			c.Metrics.Enabled = b
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CORS_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}
	return errors.Join(errs...)
}

// Validate checks the loaded values against their constraints.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
