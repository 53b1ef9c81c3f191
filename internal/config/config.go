package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat          string        `mapstructure:"log_format" yaml:"log_format"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RoomBufferSize     int           `mapstructure:"room_buffer_size" yaml:"room_buffer_size"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":3000",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		MaxMessageBytes:    64 << 10,
		RoomBufferSize:     69,
		RateLimitPerMinute: 0,
		AllowedOrigins:     []string{"*"},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RoomBufferSize != 0 {
		c.RoomBufferSize = other.RoomBufferSize
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = append([]string(nil), other.AllowedOrigins...)
	}
}

// Validate reports the first setting that cannot be used to start the server.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errInvalid("addr", "must not be empty")
	case c.RoomBufferSize <= 0:
		return errInvalid("room_buffer_size", "must be positive")
	case c.MaxMessageBytes <= 0:
		return errInvalid("max_message_bytes", "must be positive")
	case c.RateLimitPerMinute < 0:
		return errInvalid("rate_limit_per_minute", "must not be negative")
	case c.LogFormat != "" && c.LogFormat != "console" && c.LogFormat != "json":
		return errInvalid("log_format", "must be console or json")
	}
	return nil
}
