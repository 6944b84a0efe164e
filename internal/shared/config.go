package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Clover  CloverConfig  `toml:"clover"`
	Server  ServerConfig  `toml:"server"`
	Proxy   ProxyConfig   `toml:"proxy"`
	Client  ClientConfig  `toml:"client"`
	Monitor MonitorConfig `toml:"monitor"`
	Log     LogConfig     `toml:"log"`
}

// CloverConfig contains the OAuth application credentials and vendor endpoints.
type CloverConfig struct {
	ClientID        string   `toml:"client_id" env:"CLOVER_CLIENT_ID"`
	ClientSecret    string   `toml:"client_secret" env:"CLOVER_CLIENT_SECRET"`
	AuthorizeURL    string   `toml:"authorize_url" env:"CLOVER_AUTHORIZE_URL"`
	TokenURL        string   `toml:"token_url" env:"CLOVER_TOKEN_URL"`
	APIBaseURL      string   `toml:"api_base_url" env:"CLOVER_API_BASE_URL"`
	ExchangeTimeout Duration `toml:"exchange_timeout" env:"CLOVER_EXCHANGE_TIMEOUT"`
}

// Configured reports whether both client credentials are present.
func (c CloverConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string `toml:"host" env:"BUTTER_HOST"`
	Port         int    `toml:"port" env:"PORT"`
	PublicURL    string `toml:"public_url" env:"BUTTER_PUBLIC_URL"`
	CallbackPath string `toml:"callback_path" env:"BUTTER_CALLBACK_PATH"`
	LoopbackPort int    `toml:"loopback_port" env:"BUTTER_LOOPBACK_PORT"`
	// TrustProxyHeaders lets X-Forwarded-Proto/Host decide the redirect_uri origin when public_url is empty.
	TrustProxyHeaders bool `toml:"trust_proxy_headers" env:"BUTTER_TRUST_PROXY_HEADERS"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProxyConfig contains API gateway settings.
type ProxyConfig struct {
	MountPrefix string   `toml:"mount_prefix" env:"BUTTER_PROXY_PREFIX"`
	Timeout     Duration `toml:"timeout" env:"BUTTER_PROXY_TIMEOUT"`
	Envelope    bool     `toml:"envelope" env:"BUTTER_PROXY_ENVELOPE"`
}

// ClientConfig contains settings for CLI commands that talk to a running gateway.
type ClientConfig struct {
	GatewayURL  string   `toml:"gateway_url" env:"BUTTER_GATEWAY_URL"`
	SessionPath string   `toml:"session_path" env:"BUTTER_SESSION_PATH"`
	Timeout     Duration `toml:"timeout" env:"BUTTER_CLIENT_TIMEOUT"`
}

// MonitorConfig contains inventory monitor settings.
type MonitorConfig struct {
	Interval Duration `toml:"interval" env:"BUTTER_MONITOR_INTERVAL"`
	Limit    int      `toml:"limit" env:"BUTTER_MONITOR_LIMIT"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"BUTTER_LOG_LEVEL"`
}

// Duration wraps [time.Duration] so it can be written as "10s" in TOML and the environment.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler] for both TOML and env decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// ResolveConfig builds the effective configuration: embedded defaults, then the TOML file at path when it exists,
// then a .env file in the working directory, then process environment variables.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}

	return &config
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
