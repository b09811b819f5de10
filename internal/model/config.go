package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Receive protocols supported by the client.
const (
	ProtocolIMAP = "imap"
	ProtocolPOP3 = "pop3"
)

// HostConfiguration holds the server settings for one mail account:
// the receiving store (IMAP or POP3) and the SMTP submission host.
// TLS is always required on both sides.
//
// The password is never written to the config file; it lives in the system
// keyring keyed by ID. Configurations are passed by value so a request in
// flight keeps working against the settings it started with.
type HostConfiguration struct {
	// ID is the unique identifier for this configuration.
	ID string `mapstructure:"id" yaml:"id"`

	// ReceiveProtocol is "imap" or "pop3".
	ReceiveProtocol string `mapstructure:"receive_protocol" yaml:"receive_protocol"`

	ReceiveHost string `mapstructure:"receive_host" yaml:"receive_host"`
	ReceivePort int    `mapstructure:"receive_port" yaml:"receive_port"`

	// SendHost and SendPort point at the SMTP submission endpoint.
	SendHost string `mapstructure:"send_host" yaml:"send_host"`
	SendPort int    `mapstructure:"send_port" yaml:"send_port"`

	Username string `mapstructure:"username" yaml:"username"`

	// Password is resolved from the keyring at use time.
	Password string `mapstructure:"-" yaml:"-"`
}

// Validate checks that the configuration is complete enough to connect.
func (h HostConfiguration) Validate() error {
	if h.ReceiveProtocol != ProtocolIMAP && h.ReceiveProtocol != ProtocolPOP3 {
		return fmt.Errorf("unsupported receive protocol %q", h.ReceiveProtocol)
	}
	if h.ReceiveHost == "" {
		return fmt.Errorf("receive host is required")
	}
	if h.SendHost == "" {
		return fmt.Errorf("send host is required")
	}
	if h.Username == "" {
		return fmt.Errorf("username is required")
	}
	if h.ReceivePort <= 0 {
		return fmt.Errorf("receive port must be positive, got %d", h.ReceivePort)
	}
	if h.SendPort <= 0 {
		return fmt.Errorf("send port must be positive, got %d", h.SendPort)
	}
	return nil
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme        string `mapstructure:"theme" yaml:"theme"`
	CacheEnabled bool   `mapstructure:"cache_enabled" yaml:"cache_enabled"`
	FetchLimit   int    `mapstructure:"fetch_limit" yaml:"fetch_limit"`
}

// AppConfig is the top-level application configuration: the saved host
// configurations plus which one is currently active.
type AppConfig struct {
	Hosts         []HostConfiguration `mapstructure:"hosts" yaml:"hosts"`
	CurrentHostID string              `mapstructure:"current_host_id" yaml:"current_host_id"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
}

// CurrentHost returns the active host configuration, or nil if none is set.
func (c *AppConfig) CurrentHost() *HostConfiguration {
	for i := range c.Hosts {
		if c.Hosts[i].ID == c.CurrentHostID {
			return &c.Hosts[i]
		}
	}
	return nil
}

// SetHost inserts or replaces a host configuration by ID and makes it current.
func (c *AppConfig) SetHost(h HostConfiguration) {
	for i := range c.Hosts {
		if c.Hosts[i].ID == h.ID {
			c.Hosts[i] = h
			c.CurrentHostID = h.ID
			return
		}
	}
	c.Hosts = append(c.Hosts, h)
	c.CurrentHostID = h.ID
}

// DefaultHostConfiguration returns a configuration pre-filled with the usual
// TLS ports (993 for IMAP, 465 for SMTP submission).
func DefaultHostConfiguration() HostConfiguration {
	return HostConfiguration{
		ReceiveProtocol: ProtocolIMAP,
		ReceivePort:     993,
		SendPort:        465,
	}
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailterm/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailterm", "config.yaml")
}

// DefaultCacheDir returns the directory for per-folder message snapshots.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "mailterm-cache")
	}
	return filepath.Join(home, ".cache", "mailterm")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Display: DisplayConfig{
			Theme:        "default",
			CacheEnabled: true,
			FetchLimit:   20,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing or unreadable file yields the default configuration; startup is
// best-effort and never blocks on a corrupt config.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.cache_enabled", true)
	v.SetDefault("display.fetch_limit", 20)

	// A missing or unreadable file is not fatal; start from defaults.
	if err := v.ReadInConfig(); err != nil {
		return defaultAppConfig(), nil
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return defaultAppConfig(), nil
	}

	// Apply port defaults for entries saved by older versions.
	for i := range cfg.Hosts {
		if cfg.Hosts[i].ReceiveProtocol == "" {
			cfg.Hosts[i].ReceiveProtocol = ProtocolIMAP
		}
		if cfg.Hosts[i].ReceivePort == 0 {
			cfg.Hosts[i].ReceivePort = 993
		}
		if cfg.Hosts[i].SendPort == 0 {
			cfg.Hosts[i].SendPort = 465
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. Passwords are not written.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("hosts", cfg.Hosts)
	v.Set("current_host_id", cfg.CurrentHostID)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
