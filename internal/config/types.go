package config

import (
	"os"
	"time"
)

// Config is the root configuration structure for the application.
type Config struct {
	LogLevel string       `yaml:"log_level" mapstructure:"log_level"`
	LogFile  string       `yaml:"log_file" mapstructure:"log_file"`
	Log      LogConfig    `yaml:"log" mapstructure:"log"`
	Zabbix   ZabbixConfig `yaml:"zabbix" mapstructure:"zabbix"`
	Cachet   CachetConfig `yaml:"cachet" mapstructure:"cachet"`
	Sync     SyncConfig   `yaml:"sync" mapstructure:"sync"`
	Daemon   DaemonConfig `yaml:"daemon" mapstructure:"daemon"`
	Lease    LeaseConfig  `yaml:"lease" mapstructure:"lease"`
}

// LogConfig holds log file rotation settings.
type LogConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// ZabbixConfig holds monitoring server connection settings.
type ZabbixConfig struct {
	Server      string  `yaml:"server" mapstructure:"server"`
	User        string  `yaml:"user" mapstructure:"user"`
	Password    *string `yaml:"password,omitempty" mapstructure:"password"`
	PasswordEnv string  `yaml:"password_env" mapstructure:"password_env"`
	BasicAuth   bool    `yaml:"basic_auth" mapstructure:"basic_auth"`
	HTTPSVerify bool    `yaml:"https_verify" mapstructure:"https_verify"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ResolvePassword returns the password from config or falls back to environment variable.
func (c *ZabbixConfig) ResolvePassword() string {
	if c.Password != nil && *c.Password != "" {
		return *c.Password
	}
	return os.Getenv(c.PasswordEnv)
}

// CachetConfig holds status page connection settings.
type CachetConfig struct {
	Server      string  `yaml:"server" mapstructure:"server"`
	Token       *string `yaml:"token,omitempty" mapstructure:"token"`
	TokenEnv    string  `yaml:"token_env" mapstructure:"token_env"`
	HTTPSVerify bool    `yaml:"https_verify" mapstructure:"https_verify"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ResolveToken returns the API token from config or falls back to environment variable.
func (c *CachetConfig) ResolveToken() string {
	if c.Token != nil && *c.Token != "" {
		return *c.Token
	}
	return os.Getenv(c.TokenEnv)
}

// SyncConfig holds the mirroring settings. Intervals are in seconds.
type SyncConfig struct {
	RootService       string   `yaml:"root_service" mapstructure:"root_service"`
	ComponentInterval int      `yaml:"component_interval" mapstructure:"component_interval"`
	IncidentInterval  int      `yaml:"incident_interval" mapstructure:"incident_interval"`
	MetricInterval    int      `yaml:"metric_interval" mapstructure:"metric_interval"`
	MaxBackoff        int      `yaml:"max_backoff" mapstructure:"max_backoff"`
	MetricServices    []string `yaml:"metric_services,flow" mapstructure:"metric_services"`
	TimeZone          string   `yaml:"time_zone" mapstructure:"time_zone"`
}

// ComponentEvery returns the topology sync interval.
func (c SyncConfig) ComponentEvery() time.Duration {
	return time.Duration(c.ComponentInterval) * time.Second
}

// IncidentEvery returns the incident poll interval.
func (c SyncConfig) IncidentEvery() time.Duration {
	return time.Duration(c.IncidentInterval) * time.Second
}

// MetricEvery returns the uptime metric interval, which is also the SLA window.
func (c SyncConfig) MetricEvery() time.Duration {
	return time.Duration(c.MetricInterval) * time.Second
}

// MaxBackoffDuration returns the longest delay between failed ticks.
func (c SyncConfig) MaxBackoffDuration() time.Duration {
	return time.Duration(c.MaxBackoff) * time.Second
}

// Location returns the time zone used in incident messages.
// An empty or unknown zone falls back to local time.
func (c SyncConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	HTTPPort        int    `yaml:"http_port" mapstructure:"http_port"`
	HTTPBind        string `yaml:"http_bind" mapstructure:"http_bind"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"` // seconds
	MetricsInterval int    `yaml:"metrics_interval" mapstructure:"metrics_interval"` // seconds
}

// LeaseConfig holds the optional Redis writer lease settings.
type LeaseConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Address     string `yaml:"address" mapstructure:"address"`
	PasswordEnv string `yaml:"password_env" mapstructure:"password_env"`
	DB          int    `yaml:"db" mapstructure:"db"`
	Key         string `yaml:"key" mapstructure:"key"`
	TTL         int    `yaml:"ttl" mapstructure:"ttl"` // seconds
}

// ResolvePassword returns the Redis password from the configured environment variable.
func (c *LeaseConfig) ResolvePassword() string {
	if c.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.PasswordEnv)
}
