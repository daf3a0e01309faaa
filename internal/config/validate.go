package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// validLogLevels lists recognized log levels.
var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the configuration for errors.
// Returns ValidationErrors if validation fails.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !validLogLevels[strings.ToLower(strings.TrimSpace(cfg.LogLevel))] {
		add("log_level", "must be one of: debug, info, warn, warning, error; got %q", cfg.LogLevel)
	}
	if cfg.Log.MaxSizeMB < 1 {
		add("log.max_size_mb", "must be at least 1, got %d", cfg.Log.MaxSizeMB)
	}
	if cfg.Log.MaxBackups < 0 {
		add("log.max_backups", "must be non-negative, got %d", cfg.Log.MaxBackups)
	}
	if cfg.Log.MaxAgeDays < 0 {
		add("log.max_age_days", "must be non-negative, got %d", cfg.Log.MaxAgeDays)
	}

	// Validate zabbix config
	if err := validateURL(cfg.Zabbix.Server); err != "" {
		add("zabbix.server", "%s", err)
	}
	if cfg.Zabbix.User == "" {
		add("zabbix.user", "must not be empty")
	}
	if cfg.Zabbix.ResolvePassword() == "" {
		add("zabbix.password", "must be set directly or through the variable named by zabbix.password_env (%q)", cfg.Zabbix.PasswordEnv)
	}
	if cfg.Zabbix.Timeout < 0 {
		add("zabbix.timeout", "must be non-negative, got %d", cfg.Zabbix.Timeout)
	}
	if cfg.Zabbix.RateLimit < 0 {
		add("zabbix.rate_limit", "must be non-negative, got %v", cfg.Zabbix.RateLimit)
	}

	// Validate cachet config
	if err := validateURL(cfg.Cachet.Server); err != "" {
		add("cachet.server", "%s", err)
	}
	if cfg.Cachet.ResolveToken() == "" {
		add("cachet.token", "must be set directly or through the variable named by cachet.token_env (%q)", cfg.Cachet.TokenEnv)
	}
	if cfg.Cachet.Timeout < 0 {
		add("cachet.timeout", "must be non-negative, got %d", cfg.Cachet.Timeout)
	}
	if cfg.Cachet.RateLimit < 0 {
		add("cachet.rate_limit", "must be non-negative, got %v", cfg.Cachet.RateLimit)
	}

	// Validate sync config
	if cfg.Sync.ComponentInterval < 1 {
		add("sync.component_interval", "must be at least 1 second, got %d", cfg.Sync.ComponentInterval)
	}
	if cfg.Sync.IncidentInterval < 1 {
		add("sync.incident_interval", "must be at least 1 second, got %d", cfg.Sync.IncidentInterval)
	}
	if cfg.Sync.MetricInterval < 1 {
		add("sync.metric_interval", "must be at least 1 second, got %d", cfg.Sync.MetricInterval)
	}
	if cfg.Sync.MaxBackoff < 1 {
		add("sync.max_backoff", "must be at least 1 second, got %d", cfg.Sync.MaxBackoff)
	}
	seen := make(map[string]bool, len(cfg.Sync.MetricServices))
	for i, name := range cfg.Sync.MetricServices {
		field := fmt.Sprintf("sync.metric_services[%d]", i)
		if strings.TrimSpace(name) == "" {
			add(field, "must not be empty")
			continue
		}
		if seen[name] {
			add(field, "duplicate service %q", name)
		}
		seen[name] = true
	}
	if cfg.Sync.TimeZone != "" {
		if _, err := time.LoadLocation(cfg.Sync.TimeZone); err != nil {
			add("sync.time_zone", "unknown time zone %q", cfg.Sync.TimeZone)
		}
	}

	// Validate daemon config
	if cfg.Daemon.HTTPPort < 0 || cfg.Daemon.HTTPPort > 65535 {
		add("daemon.http_port", "must be between 0 and 65535, got %d", cfg.Daemon.HTTPPort)
	}
	if cfg.Daemon.HTTPPort > 0 && cfg.Daemon.HTTPBind == "" {
		add("daemon.http_bind", "must not be empty")
	}
	if cfg.Daemon.ShutdownTimeout < 1 {
		add("daemon.shutdown_timeout", "must be at least 1 second, got %d", cfg.Daemon.ShutdownTimeout)
	}
	if cfg.Daemon.MetricsInterval < 1 {
		add("daemon.metrics_interval", "must be at least 1 second, got %d", cfg.Daemon.MetricsInterval)
	}

	// Validate lease config (only if enabled)
	if cfg.Lease.Enabled {
		if cfg.Lease.Address == "" {
			add("lease.address", "must not be empty when the lease is enabled")
		}
		if cfg.Lease.Key == "" {
			add("lease.key", "must not be empty when the lease is enabled")
		}
		if cfg.Lease.TTL < 3 {
			add("lease.ttl", "must be at least 3 seconds, got %d", cfg.Lease.TTL)
		}
		if cfg.Lease.DB < 0 {
			add("lease.db", "must be non-negative, got %d", cfg.Lease.DB)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string) string {
	if raw == "" {
		return "must not be empty"
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Sprintf("must be an http(s) URL, got %q", raw)
	}
	return ""
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
