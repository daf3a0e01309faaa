package config

import (
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.LogFile != DefaultLogFile {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, DefaultLogFile)
	}
	if cfg.Sync.ComponentInterval != DefaultSyncComponentInterval {
		t.Errorf("Sync.ComponentInterval = %d, want %d", cfg.Sync.ComponentInterval, DefaultSyncComponentInterval)
	}
	if cfg.Sync.IncidentInterval != DefaultSyncIncidentInterval {
		t.Errorf("Sync.IncidentInterval = %d, want %d", cfg.Sync.IncidentInterval, DefaultSyncIncidentInterval)
	}
	if cfg.Daemon.HTTPPort != DefaultDaemonHTTPPort {
		t.Errorf("Daemon.HTTPPort = %d, want %d", cfg.Daemon.HTTPPort, DefaultDaemonHTTPPort)
	}
	if !cfg.Zabbix.HTTPSVerify || !cfg.Cachet.HTTPSVerify {
		t.Error("TLS verification should be enabled by default")
	}
	if cfg.Lease.Enabled {
		t.Error("lease should be disabled by default")
	}
}

func TestSyncConfig_Durations(t *testing.T) {
	s := SyncConfig{ComponentInterval: 60, IncidentInterval: 15, MetricInterval: 3600, MaxBackoff: 300}

	if got := s.ComponentEvery(); got != time.Minute {
		t.Errorf("ComponentEvery() = %v", got)
	}
	if got := s.IncidentEvery(); got != 15*time.Second {
		t.Errorf("IncidentEvery() = %v", got)
	}
	if got := s.MetricEvery(); got != time.Hour {
		t.Errorf("MetricEvery() = %v", got)
	}
	if got := s.MaxBackoffDuration(); got != 5*time.Minute {
		t.Errorf("MaxBackoffDuration() = %v", got)
	}
}

func TestSyncConfig_Location(t *testing.T) {
	if got := (SyncConfig{}).Location(); got != time.Local {
		t.Errorf("empty zone should be local, got %v", got)
	}
	if got := (SyncConfig{TimeZone: "UTC"}).Location(); got.String() != "UTC" {
		t.Errorf("UTC zone = %v", got)
	}
	if got := (SyncConfig{TimeZone: "Nowhere/Land"}).Location(); got != time.Local {
		t.Errorf("unknown zone should fall back to local, got %v", got)
	}
}

func TestResolvePassword_PrefersInlineValue(t *testing.T) {
	t.Setenv("ZBX_TEST_PASS", "env")
	inline := "inline"

	c := ZabbixConfig{Password: &inline, PasswordEnv: "ZBX_TEST_PASS"}
	if got := c.ResolvePassword(); got != "inline" {
		t.Errorf("ResolvePassword() = %q, want inline", got)
	}

	c.Password = nil
	if got := c.ResolvePassword(); got != "env" {
		t.Errorf("ResolvePassword() = %q, want env", got)
	}
}
