package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultLogLevel      = "info"
	DefaultLogFile       = "~/.config/statusmirror/statusmirror.log"
	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 5
	DefaultLogMaxAgeDays = 30

	DefaultZabbixUser        = "Admin"
	DefaultZabbixPasswordEnv = "ZABBIX_PASSWORD"
	DefaultZabbixTimeout     = 30
	DefaultZabbixRateLimit   = 10.0

	DefaultCachetTokenEnv  = "CACHET_TOKEN"
	DefaultCachetTimeout   = 30
	DefaultCachetRateLimit = 10.0

	DefaultSyncComponentInterval = 300
	DefaultSyncIncidentInterval  = 60
	DefaultSyncMetricInterval    = 3600
	DefaultSyncMaxBackoff        = 600

	DefaultDaemonHTTPPort        = 7700
	DefaultDaemonHTTPBind        = "127.0.0.1"
	DefaultDaemonShutdownTimeout = 30
	DefaultDaemonMetricsInterval = 15

	DefaultLeaseAddress = "127.0.0.1:6379"
	DefaultLeaseKey     = "statusmirror:writer"
	DefaultLeaseTTL     = 30
)

// setDefaults registers all default configuration values with a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)
	v.SetDefault("log.max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age_days", DefaultLogMaxAgeDays)
	v.SetDefault("log.compress", true)

	// Zabbix defaults
	v.SetDefault("zabbix.server", "")
	v.SetDefault("zabbix.user", DefaultZabbixUser)
	v.SetDefault("zabbix.password_env", DefaultZabbixPasswordEnv)
	v.SetDefault("zabbix.basic_auth", false)
	v.SetDefault("zabbix.https_verify", true)
	v.SetDefault("zabbix.timeout", DefaultZabbixTimeout)
	v.SetDefault("zabbix.rate_limit", DefaultZabbixRateLimit)

	// Cachet defaults
	v.SetDefault("cachet.server", "")
	v.SetDefault("cachet.token_env", DefaultCachetTokenEnv)
	v.SetDefault("cachet.https_verify", true)
	v.SetDefault("cachet.timeout", DefaultCachetTimeout)
	v.SetDefault("cachet.rate_limit", DefaultCachetRateLimit)

	// Sync defaults
	v.SetDefault("sync.root_service", "")
	v.SetDefault("sync.component_interval", DefaultSyncComponentInterval)
	v.SetDefault("sync.incident_interval", DefaultSyncIncidentInterval)
	v.SetDefault("sync.metric_interval", DefaultSyncMetricInterval)
	v.SetDefault("sync.max_backoff", DefaultSyncMaxBackoff)
	v.SetDefault("sync.metric_services", []string{})
	v.SetDefault("sync.time_zone", "")

	// Daemon defaults
	v.SetDefault("daemon.http_port", DefaultDaemonHTTPPort)
	v.SetDefault("daemon.http_bind", DefaultDaemonHTTPBind)
	v.SetDefault("daemon.shutdown_timeout", DefaultDaemonShutdownTimeout)
	v.SetDefault("daemon.metrics_interval", DefaultDaemonMetricsInterval)

	// Lease defaults
	v.SetDefault("lease.enabled", false)
	v.SetDefault("lease.address", DefaultLeaseAddress)
	v.SetDefault("lease.password_env", "")
	v.SetDefault("lease.db", 0)
	v.SetDefault("lease.key", DefaultLeaseKey)
	v.SetDefault("lease.ttl", DefaultLeaseTTL)
}

// NewDefaultConfig returns a Config populated with default values.
func NewDefaultConfig() Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults are static and always decode.
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}
	return cfg
}
