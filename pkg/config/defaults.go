package config

import "time"

// Default values for configuration fields.
const (
	// CA defaults
	DefaultCARootCertPath   = "certs/root.crt"
	DefaultCARootKeyPath    = "certs/root.key"
	DefaultCACacheCapacity  = 1000
	DefaultCACacheTTL       = 12 * time.Hour
	DefaultCAWatchForReload = true
	DefaultCAEnableHTTP2    = false

	// Store defaults
	DefaultStorePath               = "data/locust.db"
	DefaultStoreBusyTimeout        = 5 * time.Second
	DefaultStoreCheckpointInterval = 5 * time.Minute

	// Feedback defaults
	DefaultFeedbackChannelCapacity = 1024

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsEnabled       = true
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"

	// Admin defaults
	DefaultAdminListenAddress      = "0.0.0.0:3000"
	DefaultAdminRecalculateInterval = 5 * time.Minute
	DefaultAdminShutdownTimeout    = 30 * time.Second
	DefaultAdminDispatchTimeout    = 180 * time.Second
)

// ApplyDefaults fills any zero-valued field in cfg with its documented
// default, in place.
func ApplyDefaults(cfg *Config) {
	if cfg.CA.RootCertPath == "" {
		cfg.CA.RootCertPath = DefaultCARootCertPath
	}
	if cfg.CA.RootKeyPath == "" {
		cfg.CA.RootKeyPath = DefaultCARootKeyPath
	}
	if cfg.CA.CacheCapacity == 0 {
		cfg.CA.CacheCapacity = DefaultCACacheCapacity
	}
	if cfg.CA.CacheTTL == 0 {
		cfg.CA.CacheTTL = DefaultCACacheTTL
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = DefaultStoreBusyTimeout
	}
	if cfg.Store.CheckpointInterval == 0 {
		cfg.Store.CheckpointInterval = DefaultStoreCheckpointInterval
	}

	if cfg.Feedback.ChannelCapacity == 0 {
		cfg.Feedback.ChannelCapacity = DefaultFeedbackChannelCapacity
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Admin.ListenAddress == "" {
		cfg.Admin.ListenAddress = DefaultAdminListenAddress
	}
	if cfg.Admin.RecalculateInterval == 0 {
		cfg.Admin.RecalculateInterval = DefaultAdminRecalculateInterval
	}
	if cfg.Admin.ShutdownTimeout == 0 {
		cfg.Admin.ShutdownTimeout = DefaultAdminShutdownTimeout
	}
	if cfg.Admin.DispatchTimeout == 0 {
		cfg.Admin.DispatchTimeout = DefaultAdminDispatchTimeout
	}
}

// DefaultConfig returns a Config populated entirely with defaults, with
// CA.WatchForReload and Telemetry.Metrics.Enabled explicitly set since
// their zero value (false) is not the documented default.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.CA.WatchForReload = DefaultCAWatchForReload
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	return cfg
}
