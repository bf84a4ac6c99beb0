// Package config defines Locust's configuration tree, defaults, YAML
// loading with environment variable overrides, and validation — following
// the teacher's config package shape
// (one section per subsystem, yaml-tagged structs, Default: doc-comment
// convention).
package config

import "time"

// Config is the root configuration structure for Locust.
type Config struct {
	// CA contains root certificate authority material and leaf-issuance
	// cache settings (spec §4.A).
	CA CAConfig `yaml:"ca"`

	// Store contains the persistence layer's connection settings (spec §4.B,
	// §4.C; the fleet, domain-coefficient, and session tables).
	Store StoreConfig `yaml:"store"`

	// Feedback contains the bounded feedback channel's settings (spec §4.D).
	Feedback FeedbackConfig `yaml:"feedback"`

	// Telemetry contains logging, metrics, and the line-protocol sink
	// settings (spec §4.D step 2, §6).
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Admin contains the lifecycle shell's listener and scheduling settings
	// (spec §4.F).
	Admin AdminConfig `yaml:"admin"`
}

// CAConfig configures the root certificate authority (spec §4.A).
type CAConfig struct {
	// RootCertPath is the PEM-encoded root CA certificate path.
	// Default: "certs/root.crt"
	RootCertPath string `yaml:"root_cert_path"`

	// RootKeyPath is the PEM-encoded root CA private key path.
	// Default: "certs/root.key"
	RootKeyPath string `yaml:"root_key_path"`

	// CacheCapacity bounds the number of cached per-authority leaf
	// tls.Configs kept in memory before the LRU evicts (spec §4.A).
	// Default: 1000
	CacheCapacity int `yaml:"cache_capacity"`

	// CacheTTL is how long an issued leaf config is served from cache
	// before being re-issued (spec §4.A).
	// Default: 12h
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// WatchForReload enables an fsnotify watch on the root cert/key paths so
	// operator-rotated root material is picked up without a restart.
	// Default: true
	WatchForReload bool `yaml:"watch_for_reload"`

	// EnableHTTP2 advertises h2 in issued leaf configs' NextProtos. Default
	// false keeps MITM'd connections on HTTP/1.1, which is simpler to
	// inspect and matches the Rust original's behavior (see DESIGN.md).
	// Default: false
	EnableHTTP2 bool `yaml:"enable_http2"`
}

// StoreConfig configures the SQLite-backed persistence layer. Field names
// mirror the POSTGRES_* contract from the original spec's deployment
// environment (see Open Question decision D.1 in SPEC_FULL.md): Locust runs
// a single-writer embedded database instead of a client/server Postgres,
// but an operator migrating existing deployment tooling still sets
// POSTGRES_DB to pick the database file and POSTGRES_{HOST,PORT,USER,
// PASSWORD} are accepted (and ignored) for compatibility.
type StoreConfig struct {
	// Path is the SQLite database file path.
	// Default: "data/locust.db"
	Path string `yaml:"path"`

	// BusyTimeout bounds how long a writer waits on SQLITE_BUSY before
	// failing, relevant since the store runs with a single open connection.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the WAL is checkpointed back into the
	// main database file.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// FeedbackConfig configures the bounded feedback channel (spec §4.D).
type FeedbackConfig struct {
	// ChannelCapacity bounds the number of in-flight feedback jobs buffered
	// between request goroutines and the feedback worker.
	// Default: 1024
	ChannelCapacity int `yaml:"channel_capacity"`
}

// TelemetryConfig contains logging, metrics, and sink settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Sink    SinkConfig    `yaml:"sink"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is one of "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics endpoint binds, separate
	// from the proxy's own listener.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path metrics are served under.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// SinkConfig configures the line-protocol telemetry sink (spec §6
// TELEGRAF_ADDR).
type SinkConfig struct {
	// Addr is host:port of the telegraf-compatible TCP listener. Empty
	// disables the sink entirely (spec §6 "if unset, telemetry is
	// disabled").
	// Default: ""
	Addr string `yaml:"addr"`
}

// AdminConfig configures the lifecycle shell (spec §4.F).
type AdminConfig struct {
	// ListenAddress is the address the forward proxy listener binds.
	// Default: "0.0.0.0:3000"
	ListenAddress string `yaml:"listen_address"`

	// RecalculateInterval is how often RecalculateRanking jobs are enqueued.
	// Default: 5m
	RecalculateInterval time.Duration `yaml:"recalculate_interval"`

	// ShutdownTimeout bounds how long graceful shutdown waits for in-flight
	// connections to drain before forcing close.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// DispatchTimeout bounds a single forward request's upstream dispatch
	// (spec §4.E.4).
	// Default: 180s
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
}
