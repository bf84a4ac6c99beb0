// Package config provides configuration management for Locust.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Most sections follow LOCUST_SECTION_FIELD. The store section instead
// honors POSTGRES_DB (and accepts, without effect, POSTGRES_{HOST,PORT,
// USER,PASSWORD}) to match the original deployment's env contract even
// though the underlying engine here is an embedded SQLite file. The
// telemetry sink honors TELEGRAF_ADDR directly, unprefixed, for the same
// reason.
//
// Callers construct a Config explicitly and pass it down (cmd/locust's
// run.go and proxy.go each call LoadConfigWithEnvOverrides once per
// invocation) rather than reaching for a package-global instance; this
// keeps every command and test free to load its own independent config.
package config
