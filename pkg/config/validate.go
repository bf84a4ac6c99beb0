package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g.,
	// "ca.root_cert_path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail, or nil if the configuration is valid. All
// validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateCA(&cfg.CA)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateFeedback(&cfg.Feedback)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateAdmin(&cfg.Admin)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateCA(c *CAConfig) []FieldError {
	var errs []FieldError
	if c.RootCertPath == "" {
		errs = append(errs, FieldError{"ca.root_cert_path", "must not be empty"})
	}
	if c.RootKeyPath == "" {
		errs = append(errs, FieldError{"ca.root_key_path", "must not be empty"})
	}
	if c.CacheCapacity < 0 {
		errs = append(errs, FieldError{"ca.cache_capacity", "must be non-negative"})
	}
	if c.CacheTTL < 0 {
		errs = append(errs, FieldError{"ca.cache_ttl", "must be non-negative"})
	}
	return errs
}

func validateStore(c *StoreConfig) []FieldError {
	var errs []FieldError
	if c.Path == "" {
		errs = append(errs, FieldError{"store.path", "must not be empty"})
	}
	if c.BusyTimeout < 0 {
		errs = append(errs, FieldError{"store.busy_timeout", "must be non-negative"})
	}
	return errs
}

func validateFeedback(c *FeedbackConfig) []FieldError {
	var errs []FieldError
	if c.ChannelCapacity <= 0 {
		errs = append(errs, FieldError{"feedback.channel_capacity", "must be positive"})
	}
	return errs
}

func validateTelemetry(c *TelemetryConfig) []FieldError {
	var errs []FieldError
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("invalid level %q", c.Logging.Level)})
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("invalid format %q", c.Logging.Format)})
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{"telemetry.metrics.listen_address", "must not be empty when metrics are enabled"})
	}
	return errs
}

func validateAdmin(c *AdminConfig) []FieldError {
	var errs []FieldError
	if c.ListenAddress == "" {
		errs = append(errs, FieldError{"admin.listen_address", "must not be empty"})
	}
	if c.RecalculateInterval <= 0 {
		errs = append(errs, FieldError{"admin.recalculate_interval", "must be positive"})
	}
	if c.DispatchTimeout <= 0 {
		errs = append(errs, FieldError{"admin.dispatch_timeout", "must be positive"})
	}
	return errs
}
