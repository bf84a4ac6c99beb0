package config

import "testing"

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.CA.RootCertPath != DefaultCARootCertPath {
		t.Errorf("CA.RootCertPath = %q, want %q", cfg.CA.RootCertPath, DefaultCARootCertPath)
	}
	if cfg.Store.Path != DefaultStorePath {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, DefaultStorePath)
	}
	if cfg.Feedback.ChannelCapacity != DefaultFeedbackChannelCapacity {
		t.Errorf("Feedback.ChannelCapacity = %d, want %d", cfg.Feedback.ChannelCapacity, DefaultFeedbackChannelCapacity)
	}
	if cfg.Admin.ListenAddress != DefaultAdminListenAddress {
		t.Errorf("Admin.ListenAddress = %q, want %q", cfg.Admin.ListenAddress, DefaultAdminListenAddress)
	}
	if cfg.Admin.RecalculateInterval != DefaultAdminRecalculateInterval {
		t.Errorf("Admin.RecalculateInterval = %v, want %v", cfg.Admin.RecalculateInterval, DefaultAdminRecalculateInterval)
	}
}

func TestApplyDefaultsDoesNotOverwrite(t *testing.T) {
	cfg := &Config{}
	cfg.CA.RootCertPath = "custom.crt"
	cfg.Admin.ListenAddress = "127.0.0.1:9000"
	ApplyDefaults(cfg)

	if cfg.CA.RootCertPath != "custom.crt" {
		t.Errorf("CA.RootCertPath was overwritten: %q", cfg.CA.RootCertPath)
	}
	if cfg.Admin.ListenAddress != "127.0.0.1:9000" {
		t.Errorf("Admin.ListenAddress was overwritten: %q", cfg.Admin.ListenAddress)
	}
}

func TestValidateDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadLoggingLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry.Logging.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for bad logging level")
	}
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors) != 1 || ve.Errors[0].Field != "telemetry.logging.level" {
		t.Errorf("unexpected errors: %+v", ve.Errors)
	}
}

func TestValidateRejectsEmptyStorePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for empty store path")
	}
}

func TestEnvOverridesPostgresDBAndTelegrafAddr(t *testing.T) {
	t.Setenv("POSTGRES_DB", "/var/lib/locust/fleet.db")
	t.Setenv("TELEGRAF_ADDR", "127.0.0.1:8094")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Store.Path != "/var/lib/locust/fleet.db" {
		t.Errorf("Store.Path = %q, want override from POSTGRES_DB", cfg.Store.Path)
	}
	if cfg.Telemetry.Sink.Addr != "127.0.0.1:8094" {
		t.Errorf("Telemetry.Sink.Addr = %q, want override from TELEGRAF_ADDR", cfg.Telemetry.Sink.Addr)
	}
}
