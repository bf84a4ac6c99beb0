package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid JSON config", config: Config{Level: "info", Format: "json", RedactPII: true}},
		{name: "valid text config", config: Config{Level: "debug", Format: "text"}},
		{name: "invalid log level", config: Config{Level: "invalid", Format: "json"}, wantErr: true},
		{name: "invalid format", config: Config{Level: "info", Format: "invalid"}, wantErr: true},
		{name: "empty level defaults to info", config: Config{Level: "", Format: "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.config.Writer = buf

			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("should not appear")
	if buf.Len() != 0 {
		t.Errorf("Info() wrote output at warn level: %q", buf.String())
	}

	logger.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("Warn() wrote no output at warn level")
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("dispatch complete", "proxy_id", 7, "status", 200)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if line["msg"] != "dispatch complete" {
		t.Errorf("msg = %v, want %q", line["msg"], "dispatch complete")
	}
	if line["proxy_id"] != float64(7) {
		t.Errorf("proxy_id = %v, want 7", line["proxy_id"])
	}
}

func TestLogger_ContextFieldsAttached(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithDomain(ctx, "api.example.com")

	logger.InfoContext(ctx, "forwarding request")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Errorf("output missing request_id: %q", out)
	}
	if !strings.Contains(out, `"domain":"api.example.com"`) {
		t.Errorf("output missing domain: %q", out)
	}
}

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf, RedactPII: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("added proxy", "password", "s3cr3t-upstream-pass")

	if strings.Contains(buf.String(), "s3cr3t-upstream-pass") {
		t.Errorf("password leaked into log output: %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	scoped := logger.With("component", "pipeline")
	scoped.Info("started")

	if !strings.Contains(buf.String(), `"component":"pipeline"`) {
		t.Errorf("With() fields not present in output: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"", false},
		{"warn", false},
		{"warning", false},
		{"error", false},
		{"bogus", true},
	}
	for _, tt := range tests {
		_, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"json", false},
		{"", false},
		{"text", false},
		{"bogus", true},
	}
	for _, tt := range tests {
		_, err := parseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
