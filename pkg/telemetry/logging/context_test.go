package logging

import (
	"context"
	"testing"
)

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-1")
	}
}

func TestAuthorityContext(t *testing.T) {
	ctx := WithAuthority(context.Background(), "example.com:443")
	if got := GetAuthority(ctx); got != "example.com:443" {
		t.Errorf("GetAuthority() = %q, want %q", got, "example.com:443")
	}
}

func TestDomainContext(t *testing.T) {
	ctx := WithDomain(context.Background(), "api.example.com")
	if got := GetDomain(ctx); got != "api.example.com" {
		t.Errorf("GetDomain() = %q, want %q", got, "api.example.com")
	}
}

func TestProxyIDContext(t *testing.T) {
	ctx := WithProxyID(context.Background(), "42")
	if got := GetProxyID(ctx); got != "42" {
		t.Errorf("GetProxyID() = %q, want %q", got, "42")
	}
}

func TestSessionIDContext(t *testing.T) {
	ctx := WithSessionID(context.Background(), "7")
	if got := GetSessionID(ctx); got != "7" {
		t.Errorf("GetSessionID() = %q, want %q", got, "7")
	}
}

func TestGetMissingFieldsReturnEmpty(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetAuthority(ctx) != "" || GetDomain(ctx) != "" ||
		GetProxyID(ctx) != "" || GetSessionID(ctx) != "" {
		t.Error("expected empty strings for an unpopulated context")
	}
}

func TestExtractContextFields(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithDomain(ctx, "api.example.com")
	ctx = WithProxyID(ctx, "5")

	fields := extractContextFields(ctx)
	want := map[string]bool{"request_id": false, "domain": false, "proxy_id": false}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			if _, tracked := want[key]; tracked {
				want[key] = true
			}
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("extractContextFields() missing key %q in %v", k, fields)
		}
	}
}

func TestExtractContextFieldsEmpty(t *testing.T) {
	if fields := extractContextFields(context.Background()); len(fields) != 0 {
		t.Errorf("expected no fields for an empty context, got %v", fields)
	}
}
