package main

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeTestConfig(t *testing.T, dbPath string) string {
	t.Helper()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")

	data, err := yaml.Marshal(map[string]any{
		"store": map[string]any{"path": dbPath},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestProxyAddAndLs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "locust.db")
	cfgFile = writeTestConfig(t, dbPath)

	proxyAddFlags.scheme = "http"
	proxyAddFlags.host = "10.0.0.5"
	proxyAddFlags.port = 8080
	proxyAddFlags.tags = []string{"residential"}

	if err := runProxyAdd(nil, nil); err != nil {
		t.Fatalf("runProxyAdd() error = %v", err)
	}

	proxyLsFlags.tag = "residential"
	if err := runProxyLs(nil, nil); err != nil {
		t.Fatalf("runProxyLs() error = %v", err)
	}
}

func TestProxyAddRejectsUnknownScheme(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "locust.db")
	cfgFile = writeTestConfig(t, dbPath)

	proxyAddFlags.scheme = "ftp"
	proxyAddFlags.host = "10.0.0.5"
	proxyAddFlags.port = 21
	proxyAddFlags.tags = nil

	if err := runProxyAdd(nil, nil); err == nil {
		t.Fatal("runProxyAdd() with unsupported scheme: want error, got nil")
	}
}

func TestProxyRmByID(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "locust.db")
	cfgFile = writeTestConfig(t, dbPath)

	proxyAddFlags.scheme = "http"
	proxyAddFlags.host = "10.0.0.6"
	proxyAddFlags.port = 3128
	proxyAddFlags.tags = nil
	if err := runProxyAdd(nil, nil); err != nil {
		t.Fatalf("runProxyAdd() error = %v", err)
	}

	proxyRmFlags.id = 1
	proxyRmFlags.tag = ""
	if err := runProxyRm(nil, nil); err != nil {
		t.Fatalf("runProxyRm() error = %v", err)
	}
}
