package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/locust-proxy/locust/pkg/feedback"
	"github.com/locust-proxy/locust/pkg/telemetry/logging"
)

type noopRegistry struct{}

func (noopRegistry) EnsureDomainID(ctx context.Context, host string) (int64, error) { return 1, nil }
func (noopRegistry) BumpCoefficient(ctx context.Context, proxyID, domainID int64, success bool) error {
	return nil
}

func TestShellRunStopsOnContextCancel(t *testing.T) {
	log, err := logging.New(logging.Config{Level: "error", Format: "json", Writer: io.Discard})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	ch := feedback.NewChannel(8, slog.New(slog.NewTextHandler(io.Discard, nil)))
	worker := feedback.NewWorker(ch, noopRegistry{}, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	shell := New(Config{
		ListenAddress:       "127.0.0.1:0",
		RecalculateInterval: time.Minute,
		ShutdownTimeout:     2 * time.Second,
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), ch, worker, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- shell.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Shell.Run did not return after context cancellation")
	}
}
