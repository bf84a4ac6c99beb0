package pipeline

import (
	"testing"

	"github.com/locust-proxy/locust/pkg/telemetry/logging"
)

func testLogger() *logging.Logger {
	log, err := logging.New(logging.Config{Level: "error", Format: "json"})
	if err != nil {
		panic(err)
	}
	return log
}

func TestNewDefaultsDispatchTimeout(t *testing.T) {
	p := New(Config{Logger: testLogger()})
	if p.dispatchTimeout != DefaultDispatchTimeout {
		t.Errorf("dispatchTimeout = %v, want %v", p.dispatchTimeout, DefaultDispatchTimeout)
	}
}
