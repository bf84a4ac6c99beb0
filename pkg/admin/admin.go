// Package admin implements the lifecycle shell (spec §4.F): it binds the
// client-facing listener, starts the feedback worker on its own goroutine,
// schedules the periodic RecalculateRanking job, and coordinates graceful
// shutdown. Grounded on pkg/server/server.go's sync.Once-guarded Shutdown,
// context.WithTimeout, and select-over-signal/errChan shape.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/locust-proxy/locust/pkg/feedback"
	"github.com/locust-proxy/locust/pkg/telemetry/logging"
)

// Config configures a Shell.
type Config struct {
	// ListenAddress is the client-facing listener address (spec §4.F,
	// §6: "0.0.0.0:3000").
	ListenAddress string

	// RecalculateInterval is how often RecalculateRanking is posted to
	// the feedback channel (spec §4.D, §4.F: every 5 minutes).
	RecalculateInterval time.Duration

	// ShutdownTimeout bounds how long graceful shutdown waits for
	// in-flight requests to drain before forcing the listener closed.
	ShutdownTimeout time.Duration
}

// Shell is the admin/lifecycle shell: listener + feedback worker + the
// periodic maintenance timer, torn down together on shutdown.
type Shell struct {
	cfg Config

	httpServer *http.Server
	feedbackCh *feedback.Channel
	worker     *feedback.Worker
	cron       *cron.Cron
	log        *logging.Logger

	workerDone  chan struct{}
	shutdownErr error
	once        sync.Once
}

// New constructs a Shell. handler serves the client-facing listener; ch and
// worker are the feedback channel and its consumer (spec §4.D).
func New(cfg Config, handler http.Handler, ch *feedback.Channel, worker *feedback.Worker, log *logging.Logger) *Shell {
	return &Shell{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:    cfg.ListenAddress,
			Handler: handler,
		},
		feedbackCh: ch,
		worker:     worker,
		log:        log,
		workerDone: make(chan struct{}),
	}
}

// Run binds the listener, starts the feedback worker and the
// RecalculateRanking timer, and blocks until ctx is cancelled or an OS
// interrupt/SIGTERM arrives, at which point it drains in-flight requests,
// closes the feedback channel's send side so the worker finishes its
// backlog and exits, and returns (spec §4.F).
func (s *Shell) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("admin: bind listener %s: %w", s.cfg.ListenAddress, err)
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	go func() {
		defer close(s.workerDone)
		s.worker.Run(workerCtx)
	}()

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(everySpec(s.cfg.RecalculateInterval), func() {
		s.feedbackCh.Enqueue(feedback.Job{RecalculateRanking: &feedback.RecalculateRanking{}})
	}); err != nil {
		ln.Close()
		return fmt.Errorf("admin: schedule recalculate ranking: %w", err)
	}
	s.cron.Start()

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("locust listening", "address", s.cfg.ListenAddress)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("admin: serve: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		s.log.Info("admin: context cancelled, shutting down")
	case sig := <-sigCh:
		s.log.Info("admin: received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		return err
	}

	return s.shutdown()
}

func (s *Shell) shutdown() error {
	s.once.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("admin: listener shutdown error", "error", err)
			s.shutdownErr = err
		}

		cronCtx := s.cron.Stop()
		<-cronCtx.Done()

		s.feedbackCh.Close()

		select {
		case <-s.workerDone:
		case <-shutdownCtx.Done():
			s.log.Warn("admin: feedback worker did not drain before shutdown timeout")
		}
	})
	return s.shutdownErr
}

// everySpec builds a robfig/cron "@every" spec from a Go duration; its
// String() form (e.g. "5m0s") is itself a valid time.ParseDuration input.
func everySpec(d time.Duration) string {
	if d <= 0 {
		d = 5 * time.Minute
	}
	return "@every " + d.String()
}
