// Package pipeline implements the request pipeline (spec §4.E): method
// dispatch between CONNECT tunnels and forward requests, TLS MITM via the
// certificate authority, upstream selection and session pinning, upstream
// dispatch through an egress proxy, and non-blocking feedback.
package pipeline

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/locust-proxy/locust/pkg/ca"
	"github.com/locust-proxy/locust/pkg/feedback"
	"github.com/locust-proxy/locust/pkg/proxy/middleware"
	"github.com/locust-proxy/locust/pkg/store"
	"github.com/locust-proxy/locust/pkg/telemetry/logging"
	"github.com/locust-proxy/locust/pkg/telemetry/metrics"
)

// sessionCookieName is the pinning cookie's name (spec §3 Session, §4.C).
const sessionCookieName = "_lcst_sess"

// DefaultDispatchTimeout bounds a single forward dispatch (spec §4.E.3.d).
const DefaultDispatchTimeout = 180 * time.Second

// Registry is the read path of the Upstream Registry the pipeline depends
// on (spec §4.B), narrowed from *store.Store so the pipeline can be tested
// against a fake.
type Registry interface {
	PickForDomain(ctx context.Context, host string) (store.Proxy, error)
	GetByID(ctx context.Context, id int64) (store.Proxy, error)
}

// Sessions is the Session Store contract the pipeline depends on (spec
// §4.C), satisfied by *pkg/session.Manager.
type Sessions interface {
	Resolve(ctx context.Context, id int64) (int64, error)
	Create(ctx context.Context, proxyID int64) (int64, error)
}

// Config wires a Pipeline's collaborators.
type Config struct {
	Authority       ca.Authority
	Registry        Registry
	Sessions        Sessions
	Feedback        *feedback.Channel
	Metrics         *metrics.Collector
	Logger          *logging.Logger
	DispatchTimeout time.Duration
}

// Pipeline is the accepted-connection entry point: its Handler serves
// HTTP/1.1 on the client-facing listener (spec §4.E, §6: port 3000).
type Pipeline struct {
	authority       ca.Authority
	registry        Registry
	sessions        Sessions
	feedback        *feedback.Channel
	metrics         *metrics.Collector
	log             *logging.Logger
	dispatchTimeout time.Duration

	dispatcher *dispatcher
	handler    http.Handler // top-level: CONNECT / WS-400 / forward
	forward    http.Handler // forward path only, shared by both entry points
}

// New constructs a Pipeline.
func New(cfg Config) *Pipeline {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	p := &Pipeline{
		authority:       cfg.Authority,
		registry:        cfg.Registry,
		sessions:        cfg.Sessions,
		feedback:        cfg.Feedback,
		metrics:         cfg.Metrics,
		log:             cfg.Logger,
		dispatchTimeout: timeout,
		dispatcher:      newDispatcher(),
	}

	forward := middleware.RequestIDMiddleware(http.HandlerFunc(p.serveForward))
	forward = middleware.LoggingMiddleware(p.log)(forward)
	forward = middleware.RecoveryMiddleware(p.log, forward)
	p.forward = forward

	p.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodConnect:
			p.handleConnect(w, r)
		case isWebSocketUpgrade(r):
			// Direct upgrade requests on the proxy's own listener are
			// unsupported (spec §4.E.1, §9) — WS-over-CONNECT still
			// tunnels transparently through serveInnerHTTP below, which
			// calls p.forward directly and never reaches this check.
			w.WriteHeader(http.StatusBadRequest)
		default:
			p.forward.ServeHTTP(w, r)
		}
	})

	return p
}

// Handler returns the top-level http.Handler for the client-facing
// listener (spec §4.E method dispatch, step 1).
func (p *Pipeline) Handler() http.Handler { return p.handler }

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Connection"), "upgrade") &&
		strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// tlsConfigFor adapts the CA's Authority capability into a
// GetConfigForClient hook so each MITM handshake issues (or reuses) a leaf
// for the ClientHello's own SNI rather than the statically captured
// CONNECT authority — ground truth when a client reuses one tunnel for
// several hostnames is rare over this pipeline's fixed per-authority
// tunnels, but SNI is authoritative when present.
func (p *Pipeline) tlsConfigFor(authority string) *tls.Config {
	return &tls.Config{
		GetConfigForClient: func(hello *tls.ClientHelloInfo) (*tls.Config, error) {
			name := authority
			if hello.ServerName != "" {
				name = hello.ServerName
			}
			return p.authority.GenServerConfig(name)
		},
	}
}
