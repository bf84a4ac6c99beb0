package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/locust-proxy/locust/pkg/feedback"
	"github.com/locust-proxy/locust/pkg/store"
	"github.com/locust-proxy/locust/pkg/telemetry/logging"
)

// serveForward implements spec §4.E.2: normalize, resolve or create a
// session, select an upstream, dispatch, respond, and record feedback.
func (p *Pipeline) serveForward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	normalizeForward(r)

	domain := r.URL.Hostname()
	ctx = logging.WithDomain(ctx, domain)

	proxy, sessionID, err := p.resolveUpstream(ctx, r)
	if err != nil {
		p.log.ErrorContext(ctx, "upstream selection failed", "domain", domain, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	ctx = logging.WithProxyID(ctx, strconv.FormatInt(proxy.ID, 10))
	ctx = logging.WithSessionID(ctx, strconv.FormatInt(sessionID, 10))
	r = r.WithContext(ctx)

	start := time.Now()
	resp, dispatchErr := p.dispatcher.do(ctx, proxy, r, p.dispatchTimeout)
	elapsed := time.Since(start)

	status := p.respond(ctx, w, resp, dispatchErr, sessionID)

	if p.metrics != nil {
		p.metrics.RecordDispatch(status, elapsed)
	}
	p.enqueueFeedback(ctx, proxy.ID, status, elapsed, domain)
}

// normalizeForward applies spec §4.E.2.a: drop the Host header (re-derived
// from the URI on dispatch), fold multiple Cookie header lines into one,
// and force the outbound request to HTTP/1.1.
func normalizeForward(r *http.Request) {
	r.Header.Del("Host")

	if cookies := r.Header.Values("Cookie"); len(cookies) > 1 {
		joined := cookies[0]
		for _, c := range cookies[1:] {
			joined += "; " + c
		}
		r.Header.Set("Cookie", joined)
	}

	r.Proto = "HTTP/1.1"
	r.ProtoMajor = 1
	r.ProtoMinor = 1
}

// resolveUpstream implements spec §4.E.2.b-c: resolve the `_lcst_sess`
// cookie if present and valid, otherwise select a fresh upstream and mint a
// new session. A missing, unparseable, or NotFound session is never an
// error (spec §4.C, §7, §8 invariant 6) — it simply falls through to
// selection.
func (p *Pipeline) resolveUpstream(ctx context.Context, r *http.Request) (store.Proxy, int64, error) {
	if id, ok := sessionIDFromCookie(r); ok {
		if proxyID, err := p.sessions.Resolve(ctx, id); err == nil {
			if proxy, err := p.registry.GetByID(ctx, proxyID); err == nil {
				return proxy, id, nil
			}
		}
	}

	proxy, err := p.registry.PickForDomain(ctx, r.URL.Hostname())
	if err != nil {
		return store.Proxy{}, 0, err
	}

	sessionID, err := p.sessions.Create(ctx, proxy.ID)
	if err != nil {
		return store.Proxy{}, 0, err
	}
	return proxy, sessionID, nil
}

// sessionIDFromCookie parses the `_lcst_sess` cookie into an integer id.
func sessionIDFromCookie(r *http.Request) (int64, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(cookie.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// respond implements spec §4.E.2.e-f: propagate the upstream response (or
// synthesize 500/504 on failure), always appending the pinning cookie. It
// returns the status code recorded for feedback.
func (p *Pipeline) respond(ctx context.Context, w http.ResponseWriter, resp *http.Response, dispatchErr error, sessionID int64) int {
	cookie := sessionCookieName + "=" + strconv.FormatInt(sessionID, 10)

	if dispatchErr != nil {
		status := http.StatusInternalServerError
		if errors.Is(dispatchErr, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		p.log.WarnContext(ctx, "upstream dispatch failed", "error", dispatchErr, "status", status)
		w.Header().Add("Set-Cookie", cookie)
		w.WriteHeader(status)
		return status
	}
	defer resp.Body.Close()

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.Header().Add("Set-Cookie", cookie)
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
	return resp.StatusCode
}

// enqueueFeedback implements spec §4.E.2.g: non-blockingly post an outcome
// for the feedback worker (spec §4.D).
func (p *Pipeline) enqueueFeedback(ctx context.Context, proxyID int64, status int, elapsed time.Duration, domain string) {
	if p.feedback == nil {
		return
	}
	p.feedback.Enqueue(feedback.Job{ProxyResponse: &feedback.ProxyResponse{
		ProxyID:        proxyID,
		Status:         status,
		ResponseTimeMS: elapsed.Milliseconds(),
		Domain:         domain,
	}})
}
