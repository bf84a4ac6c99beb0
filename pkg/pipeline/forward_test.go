package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/locust-proxy/locust/pkg/store"
)

type fakeRegistry struct {
	proxy store.Proxy
	err   error
}

func (f *fakeRegistry) PickForDomain(ctx context.Context, host string) (store.Proxy, error) {
	return f.proxy, f.err
}

func (f *fakeRegistry) GetByID(ctx context.Context, id int64) (store.Proxy, error) {
	if id != f.proxy.ID {
		return store.Proxy{}, errors.New("not found")
	}
	return f.proxy, nil
}

type fakeSessions struct {
	resolved map[int64]int64
	created  int64
}

func (f *fakeSessions) Resolve(ctx context.Context, id int64) (int64, error) {
	if proxyID, ok := f.resolved[id]; ok {
		return proxyID, nil
	}
	return 0, errors.New("not found")
}

func (f *fakeSessions) Create(ctx context.Context, proxyID int64) (int64, error) {
	f.created++
	return 1000 + f.created, nil
}

func newTestPipeline(registry Registry, sessions Sessions) *Pipeline {
	return New(Config{
		Registry: registry,
		Sessions: sessions,
		Logger:   testLogger(),
	})
}

func TestNormalizeForwardDropsHostAndFoldsCookies(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	r.Header.Set("Host", "example.test")
	r.Header.Add("Cookie", "a=1")
	r.Header.Add("Cookie", "b=2")
	r.ProtoMajor, r.ProtoMinor = 2, 0

	normalizeForward(r)

	if r.Header.Get("Host") != "" {
		t.Errorf("Host header not dropped")
	}
	if got := r.Header.Get("Cookie"); got != "a=1; b=2" {
		t.Errorf("Cookie = %q, want folded", got)
	}
	if r.Proto != "HTTP/1.1" || r.ProtoMajor != 1 || r.ProtoMinor != 1 {
		t.Errorf("protocol not forced to HTTP/1.1: %v %d.%d", r.Proto, r.ProtoMajor, r.ProtoMinor)
	}
}

func TestSessionIDFromCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	if _, ok := sessionIDFromCookie(r); ok {
		t.Fatalf("expected no session on a request without a cookie")
	}

	r.Header.Set("Cookie", sessionCookieName+"=42")
	id, ok := sessionIDFromCookie(r)
	if !ok || id != 42 {
		t.Errorf("sessionIDFromCookie = (%d, %v), want (42, true)", id, ok)
	}

	r.Header.Set("Cookie", sessionCookieName+"=not-a-number")
	if _, ok := sessionIDFromCookie(r); ok {
		t.Errorf("unparseable session cookie must not resolve (spec §4.C)")
	}
}

func TestResolveUpstreamPinsToSessionProxy(t *testing.T) {
	registry := &fakeRegistry{proxy: store.Proxy{ID: 7}}
	sessions := &fakeSessions{resolved: map[int64]int64{42: 7}}
	p := newTestPipeline(registry, sessions)

	r := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	r.Header.Set("Cookie", sessionCookieName+"=42")

	proxy, sessionID, err := p.resolveUpstream(context.Background(), r)
	if err != nil {
		t.Fatalf("resolveUpstream: %v", err)
	}
	if sessionID != 42 || proxy.ID != 7 {
		t.Errorf("got proxy=%d session=%d, want proxy=7 session=42", proxy.ID, sessionID)
	}
}

func TestResolveUpstreamFallsBackOnStaleSession(t *testing.T) {
	registry := &fakeRegistry{proxy: store.Proxy{ID: 9}}
	sessions := &fakeSessions{resolved: map[int64]int64{}}
	p := newTestPipeline(registry, sessions)

	r := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	r.Header.Set("Cookie", sessionCookieName+"=99999")

	proxy, sessionID, err := p.resolveUpstream(context.Background(), r)
	if err != nil {
		t.Fatalf("resolveUpstream: %v", err)
	}
	if proxy.ID != 9 {
		t.Errorf("proxy = %d, want 9 (fresh selection)", proxy.ID)
	}
	if sessionID == 99999 {
		t.Errorf("session id must not equal the stale, unresolved cookie value (spec §8 S6)")
	}
}

func TestHandlerRejectsDirectWebSocketUpgrade(t *testing.T) {
	p := newTestPipeline(&fakeRegistry{}, &fakeSessions{resolved: map[int64]int64{}})

	r := httptest.NewRequest(http.MethodGet, "http://example.test/ws", nil)
	r.Header.Set("Connection", "upgrade")
	r.Header.Set("Upgrade", "websocket")
	w := httptest.NewRecorder()

	p.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (spec §4.E, §9)", w.Code)
	}
}

func TestRespondAppendsSessionCookieOnDispatchError(t *testing.T) {
	p := newTestPipeline(&fakeRegistry{}, &fakeSessions{resolved: map[int64]int64{}})
	w := httptest.NewRecorder()

	status := p.respond(context.Background(), w, nil, context.DeadlineExceeded, 55)

	if status != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", status)
	}
	if got := w.Result().Header.Get("Set-Cookie"); got != sessionCookieName+"=55" {
		t.Errorf("Set-Cookie = %q, want %s=55", got, sessionCookieName)
	}
}
