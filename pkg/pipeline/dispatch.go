package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/locust-proxy/locust/pkg/store"
)

// dispatcher issues forward requests through a chosen upstream egress
// proxy over an HTTP CONNECT tunnel (spec §4.E.2.d), caching one
// *http.Client per upstream so keep-alive connections to that proxy are
// reused across requests instead of dialed fresh each time.
type dispatcher struct {
	mu      sync.Mutex
	clients map[int64]*http.Client
}

func newDispatcher() *dispatcher {
	return &dispatcher{clients: make(map[int64]*http.Client)}
}

// do dispatches r through proxy under the given deadline, returning the
// upstream's response or an error classified by respond into 500/504.
func (d *dispatcher) do(ctx context.Context, proxy store.Proxy, r *http.Request, timeout time.Duration) (*http.Response, error) {
	client := d.clientFor(proxy)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outReq := r.Clone(ctx)
	outReq.RequestURI = ""
	outReq.Close = false

	return client.Do(outReq)
}

func (d *dispatcher) clientFor(proxy store.Proxy) *http.Client {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.clients[proxy.ID]; ok {
		return c
	}

	proxyURL := &url.URL{
		Scheme: string(proxy.Scheme),
		Host:   fmt.Sprintf("%s:%d", proxy.Host, proxy.Port),
	}
	if proxy.HasAuth() {
		proxyURL.User = url.UserPassword(proxy.Username, proxy.Password)
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
	}
	d.clients[proxy.ID] = client
	return client
}
