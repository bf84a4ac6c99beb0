package store

import "time"

// Scheme is the upstream proxy's protocol, per spec §3 UpstreamProxy.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// Proxy is an upstream egress proxy the core forwards client traffic
// through. A Proxy with DeletedAt set is never selected (spec §3
// invariant).
type Proxy struct {
	ID         int64
	Scheme     Scheme
	Host       string
	Port       int
	Username   string
	Password   string
	Provider   string
	LastUsed   time.Time
	DeletedAt  *time.Time
}

// HasAuth reports whether the upstream proxy requires basic auth credentials.
func (p Proxy) HasAuth() bool {
	return p.Username != ""
}

// NewProxy is the write-side shape for fleet administration (spec §6
// "add ... proxies by tag, by id").
type NewProxy struct {
	Scheme   Scheme
	Host     string
	Port     int
	Username string
	Password string
	Provider string
	Tags     []string
}

// Domain is a unique host string, acquiring an id on first observation
// (spec §3 Domain).
type Domain struct {
	ID   int64
	Host string
}

// Session binds a session id to the upstream proxy it is pinned to for its
// lifetime (spec §3 Session, §4.C).
type Session struct {
	ID        int64
	ProxyID   int64
	CreatedAt time.Time
}
