// Package session implements the session-based stickiness facade (spec
// §4.C): resolving the `_lcst_sess` cookie to a pinned upstream proxy, and
// minting new sessions when none is presented. Sessions are DB-backed, not
// cached in memory — unlike the CA's cert cache, a session must outlive any
// single connection and survive a restart of the proxy process.
//
// Grounded structurally on the teacher's repository-facade pattern in
// pkg/routing/selector.go (a thin read-only wrapper exposing a narrow
// interface over storage), even though the underlying operations differ:
// selector.go picks a route from an in-memory table, this resolves a
// session id to a pinned proxy id from the store.
package session

import (
	"context"
	"errors"

	"github.com/locust-proxy/locust/pkg/store"
)

// Store is the subset of pkg/store's session operations this package
// depends on, narrowed to an interface so callers can test against a fake.
type Store interface {
	CreateSession(ctx context.Context, proxyID int64) (store.Session, error)
	GetSession(ctx context.Context, id int64) (store.Session, error)
}

// ErrNotFound is returned by Resolve when the session id is unknown to the
// store — callers (the request pipeline) must treat this identically to "no
// cookie presented", never as a hard failure (spec §4.C, §8 invariant 6).
var ErrNotFound = errors.New("session: not found")

// Manager resolves and creates sessions against a Store.
type Manager struct {
	store Store
}

// New constructs a Manager over store.
func New(s Store) *Manager {
	return &Manager{store: s}
}

// Resolve returns the proxy id pinned to session id, or ErrNotFound if the
// session is unknown (spec §4.C resolve, §4.E.3.c).
func (m *Manager) Resolve(ctx context.Context, id int64) (int64, error) {
	rec, err := m.store.GetSession(ctx, id)
	if err != nil {
		return 0, ErrNotFound
	}
	return rec.ProxyID, nil
}

// Create mints a new session pinned to proxyID, returning its id for the
// `_lcst_sess` Set-Cookie pin (spec §4.C create, §4.E.5).
func (m *Manager) Create(ctx context.Context, proxyID int64) (int64, error) {
	rec, err := m.store.CreateSession(ctx, proxyID)
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}
