package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateSession allocates a new session bound to proxyID (spec §4.C
// create). Sessions are never mutated after creation.
func (s *Store) CreateSession(ctx context.Context, proxyID int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (proxy_id, created_at) VALUES (?, ?)`, proxyID, now.Unix())
	if err != nil {
		return Session{}, fmt.Errorf("create session for proxy %d: %w", proxyID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Session{}, fmt.Errorf("create session for proxy %d: %w", proxyID, err)
	}
	return Session{ID: id, ProxyID: proxyID, CreatedAt: now}, nil
}

// GetSession resolves a session id to its pinned proxy id (spec §4.C
// resolve). Returns a NotFoundError (matching ErrNotFound) when the id is
// unknown — callers must treat this as "no session", never as an error
// surfaced to the client (spec §4.C, §8 invariant 6).
func (s *Store) GetSession(ctx context.Context, id int64) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sess     Session
		created  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, proxy_id, created_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.ProxyID, &created)
	if err == sql.ErrNoRows {
		return Session{}, &NotFoundError{Entity: "session", Key: id}
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %d: %w", id, err)
	}
	sess.CreatedAt = time.Unix(created, 0)
	return sess, nil
}
