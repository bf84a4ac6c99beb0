package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddProxy inserts a new upstream proxy and associates it with the given
// tags (creating any tag that doesn't exist yet), transactionally — spec §6
// "Fleet administration operations: add ... proxies by tag", grounded on
// original_source/locust-core/src/crud/proxies.rs's add_proxies (tag
// upsert via ON CONFLICT, then proxy insert, then proxy_tag_map rows).
func (s *Store) AddProxy(ctx context.Context, np NewProxy) (Proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Proxy{}, fmt.Errorf("add proxy: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO proxies (scheme, host, port, username, password, provider, last_used)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(np.Scheme), np.Host, np.Port, np.Username, np.Password, np.Provider, time.Now().Unix())
	if err != nil {
		return Proxy{}, fmt.Errorf("add proxy: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Proxy{}, fmt.Errorf("add proxy: %w", err)
	}

	for _, tag := range np.Tags {
		var tagID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tags (name) VALUES (?)
			ON CONFLICT (name) DO UPDATE SET name = excluded.name
			RETURNING id`, tag).Scan(&tagID)
		if err != nil {
			return Proxy{}, fmt.Errorf("add proxy: upsert tag %q: %w", tag, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO proxy_tags (proxy_id, tag_id) VALUES (?, ?)`, id, tagID); err != nil {
			return Proxy{}, fmt.Errorf("add proxy: tag proxy %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Proxy{}, fmt.Errorf("add proxy: commit: %w", err)
	}

	return s.getByIDLocked(ctx, id)
}

// TagDomain associates host with tag so upstream proxies sharing that tag
// become eligible for PickForDomain(host). Ensures both the domain and the
// tag exist.
func (s *Store) TagDomain(ctx context.Context, host, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("tag domain: begin tx: %w", err)
	}
	defer tx.Rollback()

	var domainID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO domains (host) VALUES (?)
		ON CONFLICT (host) DO UPDATE SET host = excluded.host
		RETURNING id`, host).Scan(&domainID); err != nil {
		return fmt.Errorf("tag domain: ensure domain: %w", err)
	}

	var tagID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO tags (name) VALUES (?)
		ON CONFLICT (name) DO UPDATE SET name = excluded.name
		RETURNING id`, tag).Scan(&tagID); err != nil {
		return fmt.Errorf("tag domain: ensure tag: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO domain_tags (domain_id, tag_id) VALUES (?, ?)`, domainID, tagID); err != nil {
		return fmt.Errorf("tag domain: %w", err)
	}

	return tx.Commit()
}

// DeleteProxyByID soft-deletes a proxy (deleted_at = now), per spec §3's
// invariant that a deleted proxy is never selected again.
func (s *Store) DeleteProxyByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE proxies SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("delete proxy %d: %w", id, err)
	}
	return nil
}

// DeleteProxiesByTag soft-deletes every non-deleted proxy carrying tag.
// Returns the number of proxies affected.
func (s *Store) DeleteProxiesByTag(ctx context.Context, tag string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE proxies SET deleted_at = ?
		WHERE deleted_at IS NULL AND id IN (
			SELECT pt.proxy_id FROM proxy_tags pt
			JOIN tags t ON t.id = pt.tag_id
			WHERE t.name = ?
		)`, time.Now().Unix(), tag)
	if err != nil {
		return 0, fmt.Errorf("delete proxies by tag %q: %w", tag, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete proxies by tag %q: %w", tag, err)
	}
	return int(n), nil
}

// ListProxiesByTag returns every non-deleted proxy carrying tag. An empty
// tag lists every non-deleted proxy.
func (s *Store) ListProxiesByTag(ctx context.Context, tag string) ([]Proxy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if tag == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, scheme, host, port, username, password, provider, last_used, deleted_at
			FROM proxies WHERE deleted_at IS NULL ORDER BY id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT p.id, p.scheme, p.host, p.port, p.username, p.password, p.provider, p.last_used, p.deleted_at
			FROM proxies p
			JOIN proxy_tags pt ON p.id = pt.proxy_id
			JOIN tags t ON t.id = pt.tag_id
			WHERE t.name = ? AND p.deleted_at IS NULL ORDER BY p.id`, tag)
	}
	if err != nil {
		return nil, fmt.Errorf("list proxies by tag %q: %w", tag, err)
	}
	defer rows.Close()

	var proxies []Proxy
	for rows.Next() {
		p, err := s.scanProxy(rows)
		if err != nil {
			return nil, fmt.Errorf("list proxies by tag %q: scan: %w", tag, err)
		}
		proxies = append(proxies, p)
	}
	return proxies, rows.Err()
}
