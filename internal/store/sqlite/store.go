// Package sqlite is the relational store for rants and like records.
//
// It only performs row reads, inserts and deletes plus the atomic like
// counter increment; all engagement logic lives in the callers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/rant/internal/domain"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("sqlite store is closed")

const schema = `
	CREATE TABLE IF NOT EXISTS rants (
		id         TEXT PRIMARY KEY,
		content    TEXT NOT NULL,
		alias      TEXT NOT NULL,
		mood       TEXT NOT NULL DEFAULT '',
		likes      INTEGER NOT NULL DEFAULT 0,
		hidden     INTEGER NOT NULL DEFAULT 0,
		hidden_at  INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rants_created ON rants(created_at);
	CREATE INDEX IF NOT EXISTS idx_rants_mood ON rants(mood);

	CREATE TABLE IF NOT EXISTS likes (
		rant_id    TEXT NOT NULL,
		identity   TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (rant_id, identity)
	);
`

const rantColumns = "id, content, alias, mood, likes, hidden, created_at, updated_at"

// Store implements domain.RantRepository and domain.LikeRepository.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
	now    func() time.Time
}

// New opens (or creates) the database file at path.
func New(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open rant database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize rant database: %w", err)
	}
	return store, nil
}

// NewInMemory creates an in-memory store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(schema)
	return err
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return s.db.PingContext(ctx)
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// ─────────────────────────────────────────────────────────────────
// Rants
// ─────────────────────────────────────────────────────────────────

// CreateRant inserts a new rant. Timestamps default to now.
func (s *Store) CreateRant(ctx context.Context, r *domain.Rant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.stamp(r)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO rants ("+rantColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.Content, r.Alias, r.Mood, r.Likes, r.Hidden,
		r.CreatedAt.UnixMilli(), r.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create rant: %w", err)
	}
	return nil
}

// GetRant returns one rant, hidden or not.
func (s *Store) GetRant(ctx context.Context, id string) (*domain.Rant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+rantColumns+" FROM rants WHERE id = ?", id)
	r, err := scanRant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rant %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rant: %w", err)
	}
	return r, nil
}

// ListRants returns rants matching filter.
func (s *Store) ListRants(ctx context.Context, filter domain.FeedFilter) ([]*domain.Rant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var (
		where []string
		args  []any
	)
	if !filter.IncludeHidden {
		where = append(where, "hidden = 0")
	}
	if filter.Mood != "" {
		where = append(where, "mood = ?")
		args = append(args, filter.Mood)
	}

	query := "SELECT " + rantColumns + " FROM rants"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.Sort == domain.SortTop {
		query += " ORDER BY likes DESC, created_at DESC, id"
	} else {
		query += " ORDER BY created_at DESC, id"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rants: %w", err)
	}
	defer rows.Close()

	rants := make([]*domain.Rant, 0)
	for rows.Next() {
		r, err := scanRant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rant: %w", err)
		}
		rants = append(rants, r)
	}
	return rants, rows.Err()
}

// HideRant marks a rant hidden and records when.
func (s *Store) HideRant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	now := s.now().UnixMilli()
	res, err := s.db.ExecContext(ctx,
		"UPDATE rants SET hidden = 1, hidden_at = COALESCE(hidden_at, ?), updated_at = ? WHERE id = ?",
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to hide rant: %w", err)
	}
	return requireRow(res, id)
}

// DeleteRant removes a rant and its like records.
func (s *Store) DeleteRant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM likes WHERE rant_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete likes: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM rants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rant: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListHiddenBefore returns IDs of rants hidden before cutoff.
func (s *Store) ListHiddenBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM rants WHERE hidden = 1 AND hidden_at < ? ORDER BY hidden_at",
		cutoff.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list hidden rants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan hidden rant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertRants inserts rants not yet stored and returns how many were new.
func (s *Store) UpsertRants(ctx context.Context, rants []*domain.Rant) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO rants ("+rantColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range rants {
		if r == nil {
			continue
		}
		s.stamp(r)
		res, err := stmt.ExecContext(ctx,
			r.ID, r.Content, r.Alias, r.Mood, r.Likes, r.Hidden,
			r.CreatedAt.UnixMilli(), r.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert rant %s: %w", r.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return inserted, nil
}

// ─────────────────────────────────────────────────────────────────
// Likes
// ─────────────────────────────────────────────────────────────────

// HasLike reports whether identity likes rantID.
func (s *Store) HasLike(ctx context.Context, rantID, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrClosed
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE rant_id = ? AND identity = ?",
		rantID, identity,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return count > 0, nil
}

// InsertLike records a like. An existing row is left as is; an unknown
// rant is ErrNotFound and leaves no row behind.
func (s *Store) InsertLike(ctx context.Context, rantID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rants WHERE id = ?", rantID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rant: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("rant %s: %w", rantID, domain.ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO likes (rant_id, identity, created_at) VALUES (?, ?, ?)",
		rantID, identity, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

// DeleteLike removes a like. A missing row is not an error.
func (s *Store) DeleteLike(ctx context.Context, rantID, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM likes WHERE rant_id = ? AND identity = ?",
		rantID, identity,
	)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// IncrementLikes adds one to the rant's counter in a single statement.
func (s *Store) IncrementLikes(ctx context.Context, rantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE rants SET likes = likes + 1 WHERE id = ?",
		rantID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment likes: %w", err)
	}
	return requireRow(res, rantID)
}

// LikeCount returns the rant's counter.
func (s *Store) LikeCount(ctx context.Context, rantID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrClosed
	}

	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT likes FROM rants WHERE id = ?", rantID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("rant %s: %w", rantID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read like count: %w", err)
	}
	return n, nil
}

// CountLikeRecords returns the number of like rows for rantID.
func (s *Store) CountLikeRecords(ctx context.Context, rantID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrClosed
	}

	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM likes WHERE rant_id = ?", rantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count like records: %w", err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func scanRant(sc scanner) (*domain.Rant, error) {
	var (
		r                domain.Rant
		created, updated int64
	)
	if err := sc.Scan(&r.ID, &r.Content, &r.Alias, &r.Mood, &r.Likes, &r.Hidden, &created, &updated); err != nil {
		return nil, err
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	r.UpdatedAt = time.UnixMilli(updated).UTC()
	return &r, nil
}

func (s *Store) stamp(r *domain.Rant) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rant %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
