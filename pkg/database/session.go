package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

var ErrNoSession = errors.New("no database session in context")

type sessionKey struct{}

type Session struct {
	tx *sql.Tx

	mu    sync.Mutex
	done  bool
	hooks []func(context.Context)
}

func (s *Store) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin session: %w", err)
	}
	return &Session{tx: tx}, nil
}

func (s *Session) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

func (s *Session) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

// OnCommit registers fn to run after a successful Commit. Hooks never run on rollback.
func (s *Session) OnCommit(fn func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return sql.ErrTxDone
	}
	s.done = true
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	for _, hook := range hooks {
		hook(ctx)
	}
	return nil
}

// Close releases the connection. An uncommitted transaction is rolled back.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	s.hooks = nil

	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to release session: %w", err)
	}
	return nil
}

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	return sess, ok && sess != nil
}

func RequireSession(ctx context.Context) (*Session, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}
