package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

const pingTimeout = 10 * time.Second

func (d Dialect) driverName() (string, error) {
	switch d {
	case MySQL:
		return "mysql", nil
	case Postgres:
		return "pgx", nil
	case SQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database dialect %q", d)
	}
}

type Options struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Store struct {
	DB      *sql.DB
	dialect Dialect
}

func NewDatabase(opts Options) (*Store, error) {
	driver, err := opts.Dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Dialect, err)
	}

	// SQLite has a single writer, and an in-memory database lives only as long as its one connection.
	if opts.Dialect == SQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{DB: db, dialect: opts.Dialect}, nil
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) Querier(ctx context.Context) Querier {
	if sess, ok := SessionFromContext(ctx); ok {
		return sess
	}
	return s.DB
}

func (s *Store) Rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertReturningID runs an INSERT and reports the generated primary key.
// PostgreSQL has no LastInsertId, so the statement gets a RETURNING clause there.
func (s *Store) InsertReturningID(ctx context.Context, q Querier, query string, args ...interface{}) (int64, error) {
	if s.dialect == Postgres {
		var id int64
		if err := q.QueryRowContext(ctx, s.Rebind(query)+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
