package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// PostgreSQL driver for postgres:// DSNs.
	_ "github.com/lib/pq"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by repo lookups that match no row.
var ErrNotFound = errors.New("not found")

// Store holds the database handle and provides access to repositories.
// A Store returned by Tx shares the transaction with every repo it hands out.
type Store struct {
	db      *sql.DB
	conn    entsql.ExecQuerier
	dialect string
}

// Open connects to the database named by dsn, applies pragmas (SQLite)
// and migrates the schema. DSNs starting with postgres:// or
// postgresql:// use PostgreSQL; anything else is a SQLite path or URI.
func Open(dsn string) (*Store, error) {
	driverName, dia := "sqlite", dialect.SQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driverName, dia = "postgres", dialect.Postgres
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dia == dialect.SQLite {
		// One connection keeps in-memory databases alive and
		// serializes writers.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	s := &Store{db: db, conn: db, dialect: dia}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(entsql.OpenDB(s.dialect, s.db))
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect name.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx runs fn inside a transaction. The Store passed to fn must be used
// for every read and write that belongs to the transaction; touching the
// outer Store from fn deadlocks on SQLite.
func (s *Store) Tx(ctx context.Context, fn func(tx *Store) error) error {
	if _, nested := s.conn.(*sql.Tx); nested {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{db: s.db, conn: tx, dialect: s.dialect}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Profiles() ProfileRepo {
	return &profileRepo{s}
}

func (s *Store) SkillSnapshots() SkillSnapshotRepo {
	return &skillSnapshotRepo{s}
}

func (s *Store) Vocabulary() VocabRepo {
	return &vocabRepo{s}
}

func (s *Store) Decks() DeckRepo {
	return &deckRepo{s}
}

func (s *Store) Subscriptions() SubscriptionRepo {
	return &subscriptionRepo{s}
}

func (s *Store) Views() ViewRepo {
	return &viewRepo{s}
}

func (s *Store) Stories() StoryRepo {
	return &storyRepo{s}
}

func (s *Store) Videos() VideoRepo {
	return &videoRepo{s}
}

func (s *Store) Dictionary() DictionaryRepo {
	return &dictionaryRepo{s}
}

func (s *Store) Media() MediaRepo {
	return &mediaRepo{s}
}

func (s *Store) Jobs() JobRepo {
	return &jobRepo{s}
}

func (s *Store) EventRepo() EventRepo {
	return &eventRepo{s}
}

// sb returns a statement builder for the store's dialect.
func (s *Store) sb() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *Store) exec(ctx context.Context, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return s.conn.ExecContext(ctx, query, args...)
}

// scanAll runs q and scans every row into dst, a pointer to a slice.
// Rows are always closed before returning.
func (s *Store) scanAll(ctx context.Context, q entsql.Querier, dst any) error {
	query, args := q.Query()
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	return entsql.ScanSlice(rows, dst)
}

// scanInt runs a single-value query such as COUNT(*).
func (s *Store) scanInt(ctx context.Context, q entsql.Querier) (int, error) {
	query, args := q.Query()
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt(rows)
}

// affected reports ErrNotFound when an update or delete touched no rows.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. SANLANG_DB environment variable
// 2. $XDG_DATA_HOME/sanlang/sanlang.db
// 3. ~/.local/share/sanlang/sanlang.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("SANLANG_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "sanlang", "sanlang.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a SQLite path if needed.
// PostgreSQL DSNs are left alone.
func EnsureDir(path string) error {
	if strings.Contains(path, "://") || strings.HasPrefix(path, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
