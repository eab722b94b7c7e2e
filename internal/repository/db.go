package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

// Dialect describes the SQL differences between supported backends.
type Dialect struct {
	Name   string
	driver string
	goose  goose.Dialect
}

var (
	MySQL    = Dialect{Name: "mysql", driver: "mysql", goose: goose.DialectMySQL}
	SQLite   = Dialect{Name: "sqlite", driver: "sqlite", goose: goose.DialectSQLite3}
	Postgres = Dialect{Name: "postgres", driver: "pgx", goose: goose.DialectPostgres}
)

// DialectByName returns the dialect for a STORE setting.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported store %q", name)
	}
}

// Rebind rewrites ? placeholders to $1, $2, ... for Postgres.
func (d Dialect) Rebind(query string) string {
	if d.Name != Postgres.Name {
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

// NewDB opens a connection pool for the dialect and verifies it with a ping.
func NewDB(d Dialect, dsn string) (*sql.DB, error) {
	var err error
	switch d.Name {
	case SQLite.Name:
		dsn, err = prepareSQLiteDSN(dsn)
	case MySQL.Name:
		dsn, err = prepareMySQLDSN(dsn)
	}
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// An in-memory SQLite database lives and dies with its connection.
	if d.Name == SQLite.Name && isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return db, nil
}

// prepareMySQLDSN makes DATETIME columns scan into UTC time.Time values.
func prepareMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func prepareSQLiteDSN(dsn string) (string, error) {
	if !isMemoryDSN(dsn) {
		path := strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}

	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(30000)",
		"_pragma=synchronous(NORMAL)",
	}
	return dsn + strings.Join(pragmas, "&"), nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Migrate applies the embedded goose migrations for the dialect.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	fsys, err := fs.Sub(migrations, "migrations/"+d.Name)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(d.goose, db, fsys)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		slog.Info("migration applied", "dialect", d.Name, "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
