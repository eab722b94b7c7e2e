package repository

import (
	"errors"
	"strings"
	"testing"
)

func TestDialectByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mysql", "mysql"},
		{"MySQL", "mysql"},
		{"sqlite", "sqlite"},
		{"sqlite3", "sqlite"},
		{"postgres", "postgres"},
		{"pgx", "postgres"},
	}

	for _, tt := range tests {
		d, err := DialectByName(tt.name)
		if err != nil {
			t.Fatalf("DialectByName(%q) unexpected error: %v", tt.name, err)
		}
		if d.Name != tt.want {
			t.Errorf("DialectByName(%q) = %q, want %q", tt.name, d.Name, tt.want)
		}
	}

	if _, err := DialectByName("mongodb"); err == nil {
		t.Error("DialectByName(mongodb) expected error")
	}
}

func TestRebind(t *testing.T) {
	q := `UPDATE users SET password_hash = ? WHERE id = ?`

	if got := MySQL.Rebind(q); got != q {
		t.Errorf("MySQL.Rebind() changed the query: %q", got)
	}
	if got := SQLite.Rebind(q); got != q {
		t.Errorf("SQLite.Rebind() changed the query: %q", got)
	}
	if got, want := Postgres.Rebind(q), `UPDATE users SET password_hash = $1 WHERE id = $2`; got != want {
		t.Errorf("Postgres.Rebind() = %q, want %q", got, want)
	}
}

func TestPrepareSQLiteDSN(t *testing.T) {
	dsn, err := prepareSQLiteDSN("file:x?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("prepareSQLiteDSN() unexpected error: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:x?mode=memory&cache=shared&_pragma=foreign_keys(1)") {
		t.Errorf("unexpected dsn %q", dsn)
	}

	dsn, err = prepareSQLiteDSN(t.TempDir() + "/data/novels.db")
	if err != nil {
		t.Fatalf("prepareSQLiteDSN() unexpected error: %v", err)
	}
	if !strings.Contains(dsn, "novels.db?_pragma=foreign_keys(1)") {
		t.Errorf("unexpected dsn %q", dsn)
	}
}

func TestPrepareMySQLDSN(t *testing.T) {
	dsn, err := prepareMySQLDSN("novels:secret@tcp(127.0.0.1:3306)/novels")
	if err != nil {
		t.Fatalf("prepareMySQLDSN() unexpected error: %v", err)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("dsn %q lacks parseTime=true", dsn)
	}

	if _, err := prepareMySQLDSN("not a dsn"); err == nil {
		t.Error("prepareMySQLDSN() expected error for malformed dsn")
	}
}

func TestSentinelErrors(t *testing.T) {
	if ErrUserNotFound.Error() != "user not found" {
		t.Fatalf("unexpected error message: %s", ErrUserNotFound.Error())
	}
	if ErrDuplicateUsername.Error() != "username already exists" {
		t.Fatalf("unexpected error message: %s", ErrDuplicateUsername.Error())
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(nil) {
		t.Fatal("nil error should not be a unique violation")
	}
	if isUniqueViolation(ErrUserNotFound) {
		t.Fatal("ErrUserNotFound should not be a unique violation")
	}
	if !isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)")) {
		t.Fatal("sqlite unique error not recognized")
	}
	if !isForeignKeyViolation(errors.New("constraint failed: FOREIGN KEY constraint failed (787)")) {
		t.Fatal("sqlite foreign key error not recognized")
	}
}

func TestMySQLMigrationsUseNoPadCollation(t *testing.T) {
	for _, name := range []string{"00001_create_users.sql", "00002_create_favorites.sql"} {
		b, err := migrations.ReadFile("migrations/mysql/" + name)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		ddl := string(b)
		// PAD SPACE collations compare "x" and "x " as equal.
		if !strings.Contains(ddl, "COLLATE=utf8mb4_0900_bin") {
			t.Errorf("%s: table collation is not utf8mb4_0900_bin", name)
		}
		if strings.Contains(ddl, "utf8mb4_bin") {
			t.Errorf("%s: uses PAD SPACE collation utf8mb4_bin", name)
		}
	}
}

func TestMigrationColumnWidths(t *testing.T) {
	want := map[string][]string{
		"00001_create_users.sql":     {"username       VARCHAR(64)", "email          VARCHAR(255)"},
		"00002_create_favorites.sql": {"novel_title  VARCHAR(255)", "novel_author VARCHAR(255)", "novel_cover  VARCHAR(1024)"},
	}

	for _, dialect := range []string{"mysql", "postgres"} {
		for file, columns := range want {
			b, err := migrations.ReadFile("migrations/" + dialect + "/" + file)
			if err != nil {
				t.Fatalf("reading %s/%s: %v", dialect, file, err)
			}
			for _, col := range columns {
				if !strings.Contains(string(b), col) {
					t.Errorf("%s/%s: missing column definition %q", dialect, file, col)
				}
			}
		}
	}
}
