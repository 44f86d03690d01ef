package database

import (
	"sort"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
)

// NewTest opens an in-memory database with the full schema applied. The
// connection pool is capped at one connection so every query sees the same
// in-memory instance.
func NewTest(t *testing.T) *DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			t.Fatalf("failed to read migration %s: %v", name, err)
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			t.Fatalf("failed to apply migration %s: %v", name, err)
		}
	}

	return &DB{DB: db}
}
