package storage

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestNotFound(t *testing.T) {
	if err := notFound(pgx.ErrNoRows, "user"); !errors.Is(err, ErrNotFound) {
		t.Errorf("notFound(ErrNoRows) = %v, want ErrNotFound", err)
	}

	other := errors.New("connection reset")
	err := notFound(other, "user")
	if errors.Is(err, ErrNotFound) || !errors.Is(err, other) {
		t.Errorf("notFound(other) = %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil || len(names) == 0 {
		t.Fatalf("migrations = %v, %v", names, err)
	}

	sql, err := migrations.ReadFile(names[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"workbench_state", "users", "refresh_tokens", "api_tokens", "auth_events"} {
		if !strings.Contains(string(sql), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("schema missing table %s", table)
		}
	}
}
