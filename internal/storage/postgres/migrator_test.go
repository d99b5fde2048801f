package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestParseMigrations_Embedded(t *testing.T) {
	t.Parallel()

	migrations, err := parseMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("parseMigrations failed: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if migrations[0].Version != 1 || migrations[0].Name != "kv_entries" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if !strings.Contains(migrations[0].Up, "kv_entries") {
		t.Fatalf("first migration must create kv_entries, got %q", migrations[0].Up)
	}
}

func TestParseMigrations_SortedByVersion(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0002_more.up.sql":   {Data: []byte("CREATE TABLE b (id INT);")},
		"sql/migrations/0002_more.down.sql": {Data: []byte("DROP TABLE b;")},
		"sql/migrations/0001_init.up.sql":   {Data: []byte("CREATE TABLE a (id INT);")},
		"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE a;")},
	}

	migrations, err := parseMigrations(fsys)
	if err != nil {
		t.Fatalf("parseMigrations failed: %v", err)
	}
	if len(migrations) != 2 || migrations[0].Name != "init" || migrations[1].Name != "more" {
		t.Fatalf("unexpected order: %+v", migrations)
	}
}

func TestParseMigrations_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr string
	}{
		{
			name:    "no files",
			fsys:    fstest.MapFS{},
			wantErr: "no migration files",
		},
		{
			name: "missing down",
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql": {Data: []byte("CREATE TABLE a (id INT);")},
			},
			wantErr: "both up and down",
		},
		{
			name: "bad name",
			fsys: fstest.MapFS{
				"sql/migrations/init.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "invalid migration file name",
		},
		{
			name: "empty body",
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":   {Data: []byte("  ")},
				"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			wantErr: "empty",
		},
		{
			name: "name mismatch",
			fsys: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":    {Data: []byte("CREATE TABLE a (id INT);")},
				"sql/migrations/0001_other.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			wantErr: "name mismatch",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseMigrations(tc.fsys)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
