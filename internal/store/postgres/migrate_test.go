package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_Ordered(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_add_index.sql": {Data: []byte("CREATE INDEX x ON y (z);")},
		"migrations/0001_init.sql":      {Data: []byte("CREATE TABLE y (z int);")},
		"migrations/README.md":          {Data: []byte("ignored")},
	}

	got, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(got))
	}
	if got[0].Version != 1 || got[0].Name != "init" {
		t.Fatalf("unexpected first migration: %+v", got[0])
	}
	if got[1].Version != 2 || got[1].Name != "add_index" {
		t.Fatalf("unexpected second migration: %+v", got[1])
	}
}

func TestLoadMigrations_RejectsBadNames(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"no name":    {"migrations/0001.sql": {Data: []byte("x")}},
		"bad number": {"migrations/abc_init.sql": {Data: []byte("x")}},
		"duplicate": {
			"migrations/0001_a.sql": {Data: []byte("x")},
			"migrations/001_b.sql":  {Data: []byte("y")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := loadMigrations(fsys); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := loadMigrations(migrationFiles)
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(got) == 0 || got[0].Version != 1 {
		t.Fatalf("expected embedded migrations starting at 1")
	}
	if !strings.Contains(got[0].SQL, "friend_requests_pending_uq") {
		t.Fatalf("expected pending request index in initial migration")
	}
}
