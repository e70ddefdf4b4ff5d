package store

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_Schema(t *testing.T) {
	s := newTestStore(t)

	objects := []struct{ kind, name string }{
		{"table", "settings"},
		{"table", "play_sessions"},
		{"table", "composers"},
		{"table", "pieces"},
		{"index", "idx_play_sessions_started_at"},
		{"index", "idx_pieces_composer"},
	}
	for _, o := range objects {
		t.Run(o.name, func(t *testing.T) {
			var name string
			err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = ? AND name = ?`, o.kind, o.name).Scan(&name)
			if err != nil {
				t.Errorf("%s %s missing: %v", o.kind, o.name, err)
			}
		})
	}
}

func TestNew_Pragmas(t *testing.T) {
	// A nested path also checks that New creates the directory.
	s, err := New(filepath.Join(t.TempDir(), "nested", "dir", "games.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()

	tests := []struct {
		pragma string
		want   string
	}{
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
		{"journal_mode", "wal"},
	}
	for _, tt := range tests {
		var got string
		if err := s.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", tt.pragma, err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestNew_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
	if err := s.Settings().Set("singing", `{"window":5}`); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("queries should fail after Close")
	}

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if v, err := s.Settings().Get("singing"); err != nil || v != `{"window":5}` {
		t.Errorf("Get() = %q, %v", v, err)
	}
}
