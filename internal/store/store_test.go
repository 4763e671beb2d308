package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, keep int) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "undo.db")
	s, err := Open(dbPath, keep)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLatestCommand_Empty(t *testing.T) {
	s := openTestDB(t, 0)
	if _, err := s.LatestCommand(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestDeltas_FirstPerFileWins(t *testing.T) {
	s := openTestDB(t, 0)
	if err := s.CreateCommand("c1", "implement"); err != nil {
		t.Fatal(err)
	}
	must(t, s.AddDelta("c1", "/w/a.h", OpModify, []byte("original")))
	must(t, s.AddDelta("c1", "/w/a.h", OpModify, []byte("second")))
	must(t, s.AddDelta("c1", "/w/a.cpp", OpCreate, []byte("ignored")))

	deltas, err := s.Deltas("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}
	// Most recent first.
	if deltas[0].Path != "/w/a.cpp" || deltas[0].Op != OpCreate || deltas[0].OldContent != nil {
		t.Errorf("deltas[0] = %+v", deltas[0])
	}
	if deltas[1].Path != "/w/a.h" || string(deltas[1].OldContent) != "original" {
		t.Errorf("deltas[1] = %+v", deltas[1])
	}

	latest, err := s.LatestCommand()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "c1" || latest.Name != "implement" || latest.Files != 2 {
		t.Errorf("latest = %+v", latest)
	}
}

func TestLatestCommand_Ordering(t *testing.T) {
	s := openTestDB(t, 0)
	must(t, s.CreateCommand("c1", "define"))
	must(t, s.CreateCommand("c2", "move"))

	latest, err := s.LatestCommand()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "c2" {
		t.Errorf("latest = %q, want c2", latest.ID)
	}

	must(t, s.DeleteCommand("c2"))
	latest, err = s.LatestCommand()
	if err != nil || latest.ID != "c1" {
		t.Errorf("after delete latest = %q, %v", latest.ID, err)
	}
}

func TestPrune(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "undo.db")
	s, err := Open(dbPath, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 5 {
		id := fmt.Sprintf("c%d", i)
		must(t, s.CreateCommand(id, "define"))
		must(t, s.AddDelta(id, "/w/a.h", OpModify, []byte(id)))
	}
	s.Close()

	s = reopenDB(t, dbPath, 3)
	cmds, err := s.Commands(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 3 || cmds[0].ID != "c4" || cmds[2].ID != "c2" {
		t.Fatalf("commands after prune = %+v", cmds)
	}
	if deltas, _ := s.Deltas("c0"); len(deltas) != 0 {
		t.Error("deltas of pruned command survived")
	}
}

func reopenDB(t *testing.T, path string, keep int) *DB {
	t.Helper()
	s, err := Open(path, keep)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
