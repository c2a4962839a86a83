package ident

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureInitialized_MintsAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	p := New(path)

	id, err := p.EnsureInitialized()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id after initialization")
	}
	if p.CurrentID() != id {
		t.Errorf("CurrentID %q != returned id %q", p.CurrentID(), id)
	}

	// Simulated reload: a fresh provider reading the same file resumes the
	// same session.
	p2 := New(path)
	id2, err := p2.EnsureInitialized()
	if err != nil {
		t.Fatalf("unexpected error on reload: %v", err)
	}
	if id2 != id {
		t.Errorf("reload returned %q, want %q", id2, id)
	}
}

func TestEnsureInitialized_Idempotent(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "state.yaml"))
	id, _ := p.EnsureInitialized()
	again, err := p.EnsureInitialized()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != id {
		t.Errorf("second EnsureInitialized returned %q, want %q", again, id)
	}
}

func TestCreateNew_PersistsBeforeReturning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	p := New(path)
	first, _ := p.EnsureInitialized()

	fresh, err := p.CreateNew()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh == first {
		t.Error("CreateNew returned the previous id")
	}
	if p.CurrentID() != fresh {
		t.Errorf("CurrentID %q, want %q", p.CurrentID(), fresh)
	}

	// Durability read immediately after must see the new id.
	if got, _ := New(path).EnsureInitialized(); got != fresh {
		t.Errorf("reload returned %q, want %q", got, fresh)
	}
}

func TestSetCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	p := New(path)
	p.EnsureInitialized()

	if err := p.SetCurrent("sess_abc123xyz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentID() != "sess_abc123xyz" {
		t.Errorf("CurrentID %q, want sess_abc123xyz", p.CurrentID())
	}
	if got, _ := New(path).EnsureInitialized(); got != "sess_abc123xyz" {
		t.Errorf("reload returned %q, want sess_abc123xyz", got)
	}
}

func TestSetCurrent_RejectsEmpty(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "state.yaml"))
	if err := p.SetCurrent(""); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestWriteSlot_PreservesUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	os.WriteFile(path, []byte("some_other_key: keepme\n"), 0600)

	p := New(path)
	if _, err := p.EnsureInitialized(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "keepme") {
		t.Error("unrelated state file keys should be preserved")
	}
}

func TestNewID_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := newID()
		if !strings.HasPrefix(id, "sess_") {
			t.Fatalf("id %q missing sess_ prefix", id)
		}
		if len(id) != len("sess_")+9 {
			t.Fatalf("id %q has wrong length", id)
		}
		for _, r := range id[len("sess_"):] {
			if !strings.ContainsRune(idAlphabet, r) {
				t.Fatalf("id %q contains invalid rune %q", id, r)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q in 200 draws", id)
		}
		seen[id] = true
	}
}

func TestNewID_UniformAlphabet(t *testing.T) {
	// Byte-modulo mapping would favor the first 4 alphabet characters by
	// 8/7 (256 % 36 != 0); that shows up as ~12.5% excess over 225k draws.
	const ids = 25000
	counts := make(map[byte]int, len(idAlphabet))
	for i := 0; i < ids; i++ {
		for _, ch := range []byte(newID()[len(idPrefix):]) {
			counts[ch]++
		}
	}

	expected := float64(ids*idLength) / float64(len(idAlphabet))
	for i := 0; i < len(idAlphabet); i++ {
		got := float64(counts[idAlphabet[i]])
		if got < expected*0.93 || got > expected*1.07 {
			t.Errorf("character %q drawn %v times, expected ~%v",
				idAlphabet[i], got, expected)
		}
	}
}
