package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMirrorWritePicksFileByKind(t *testing.T) {
	dir := t.TempDir()
	m := NewMirror(dir)

	entry := Entry{Kind: KindPreference, ScopeKey: "scope-1", Text: "likes dark roast", CreatedAt: time.Now().UTC()}
	if err := m.Write(entry); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "semantic", "preferences.md"))
	if err != nil {
		t.Fatalf("read mirror file: %v", err)
	}
	if !strings.Contains(string(data), "likes dark roast") {
		t.Fatalf("expected mirror file to contain entry text, got %q", data)
	}
}

func TestMirrorWriteEpisodicUsesDatedFile(t *testing.T) {
	dir := t.TempDir()
	m := NewMirror(dir)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entry := Entry{Kind: KindEpisodic, ScopeKey: "scope-1", Text: "an episodic note", CreatedAt: now}
	if err := m.Write(entry); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(dir, "episodic", "2026-01-02.md")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected dated episodic file, stat error: %v", err)
	}
}
