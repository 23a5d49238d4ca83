package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeSessionKey(t *testing.T) {
	if got := safeSessionKey("whatsapp:Chat 123!"); got != "whatsapp_chat_123_" {
		t.Fatalf("safeSessionKey = %q, want %q", got, "whatsapp_chat_123_")
	}
}

func TestSafeSessionKeyTruncatesOverflow(t *testing.T) {
	long := strings.Repeat("a", maxSafeKeyLen+50)
	got := safeSessionKey(long)
	if len(got) > maxSafeKeyLen {
		t.Fatalf("expected truncated key to fit within %d chars, got %d", maxSafeKeyLen, len(got))
	}
	if !strings.Contains(got, "-") {
		t.Fatalf("expected a hash suffix on overflow, got %q", got)
	}
}

func TestWALWriterAppendOrdering(t *testing.T) {
	dir := t.TempDir()
	w := NewWALWriter(dir, true)

	if err := w.AppendPre("session-1", "meta-1"); err != nil {
		t.Fatalf("AppendPre: %v", err)
	}
	if err := w.AppendPost("session-1", "summary-1"); err != nil {
		t.Fatalf("AppendPost: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, safeSessionKey("session-1")+".md"))
	if err != nil {
		t.Fatalf("read wal file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], "PRE meta-1") {
		t.Fatalf("first line missing PRE marker: %q", lines[0])
	}
	if !strings.Contains(lines[1], "POST summary-1") {
		t.Fatalf("second line missing POST marker: %q", lines[1])
	}
}

func TestWALWriterDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	w := NewWALWriter(dir, false)
	if err := w.AppendPre("session-1", "meta"); err != nil {
		t.Fatalf("AppendPre: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files written when WAL disabled, found %d", len(entries))
	}
}
