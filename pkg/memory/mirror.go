package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Mirror writes human-readable markdown copies of accepted entries.
// Mirrors are informational only, the Store remains the canonical truth.
// Mirror failures are logged by the caller, never fatal.
type Mirror struct {
	workspaceDir string
}

func NewMirror(workspaceDir string) *Mirror {
	return &Mirror{workspaceDir: workspaceDir}
}

// Write appends one summary line for entry to the mirror file selected by
// its kind. Only called on insert, never on dedupe-merge.
func (m *Mirror) Write(entry Entry) error {
	path, err := m.pathFor(entry)
	if err != nil {
		return newError(ErrMirrorIO, "resolve mirror path", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newError(ErrMirrorIO, "mkdir mirror dir", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return newError(ErrMirrorIO, "open mirror file", err)
	}
	defer f.Close()

	line := fmt.Sprintf("- [%s] %s %s\n",
		entry.CreatedAt.UTC().Format(time.RFC3339), entry.ScopeKey, oneLine(entry.Text))
	if _, err := f.WriteString(line); err != nil {
		return newError(ErrMirrorIO, "write mirror line", err)
	}
	return nil
}

func (m *Mirror) pathFor(entry Entry) (string, error) {
	switch entry.Kind {
	case KindEpisodic:
		day := entry.CreatedAt.UTC().Format("2006-01-02")
		return filepath.Join(m.workspaceDir, "episodic", day+".md"), nil
	case KindPreference:
		return filepath.Join(m.workspaceDir, "semantic", "preferences.md"), nil
	case KindFact:
		return filepath.Join(m.workspaceDir, "semantic", "facts.md"), nil
	case KindDecision:
		return filepath.Join(m.workspaceDir, "semantic", "decisions.md"), nil
	default:
		return "", fmt.Errorf("unknown kind %q", entry.Kind)
	}
}
