package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// isolate keeps env overrides and git discovery out of a test.
func isolate(t *testing.T, repoRoot string) {
	t.Helper()
	prevLookup, prevGit, prevInput, prevTerminal := configLookup, gitRunner, initInput, isTerminal
	configLookup = func(string) (string, bool) { return "", false }
	gitRunner = func(context.Context, string, ...string) (string, error) {
		if repoRoot == "" {
			return "", os.ErrNotExist
		}
		return repoRoot, nil
	}
	t.Cleanup(func() {
		configLookup, gitRunner, initInput, isTerminal = prevLookup, prevGit, prevInput, prevTerminal
	})
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
