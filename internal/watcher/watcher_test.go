// # internal/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isTestModule(path string) bool {
	return strings.Contains(filepath.Base(path), ".test.")
}

func TestNewWatcher_RejectsNilCallbacks(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, isTestModule, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}

	if _, err := NewWatcher(100*time.Millisecond, nil, nil, func([]string) {}); err == nil {
		t.Fatal("expected error for nil match predicate")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(100*time.Millisecond, []string{"[bad"}, isTestModule, func([]string) {}); err == nil {
		t.Fatal("expected error for invalid exclude glob")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, []string{"node_modules"}, isTestModule, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "counter.test.tsx")
	if err := os.WriteFile(testFile, []byte("export {};"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("timed out waiting for file change event")
	}

	// A source file does not match the test-module convention.
	sourceFile := filepath.Join(tmpDir, "counter.tsx")
	if err := os.WriteFile(sourceFile, []byte("export {};"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if p == sourceFile {
				t.Error("non-test file triggered event")
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected.
	}

	// New directories get watched recursively.
	subdir := filepath.Join(tmpDir, "nested")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(subdir, "deep.test.tsx")
	if err := os.WriteFile(nested, []byte("export {};"), 0o644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == nested {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event")
		}
	}
}

func TestWatcher_ExcludedDirIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	excluded := filepath.Join(tmpDir, "node_modules")
	if err := os.MkdirAll(excluded, 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, []string{"node_modules"}, isTestModule, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(excluded, "dep.test.tsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		t.Errorf("excluded directory produced events: %v", paths)
	case <-time.After(500 * time.Millisecond):
		// Expected.
	}
}
