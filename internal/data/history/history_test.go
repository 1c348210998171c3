// # internal/data/history/history_test.go
package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSaveAndLoadRuns(t *testing.T) {
	store, _ := openStore(t)

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	runs := []Run{
		{Module: "/test/a.test.tsx", ContentHash: "aaaa", Detected: true, RewrittenCalls: 2, DurationMs: 12, Timestamp: base},
		{Module: "/test/b.test.tsx", ContentHash: "bbbb", Detected: false, Timestamp: base.Add(time.Minute)},
		{Module: "/test/a.test.tsx", ContentHash: "aaab", Detected: true, RewrittenCalls: 1, Warning: "parse retry", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, run := range runs {
		if err := store.SaveRun(run); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := store.RecentRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d runs", len(recent))
	}
	// Newest first.
	if recent[0].Module != "/test/a.test.tsx" || recent[0].ContentHash != "aaab" {
		t.Errorf("first run = %+v", recent[0])
	}
	if recent[0].Warning != "parse retry" {
		t.Errorf("warning = %q", recent[0].Warning)
	}
	if !recent[2].Detected || recent[2].RewrittenCalls != 2 {
		t.Errorf("oldest run = %+v", recent[2])
	}

	forA, err := store.RunsForModule("/test/a.test.tsx", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(forA) != 2 {
		t.Fatalf("got %d runs for module", len(forA))
	}

	limited, err := store.RecentRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d runs", len(limited))
	}
}

func TestSaveRunValidation(t *testing.T) {
	store, _ := openStore(t)
	if err := store.SaveRun(Run{}); err == nil {
		t.Error("empty module accepted")
	}
}

func TestReopenKeepsData(t *testing.T) {
	store, path := openStore(t)
	if err := store.SaveRun(Run{Module: "/m.test.tsx", ContentHash: HashContent([]byte("x"))}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	runs, err := reopened.RecentRuns(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs after reopen", len(runs))
	}
}

func TestOpenRejectsBadPaths(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("empty path accepted")
	}
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("directory path accepted")
	}
}

func TestHashContent(t *testing.T) {
	a := HashContent([]byte("one"))
	b := HashContent([]byte("two"))
	if a == b {
		t.Error("distinct content hashed equal")
	}
	if len(a) != 16 {
		t.Errorf("hash length = %d", len(a))
	}
	if a != HashContent([]byte("one")) {
		t.Error("hash not deterministic")
	}
}
