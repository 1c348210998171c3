// # cmd/qwikbridge/app_test.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kunai-consulting/qwikbridge/internal/core/config"
)

const appTestModule = `import { renderSSR } from "vitest-browser-qwik";
import { Counter } from "../src/Counter";
import { test, expect } from "vitest";

test("renders counter", async () => {
  const screen = await renderSSR(<Counter initialCount={5} />);
  await expect.element(screen.getByText("5")).toBeVisible();
});
`

const appFixtureComponent = `import { component$ } from "@builder.io/qwik";

export const Counter = component$((props: { initialCount: number }) => {
  return <div>{props.initialCount}</div>;
});
`

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "src", "Counter.tsx"), appFixtureComponent)
	mustWrite(t, filepath.Join(root, "test", "app.test.tsx"), appTestModule)

	configPath := filepath.Join(root, "qwikbridge.toml")
	mustWrite(t, configPath, fmt.Sprintf(`
[paths]
project_root = %q
history_db = %q

[history]
enabled = true
`, root, filepath.Join(root, "history.db")))

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(app.Close)
	return app, root
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestModuleIDForRootAnchored(t *testing.T) {
	app, root := newTestApp(t)

	got := app.moduleIDFor(filepath.Join(root, "test", "app.test.tsx"))
	if got != "/test/app.test.tsx" {
		t.Errorf("expected /test/app.test.tsx, got %q", got)
	}

	// Relative paths resolve against the working directory, not the root,
	// so an already-absolute path inside the root is the common case.
	got = app.moduleIDFor(filepath.Join(root, "src", "Counter.tsx"))
	if got != "/src/Counter.tsx" {
		t.Errorf("expected /src/Counter.tsx, got %q", got)
	}
}

func TestHandleChangesRecordsRuns(t *testing.T) {
	app, root := newTestApp(t)

	app.HandleChanges([]string{filepath.Join(root, "test", "app.test.tsx")})

	runs := app.recentRuns()
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}

	run := runs[0]
	if run.Module != "/test/app.test.tsx" {
		t.Errorf("unexpected module id %q", run.Module)
	}
	if !run.Detected {
		t.Error("expected the render call to be detected")
	}
	if run.RewrittenCalls != 1 {
		t.Errorf("expected 1 rewritten call, got %d", run.RewrittenCalls)
	}
	if run.Warning != "" {
		t.Errorf("unexpected warning %q", run.Warning)
	}
}

func TestHandleChangesSkipsDeletedFiles(t *testing.T) {
	app, root := newTestApp(t)

	app.HandleChanges([]string{filepath.Join(root, "test", "gone.test.tsx")})

	if runs := app.recentRuns(); len(runs) != 0 {
		t.Fatalf("expected no runs for a deleted file, got %d", len(runs))
	}
}

func TestHandleChangesWritesCache(t *testing.T) {
	root := t.TempDir()
	cacheDir := filepath.Join(root, ".cache")
	mustWrite(t, filepath.Join(root, "src", "Counter.tsx"), appFixtureComponent)
	mustWrite(t, filepath.Join(root, "test", "app.test.tsx"), appTestModule)

	configPath := filepath.Join(root, "qwikbridge.toml")
	mustWrite(t, configPath, fmt.Sprintf(`
[paths]
project_root = %q
cache_dir = %q
`, root, cacheDir))

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	app.HandleChanges([]string{filepath.Join(root, "test", "app.test.tsx")})

	cached, err := os.ReadFile(filepath.Join(cacheDir, "test", "app.test.tsx"))
	if err != nil {
		t.Fatalf("expected cached module: %v", err)
	}
	if !strings.Contains(string(cached), "ssrCommands.renderExternal") {
		t.Errorf("cached module is not rewritten:\n%s", cached)
	}

	mapped, err := os.ReadFile(filepath.Join(cacheDir, "test", "app.test.tsx.map"))
	if err != nil {
		t.Fatalf("expected cached source map: %v", err)
	}
	if !strings.Contains(string(mapped), `"version":3`) {
		t.Errorf("unexpected map content: %s", mapped)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	tc := config.Transform{
		Trigger:         "renderServer",
		Factory:         "widget$",
		BridgeNamespace: "cmds",
		BridgePackage:   "my-lib/commands",
		Helper:          "inject",
		HelperPackage:   "my-lib/client",
		Markers:         []string{".e2e."},
		Include:         []string{"tests/**"},
		Exclude:         []string{"**/skip/**"},
	}

	opts := optionsFromConfig(tc)
	if opts.TriggerName != "renderServer" || opts.FactoryName != "widget$" {
		t.Errorf("trigger/factory not mapped: %+v", opts)
	}
	if opts.BridgeNamespace != "cmds" || opts.BridgePackage != "my-lib/commands" {
		t.Errorf("bridge import not mapped: %+v", opts)
	}
	if opts.HelperName != "inject" || opts.HelperPackage != "my-lib/client" {
		t.Errorf("helper import not mapped: %+v", opts)
	}
	if len(opts.TestFileMarkers) != 1 || opts.TestFileMarkers[0] != ".e2e." {
		t.Errorf("markers not mapped: %v", opts.TestFileMarkers)
	}
	if len(opts.IncludeGlobs) != 1 || len(opts.ExcludeGlobs) != 1 {
		t.Errorf("globs not mapped: %+v", opts)
	}

	// Command method names are not configurable; they come from defaults.
	if opts.ExternalCommand != "renderExternal" || opts.LocalCommand != "renderLocal" {
		t.Errorf("command names should keep defaults: %+v", opts)
	}
}

func TestNewAppWithoutHistory(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "qwikbridge.toml")
	mustWrite(t, configPath, fmt.Sprintf("[paths]\nproject_root = %q\n", root))

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if app.history != nil {
		t.Error("history store should be nil when disabled")
	}
	if runs := app.recentRuns(); runs != nil {
		t.Errorf("expected nil runs without a store, got %v", runs)
	}

	// recordRun is a no-op without a store.
	app.recordRun("/test/x.test.tsx", []byte("renderSSR"), nil, 0, nil)
}

func TestRunSummaryFormats(t *testing.T) {
	app, root := newTestApp(t)
	app.HandleChanges([]string{filepath.Join(root, "test", "app.test.tsx")})

	runs := app.recentRuns()
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	summary := runSummary(runs[0])
	if !strings.Contains(summary, "1 calls rewritten") {
		t.Errorf("unexpected summary %q", summary)
	}
}
