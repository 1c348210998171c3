// # cmd/qwikbridge/app.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kunai-consulting/qwikbridge/internal/bridge"
	"github.com/kunai-consulting/qwikbridge/internal/core/config"
	"github.com/kunai-consulting/qwikbridge/internal/data/history"
	"github.com/kunai-consulting/qwikbridge/internal/parser"
	"github.com/kunai-consulting/qwikbridge/internal/resolver"
	"github.com/kunai-consulting/qwikbridge/internal/shared/observability"
	"github.com/kunai-consulting/qwikbridge/internal/shared/util"
	"github.com/kunai-consulting/qwikbridge/internal/transform"
	"github.com/kunai-consulting/qwikbridge/internal/watcher"
)

type App struct {
	Config *config.Config
	Parser *parser.Parser
	Hook   *transform.Hook

	root       string
	history    *history.Store
	obsServer  *observability.Server
	watcher    *watcher.Watcher
	teaProgram *tea.Program
}

func NewApp(cfg *config.Config) (*App, error) {
	root, err := cfg.AbsoluteRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	p := parser.NewParser(parser.NewGrammarLoader())
	res := resolver.New(root, cfg.Resolver.Extensions, cfg.Resolver.DefaultExtension)
	t := transform.New(p, res, optionsFromConfig(cfg.Transform))

	hook, err := transform.NewHook(t)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Parser: p,
		Hook:   hook,
		root:   root,
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		app.history = store
	}

	return app, nil
}

func optionsFromConfig(tc config.Transform) transform.Options {
	opts := transform.DefaultOptions()
	opts.TriggerName = tc.Trigger
	opts.FactoryName = tc.Factory
	opts.BridgeNamespace = tc.BridgeNamespace
	opts.BridgePackage = tc.BridgePackage
	opts.HelperName = tc.Helper
	opts.HelperPackage = tc.HelperPackage
	opts.TestFileMarkers = tc.Markers
	opts.IncludeGlobs = tc.Include
	opts.ExcludeGlobs = tc.Exclude
	return opts
}

func (a *App) Close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}
	if a.obsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.obsServer.Stop(ctx); err != nil {
			slog.Warn("failed to stop observability server", "error", err)
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}
}

// moduleIDFor turns a filesystem path into the root-anchored module id
// used on the wire and in source maps.
func (a *App) moduleIDFor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	rel := util.RootRelative(a.root, abs)
	return "/" + strings.TrimPrefix(rel, "./")
}

// TransformAndPrint runs the rewrite hook over one module and writes the
// result to stdout. An unchanged module is printed back verbatim so the
// command composes in pipelines.
func (a *App) TransformAndPrint(path string, emitMap bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	moduleID := a.moduleIDFor(path)
	start := time.Now()
	result, err := a.Hook.Transform(source, moduleID)
	a.recordRun(moduleID, source, result, time.Since(start), err)
	if err != nil {
		return err
	}

	if emitMap {
		if result == nil {
			fmt.Println("{}")
			return nil
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(result.Map)
	}

	if result == nil {
		_, err = os.Stdout.Write(source)
		return err
	}
	_, err = fmt.Print(result.Code)
	return err
}

func (a *App) recordRun(moduleID string, source []byte, result *transform.Result, elapsed time.Duration, transformErr error) {
	if a.history == nil {
		return
	}

	run := history.Run{
		Module:      moduleID,
		ContentHash: history.HashContent(source),
		Detected:    result != nil,
		DurationMs:  elapsed.Milliseconds(),
	}
	if result != nil {
		run.RewrittenCalls = result.Rewrites
	}
	if transformErr != nil {
		run.Warning = transformErr.Error()
	}

	if err := a.history.SaveRun(run); err != nil {
		slog.Warn("failed to record transform run", "module", moduleID, "error", err)
	}
}

// Serve answers bridge commands over stdio until the context ends. The
// observability endpoint runs for the lifetime of the serve loop.
func (a *App) Serve(ctx context.Context) error {
	renderer, err := bridge.NewProcessRenderer(a.Config.Bridge.RendererCommand, a.root)
	if err != nil {
		return fmt.Errorf("configure renderer: %w", err)
	}

	registry := bridge.NewRegistry()
	preparer := bridge.NewModulePreparer(a.Parser)
	handlers := bridge.NewHandlers(a.root, renderer, preparer,
		a.Config.Bridge.TempPrefix, a.Config.Bridge.DefinePrefixes)
	if err := handlers.RegisterAll(registry); err != nil {
		return err
	}

	descriptors := bridge.DefaultDescriptors()
	if doc := a.Config.Bridge.DescriptorDoc; doc != "" {
		descriptors, err = bridge.LoadDescriptors(doc)
		if err != nil {
			return fmt.Errorf("load command descriptors: %w", err)
		}
	}

	rpm, burst := 0, 0
	if a.Config.Bridge.RateLimit.Enabled {
		rpm = a.Config.Bridge.RateLimit.RequestsPerMinute
		burst = a.Config.Bridge.RateLimit.Burst
	}

	a.startObservability(ctx)

	stdio := bridge.NewStdio(registry, descriptors, rpm, burst)
	slog.Info("bridge serving", "commands", len(registry.Commands()),
		"rateLimited", rpm > 0)
	return stdio.Serve(ctx)
}

// StartWatcher begins re-transforming test modules as they change. It
// returns once watching is established; change handling runs in the
// background.
func (a *App) StartWatcher() error {
	match := func(path string) bool {
		return a.Hook.IsTestFile(a.moduleIDFor(path))
	}

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Watch.ExcludeDirs,
		match,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	a.watcher = w

	paths := make([]string, 0, len(a.Config.Watch.Paths))
	for _, p := range a.Config.Watch.Paths {
		if filepath.IsAbs(p) {
			paths = append(paths, p)
		} else {
			paths = append(paths, filepath.Join(a.root, p))
		}
	}

	a.startObservability(context.Background())
	return w.Watch(paths)
}

// HandleChanges re-runs the transform hook over each changed module and
// feeds the outcome to the history store and the TUI when present.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	start := time.Now()

	rewritten := 0
	var warnings []string

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		source, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read changed module", "path", path, "error", err)
			continue
		}

		moduleID := a.moduleIDFor(path)
		runStart := time.Now()
		result, err := a.Hook.Transform(source, moduleID)
		a.recordRun(moduleID, source, result, time.Since(runStart), err)

		switch {
		case err != nil:
			slog.Warn("transform failed", "module", moduleID, "error", err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", moduleID, err))
		case result != nil:
			rewritten++
			slog.Info("module rewritten", "module", moduleID, "calls", result.Rewrites)
			a.writeCache(moduleID, result)
		default:
			slog.Debug("module unchanged", "module", moduleID)
		}
	}

	slog.Info("change batch handled",
		"files", len(paths), "rewritten", rewritten, "duration", time.Since(start))

	if a.teaProgram != nil {
		a.teaProgram.Send(updateMsg{runs: a.recentRuns(), warnings: warnings})
	}
}

// writeCache mirrors the rewritten module (and its map) under the cache
// directory so the surrounding build tool can pick it up without
// re-running the transform.
func (a *App) writeCache(moduleID string, result *transform.Result) {
	if a.Config.Paths.CacheDir == "" {
		return
	}

	target := filepath.Join(a.Config.Paths.CacheDir,
		filepath.FromSlash(strings.TrimPrefix(moduleID, "/")))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		slog.Warn("failed to create cache dir", "path", target, "error", err)
		return
	}
	if err := os.WriteFile(target, []byte(result.Code), 0o644); err != nil {
		slog.Warn("failed to cache rewritten module", "path", target, "error", err)
		return
	}

	mapJSON, err := json.Marshal(result.Map)
	if err == nil {
		err = os.WriteFile(target+".map", mapJSON, 0o644)
	}
	if err != nil {
		slog.Warn("failed to cache source map", "path", target, "error", err)
	}
}

func (a *App) recentRuns() []history.Run {
	if a.history == nil {
		return nil
	}
	runs, err := a.history.RecentRuns(50)
	if err != nil {
		slog.Warn("failed to load recent runs", "error", err)
		return nil
	}
	return runs
}

// RunUI blocks in the terminal UI until the user quits.
func (a *App) RunUI() error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	a.teaProgram = p

	go func() {
		a.teaProgram.Send(updateMsg{runs: a.recentRuns()})
	}()

	_, err := p.Run()
	return err
}

func (a *App) startObservability(ctx context.Context) {
	if a.obsServer != nil || a.Config.Observability.Address == "" {
		return
	}
	srv := observability.NewServer(a.Config.Observability.Address, nil)
	if err := srv.Start(ctx); err != nil {
		slog.Warn("observability server disabled", "error", err)
		return
	}
	a.obsServer = srv
}
