// # cmd/qwikbridge/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kunai-consulting/qwikbridge/internal/core/config"
	"github.com/kunai-consulting/qwikbridge/internal/shared/observability"
)

var (
	configPath    = flag.String("config", "./qwikbridge.toml", "Path to config file")
	transformPath = flag.String("transform", "", "Transform a single test module and print the result")
	emitMap       = flag.Bool("map", false, "With -transform, print the source map instead of the code")
	serve         = flag.Bool("serve", false, "Serve bridge commands over stdio")
	watch         = flag.Bool("watch", false, "Watch for test-module changes and re-transform")
	ui            = flag.Bool("ui", false, "Terminal UI over watch mode")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	version       = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("qwikbridge v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	if *ui {
		// In UI mode, keep logs away from the terminal the TUI owns.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err == nil {
			if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
				output = f
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./"+config.DefaultFile {
			cfg, err = config.Load("./" + config.ExampleFile)
		}
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if endpoint := cfg.Observability.OTLPEndpoint; endpoint != "" {
		shutdown, err := observability.InitTracing(ctx, endpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	switch {
	case *transformPath != "":
		if err := app.TransformAndPrint(*transformPath, *emitMap); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

	case *serve:
		if err := app.Serve(ctx); err != nil && ctx.Err() == nil {
			slog.Error("bridge server failed", "error", err)
			os.Exit(1)
		}

	case *watch || *ui:
		if err := app.StartWatcher(); err != nil {
			slog.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
		if *ui {
			if err := app.RunUI(); err != nil {
				slog.Error("failed to run UI", "error", err)
				os.Exit(1)
			}
		} else {
			<-ctx.Done()
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "qwikbridge", "qwikbridge.log")
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "qwikbridge", "qwikbridge.log")
	}
	return "qwikbridge.log"
}
