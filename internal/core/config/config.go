// # internal/core/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Transform     Transform     `toml:"transform"`
	Resolver      Resolver      `toml:"resolver"`
	Bridge        Bridge        `toml:"bridge"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	HistoryDB   string `toml:"history_db"`
	// CacheDir receives rewritten modules in watch mode. Empty disables
	// the cache; the transform itself stays stateless either way.
	CacheDir string `toml:"cache_dir"`
}

// Transform names everything the rewriter looks for and emits. The
// defaults match the published JS packages; overriding them is only
// useful for forks of the client library.
type Transform struct {
	Trigger         string   `toml:"trigger"`
	Factory         string   `toml:"factory"`
	BridgeNamespace string   `toml:"bridge_namespace"`
	BridgePackage   string   `toml:"bridge_package"`
	Helper          string   `toml:"helper"`
	HelperPackage   string   `toml:"helper_package"`
	Markers         []string `toml:"markers"`
	Include         []string `toml:"include"`
	Exclude         []string `toml:"exclude"`
}

type Resolver struct {
	Extensions       []string `toml:"extensions"`
	DefaultExtension string   `toml:"default_extension"`
}

type Bridge struct {
	TempPrefix      string    `toml:"temp_prefix"`
	RendererCommand []string  `toml:"renderer_command"`
	DefinePrefixes  []string  `toml:"define_prefixes"`
	DescriptorDoc   string    `toml:"descriptor_doc"`
	RateLimit       RateLimit `toml:"rate_limit"`
}

type RateLimit struct {
	Enabled           bool `toml:"enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
	Burst             int  `toml:"burst"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	Paths       []string      `toml:"paths"`
	ExcludeDirs []string      `toml:"exclude_dirs"`
}

type Observability struct {
	Address      string `toml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.ProjectRoot) == "" {
		cfg.Paths.ProjectRoot = "."
	}
	if strings.TrimSpace(cfg.Paths.HistoryDB) == "" {
		cfg.Paths.HistoryDB = "data/qwikbridge.db"
	}

	if strings.TrimSpace(cfg.Transform.Trigger) == "" {
		cfg.Transform.Trigger = "renderSSR"
	}
	if strings.TrimSpace(cfg.Transform.Factory) == "" {
		cfg.Transform.Factory = "component$"
	}
	if strings.TrimSpace(cfg.Transform.BridgeNamespace) == "" {
		cfg.Transform.BridgeNamespace = "ssrCommands"
	}
	if strings.TrimSpace(cfg.Transform.BridgePackage) == "" {
		cfg.Transform.BridgePackage = "vitest-browser-qwik/commands"
	}
	if strings.TrimSpace(cfg.Transform.Helper) == "" {
		cfg.Transform.Helper = "renderSSRHTML"
	}
	if strings.TrimSpace(cfg.Transform.HelperPackage) == "" {
		cfg.Transform.HelperPackage = "vitest-browser-qwik/client"
	}
	if len(cfg.Transform.Markers) == 0 {
		cfg.Transform.Markers = []string{".test.", ".spec."}
	}
	if len(cfg.Transform.Exclude) == 0 {
		cfg.Transform.Exclude = []string{"**/node_modules/**"}
	}

	if len(cfg.Resolver.Extensions) == 0 {
		cfg.Resolver.Extensions = []string{".tsx", ".ts", ".jsx", ".js"}
	}
	if strings.TrimSpace(cfg.Resolver.DefaultExtension) == "" {
		cfg.Resolver.DefaultExtension = ".tsx"
	}

	if strings.TrimSpace(cfg.Bridge.TempPrefix) == "" {
		cfg.Bridge.TempPrefix = "qwikbridge"
	}
	if cfg.Bridge.RateLimit.RequestsPerMinute <= 0 {
		cfg.Bridge.RateLimit.RequestsPerMinute = 600
	}
	if cfg.Bridge.RateLimit.Burst <= 0 {
		cfg.Bridge.RateLimit.Burst = 20
	}

	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{"."}
	}
	if len(cfg.Watch.ExcludeDirs) == 0 {
		cfg.Watch.ExcludeDirs = []string{"node_modules", "dist", ".git"}
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9109"
	}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}

	root := cfg.Paths.ProjectRoot
	if info, err := os.Stat(root); err != nil {
		return fmt.Errorf("project_root %q: %w", root, err)
	} else if !info.IsDir() {
		return fmt.Errorf("project_root %q is not a directory", root)
	}

	for _, ext := range cfg.Resolver.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("resolver extension %q must start with a dot", ext)
		}
	}
	if !strings.HasPrefix(cfg.Resolver.DefaultExtension, ".") {
		return fmt.Errorf("default_extension %q must start with a dot", cfg.Resolver.DefaultExtension)
	}

	for _, marker := range cfg.Transform.Markers {
		if strings.TrimSpace(marker) == "" {
			return fmt.Errorf("transform markers must be non-empty")
		}
	}

	if doc := strings.TrimSpace(cfg.Bridge.DescriptorDoc); doc != "" {
		if _, err := os.Stat(doc); err != nil {
			return fmt.Errorf("bridge descriptor_doc %q: %w", doc, err)
		}
	}
	return nil
}

// AbsoluteRoot resolves the project root against the working directory.
func (c *Config) AbsoluteRoot() (string, error) {
	return filepath.Abs(c.Paths.ProjectRoot)
}
