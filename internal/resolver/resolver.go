// # internal/resolver/resolver.go
package resolver

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kunai-consulting/qwikbridge/internal/shared/observability"
	"github.com/kunai-consulting/qwikbridge/internal/shared/util"
)

// Resolver turns an import specifier plus the importing module's location
// into a project-root-relative module path with a concrete extension,
// mirroring the host bundler's own resolution order. Resolution failures
// are never fatal: they log a warning and fall through to the heuristic.
type Resolver struct {
	root       string
	extensions []string
	defaultExt string
}

// New builds a resolver over the given project root. extensions is the
// candidate probe order (defaults to .tsx .ts .jsx .js); defaultExt is
// appended by the heuristic fallback.
func New(root string, extensions []string, defaultExt string) *Resolver {
	if len(extensions) == 0 {
		extensions = []string{".tsx", ".ts", ".jsx", ".js"}
	}
	if defaultExt == "" {
		defaultExt = ".tsx"
	}
	return &Resolver{
		root:       filepath.Clean(root),
		extensions: extensions,
		defaultExt: defaultExt,
	}
}

// Resolve returns the "./"-prefixed root-relative module path for a
// specifier imported from fromModuleID. Resolving an already-resolved,
// already-extensioned path returns it unchanged.
func (r *Resolver) Resolve(specifier, fromModuleID string) string {
	if resolved, ok := r.resolved(specifier); ok {
		return resolved
	}
	if resolved, ok := r.probe(specifier, fromModuleID); ok {
		return resolved
	}

	slog.Warn("module resolution failed, using heuristic path",
		"specifier", specifier, "from", fromModuleID)
	observability.ResolutionFallbacksTotal.Inc()
	return r.heuristic(specifier, fromModuleID)
}

// resolved short-circuits on a path that is already the resolver's own
// output shape: root-relative, extensioned, existing.
func (r *Resolver) resolved(spec string) (string, bool) {
	if !strings.HasPrefix(spec, "./") || !r.hasKnownExt(spec) {
		return "", false
	}
	if r.exists(filepath.Join(r.root, spec)) {
		return spec, true
	}
	return "", false
}

// probe is the bundler-mirroring strategy: exact path, path+ext, then
// path/index+ext, relative to the importing file's directory for relative
// specifiers, or the project root and node_modules for bare ones.
func (r *Resolver) probe(spec, from string) (string, bool) {
	for _, base := range r.candidateBases(spec, from) {
		if r.hasKnownExt(base) && r.exists(base) {
			return r.rootRelative(base), true
		}
		for _, ext := range r.extensions {
			if r.exists(base + ext) {
				return r.rootRelative(base + ext), true
			}
		}
		for _, ext := range r.extensions {
			indexed := filepath.Join(base, "index"+ext)
			if r.exists(indexed) {
				return r.rootRelative(indexed), true
			}
		}
	}
	return "", false
}

func (r *Resolver) candidateBases(spec, from string) []string {
	if util.IsRelativeSpecifier(spec) {
		return []string{filepath.Join(r.fromDir(from), spec)}
	}
	return []string{
		filepath.Join(r.root, spec),
		filepath.Join(r.root, "node_modules", spec),
	}
}

// fromDir maps a module id to the directory resolution starts from. Build
// tools hand out either filesystem paths or root-absolute ids like
// "/test/transform.test.tsx".
func (r *Resolver) fromDir(from string) string {
	dir := filepath.Dir(from)
	if filepath.IsAbs(from) && !strings.HasPrefix(dir, r.root) {
		return filepath.Join(r.root, dir)
	}
	if !filepath.IsAbs(from) {
		return filepath.Join(r.root, dir)
	}
	return dir
}

func (r *Resolver) rootRelative(p string) string {
	return util.RootRelative(r.root, p)
}

func (r *Resolver) hasKnownExt(p string) bool {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(p, "\\", "/")))
	for _, known := range r.extensions {
		if ext == known {
			return true
		}
	}
	return false
}

func (r *Resolver) exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
