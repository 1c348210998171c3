// # internal/resolver/heuristics.go
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/kunai-consulting/qwikbridge/internal/shared/util"
)

// fallbackExtensions are the two extensions the heuristic treats as
// already concrete; anything else gets the default appended.
var fallbackExtensions = []string{".tsx", ".ts"}

// heuristic constructs a best-effort path when real resolution failed.
// For bare specifiers the specifier itself is kept; for relative ones it
// is joined against the importing file's directory and re-expressed
// relative to the project root. Idempotent by construction: an input that
// already carries a recognized extension is never re-extensioned.
func (r *Resolver) heuristic(spec, from string) string {
	if !util.IsRelativeSpecifier(spec) {
		return "./" + util.NormalizeModulePath(r.withDefaultExt(spec))
	}

	joined := filepath.Join(r.fromDir(from), spec)
	return r.rootRelative(r.withDefaultExt(joined))
}

func (r *Resolver) withDefaultExt(p string) string {
	lower := strings.ToLower(p)
	for _, ext := range fallbackExtensions {
		if strings.HasSuffix(lower, ext) {
			return p
		}
	}
	return p + r.defaultExt
}
