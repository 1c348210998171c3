// # internal/transform/hook.go
package transform

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
	"github.com/kunai-consulting/qwikbridge/internal/shared/observability"
)

// Hook is the file-transform entry point the surrounding build/test tool
// calls with (source text, module id) pairs. Both filters run before any
// parse; failures degrade to "leave the file as-is".
type Hook struct {
	transformer *Transformer
	include     []glob.Glob
	exclude     []glob.Glob
}

func NewHook(t *Transformer) (*Hook, error) {
	h := &Hook{transformer: t}

	for _, pattern := range t.opts.IncludeGlobs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("include glob %q: %w", pattern, err)
		}
		h.include = append(h.include, g)
	}
	for _, pattern := range t.opts.ExcludeGlobs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("exclude glob %q: %w", pattern, err)
		}
		h.exclude = append(h.exclude, g)
	}
	return h, nil
}

// IsTestFile applies the naming convention: a supported extension, one of
// the test markers in the file name, and the configured include/exclude
// globs. Files outside the convention pass through untouched regardless
// of content.
func (h *Hook) IsTestFile(moduleID string) bool {
	base := filepath.Base(moduleID)
	ext := strings.ToLower(filepath.Ext(base))
	switch ext {
	case ".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs", ".mts", ".cts":
	default:
		return false
	}

	marked := false
	for _, marker := range h.transformer.opts.TestFileMarkers {
		if strings.Contains(base, marker) {
			marked = true
			break
		}
	}
	if !marked {
		return false
	}

	normalized := strings.ReplaceAll(moduleID, "\\", "/")
	for _, g := range h.exclude {
		if g.Match(normalized) {
			return false
		}
	}
	if len(h.include) == 0 {
		return true
	}
	for _, g := range h.include {
		if g.Match(normalized) {
			return true
		}
	}
	return false
}

// Transform returns nil for "no change" or the rewritten code plus map.
func (h *Hook) Transform(source []byte, moduleID string) (*Result, error) {
	start := time.Now()
	outcome := "skipped"
	defer func() {
		observability.TransformDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	if !h.IsTestFile(moduleID) {
		return nil, nil
	}
	if !ContainsTrigger(source, h.transformer.opts.TriggerName) {
		observability.DetectionsTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}
	observability.DetectionsTotal.WithLabelValues("hit").Inc()

	result, err := h.transformer.Rewrite(source, moduleID)
	if err != nil {
		if coreerrors.IsCode(err, coreerrors.CodeParseFailure) {
			observability.ParseFailuresTotal.Inc()
			// The substring check says a rewrite may have been warranted,
			// but without a clean tree we cannot emit one safely.
			slog.Warn("parse failure, leaving module unchanged",
				"module", moduleID, "error", err,
				"wouldRewrite", containsTriggerCall(source, h.transformer.opts.TriggerName))
			outcome = "parse_failure"
			return nil, nil
		}
		outcome = "error"
		return nil, err
	}

	if result == nil {
		outcome = "unchanged"
		return nil, nil
	}
	outcome = "rewritten"
	return result, nil
}
