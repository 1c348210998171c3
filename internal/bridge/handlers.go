// # internal/bridge/handlers.go
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
	"github.com/kunai-consulting/qwikbridge/internal/shared/observability"
	"github.com/kunai-consulting/qwikbridge/internal/shared/util"
)

// Handlers implements the two render commands. It owns path resolution
// from wire-level module ids to files, module preparation for the local
// case, and temp-file lifecycle. Rendering itself is delegated.
type Handlers struct {
	root           string
	renderer       Renderer
	preparer       *ModulePreparer
	tempPrefix     string
	definePrefixes []string
}

func NewHandlers(root string, renderer Renderer, preparer *ModulePreparer, tempPrefix string, definePrefixes []string) *Handlers {
	if tempPrefix == "" {
		tempPrefix = "qwikbridge"
	}
	return &Handlers{
		root:           root,
		renderer:       renderer,
		preparer:       preparer,
		tempPrefix:     tempPrefix,
		definePrefixes: definePrefixes,
	}
}

// RegisterAll binds both commands into the registry.
func (h *Handlers) RegisterAll(r *Registry) error {
	if err := r.Register(CommandRenderExternal, h.RenderExternal); err != nil {
		return err
	}
	return r.Register(CommandRenderLocal, h.RenderLocal)
}

// RenderExternal renders a component from its own module. The path arrives
// project-root-relative because that is what the rewriter emits.
func (h *Handlers) RenderExternal(ctx context.Context, raw json.RawMessage) (any, error) {
	ctx, span := observability.Tracer.Start(ctx, "bridge.render_external")
	defer span.End()

	var input RenderExternalInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInvalidArgument, "decode render-external input")
	}
	if input.Path == "" || input.Component == "" {
		return nil, coreerrors.New(coreerrors.CodeInvalidArgument, "path and component are required")
	}
	span.SetAttributes(
		attribute.String("bridge.path", input.Path),
		attribute.String("bridge.component", input.Component),
	)

	modulePath := h.absolute(input.Path)
	if err := h.checkExport(ctx, modulePath, input.Path, input.Component); err != nil {
		return nil, err
	}

	return h.renderer.RenderModule(ctx, modulePath, input.Component, input.Props, BuildDefineTable(h.definePrefixes))
}

// RenderLocal renders a component defined inline in a test module. The
// module is stripped of its test scaffolding and written next to the
// original (relative imports keep resolving), loaded, and removed again.
func (h *Handlers) RenderLocal(ctx context.Context, raw json.RawMessage) (any, error) {
	ctx, span := observability.Tracer.Start(ctx, "bridge.render_local")
	defer span.End()

	var input RenderLocalInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInvalidArgument, "decode render-local input")
	}
	if input.ModuleID == "" || input.Component == "" {
		return nil, coreerrors.New(coreerrors.CodeInvalidArgument, "moduleId and component are required")
	}
	span.SetAttributes(
		attribute.String("bridge.module", input.ModuleID),
		attribute.String("bridge.component", input.Component),
	)

	modulePath := h.absolute(input.ModuleID)
	source, err := os.ReadFile(modulePath)
	if err != nil {
		wrapped := coreerrors.Wrap(err, coreerrors.CodeResolutionFailure, "read test module")
		return nil, coreerrors.AddContext(wrapped, coreerrors.CtxModule, input.ModuleID)
	}

	prepared, err := h.preparer.Prepare(modulePath, source, input.Exports)
	if err != nil {
		return nil, err
	}

	tempPath := filepath.Join(filepath.Dir(modulePath),
		util.TempModuleName(h.tempPrefix, filepath.Ext(modulePath)))
	if err := os.WriteFile(tempPath, []byte(prepared), 0o644); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "write derived module")
	}
	defer h.cleanup(tempPath)

	if err := h.checkExport(ctx, tempPath, input.ModuleID, input.Component); err != nil {
		return nil, err
	}

	return h.renderer.RenderModule(ctx, tempPath, input.Component, input.Props, BuildDefineTable(h.definePrefixes))
}

// checkExport verifies the component is among the module's named exports
// before any render is attempted, so the caller gets a precise error
// instead of a runtime failure inside the renderer.
func (h *Handlers) checkExport(ctx context.Context, modulePath, displayPath, component string) error {
	exports, err := h.renderer.Exports(ctx, modulePath)
	if err != nil {
		return err
	}
	for _, name := range exports {
		if name == component {
			return nil
		}
	}

	err = coreerrors.Newf(coreerrors.CodeMissingExport,
		"module %s does not export %q (available: %s)",
		displayPath, component, strings.Join(util.SortedCopy(exports), ", "))
	err = coreerrors.AddContext(err, coreerrors.CtxModule, displayPath)
	return coreerrors.AddContext(err, coreerrors.CtxExport, component)
}

// cleanup removes a derived module. Failure is logged and counted but
// never surfaces: the render result matters more than a leftover file.
func (h *Handlers) cleanup(tempPath string) {
	if err := os.Remove(tempPath); err != nil {
		observability.TempCleanupFailuresTotal.Inc()
		slog.Warn("derived module not removed", "path", tempPath,
			"error", coreerrors.Wrap(err, coreerrors.CodeTempCleanup, "remove derived module"))
	}
}

// absolute maps a wire module id onto the filesystem. Ids are "/"- or
// "./"-rooted at the project root.
func (h *Handlers) absolute(id string) string {
	cleaned := strings.TrimPrefix(id, "./")
	return filepath.Join(h.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/")))
}
