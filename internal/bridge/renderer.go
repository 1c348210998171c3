// # internal/bridge/renderer.go
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
)

// Renderer is the JS-runtime boundary: it loads a module on the server
// side and renders one of its exports to HTML. Implementations own module
// evaluation; the handlers own path resolution, module preparation and
// cleanup.
type Renderer interface {
	// Exports lists the named exports the module provides after loading.
	Exports(ctx context.Context, modulePath string) ([]string, error)
	// RenderModule renders one export with the given props. The define
	// table is injected as import.meta.env-style compile-time constants.
	RenderModule(ctx context.Context, modulePath, export string, props json.RawMessage, define map[string]string) (*RenderResult, error)
}

// rendererRequest / rendererResponse are the line protocol spoken with the
// renderer process: one JSON request on stdin, one JSON response on stdout.
type rendererRequest struct {
	Op     string            `json:"op"`
	Path   string            `json:"path"`
	Export string            `json:"export,omitempty"`
	Props  json.RawMessage   `json:"props,omitempty"`
	Define map[string]string `json:"define,omitempty"`
}

type rendererResponse struct {
	HTML    string        `json:"html,omitempty"`
	Exports []string      `json:"exports,omitempty"`
	Error   *CommandError `json:"error,omitempty"`
}

// ProcessRenderer shells out to a configured renderer command (typically a
// small node script wrapping the framework's SSR entry point) for every
// request. Stateless by construction: each call gets a fresh process, so a
// crashed render cannot poison the next one.
type ProcessRenderer struct {
	command []string
	workdir string
}

func NewProcessRenderer(command []string, workdir string) (*ProcessRenderer, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("renderer command is required")
	}
	return &ProcessRenderer{command: command, workdir: workdir}, nil
}

func (r *ProcessRenderer) Exports(ctx context.Context, modulePath string) ([]string, error) {
	resp, err := r.invoke(ctx, rendererRequest{Op: "exports", Path: modulePath})
	if err != nil {
		return nil, err
	}
	return resp.Exports, nil
}

func (r *ProcessRenderer) RenderModule(ctx context.Context, modulePath, export string, props json.RawMessage, define map[string]string) (*RenderResult, error) {
	resp, err := r.invoke(ctx, rendererRequest{
		Op:     "render",
		Path:   modulePath,
		Export: export,
		Props:  props,
		Define: define,
	})
	if err != nil {
		return nil, err
	}
	return &RenderResult{HTML: resp.HTML}, nil
}

func (r *ProcessRenderer) invoke(ctx context.Context, req rendererRequest) (*rendererResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "encode renderer request")
	}

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Dir = r.workdir
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		wrapped := coreerrors.Wrap(err, coreerrors.CodeInternal, "renderer process")
		return nil, coreerrors.AddContext(wrapped, coreerrors.CtxModule, req.Path)
	}

	var resp rendererResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "decode renderer response")
	}
	if resp.Error != nil {
		return nil, *resp.Error
	}
	return &resp, nil
}

// BuildDefineTable exposes the current environment as import.meta.env.<NAME>
// constants, JSON-quoted so the renderer can splice them into module source
// directly. Every variable is carried; prefixes, when given, restrict the
// table to matching names.
func BuildDefineTable(prefixes []string) map[string]string {
	define := make(map[string]string)
	for _, kv := range os.Environ() {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			continue
		}
		name, value := kv[:eq], kv[eq+1:]
		if matchesPrefix(name, prefixes) {
			quoted, _ := json.Marshal(value)
			define["import.meta.env."+name] = string(quoted)
		}
	}
	return define
}

func matchesPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
