// # internal/bridge/contracts.go
package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire names of the two render commands. The transform emits JS method
// names (renderExternal / renderLocal); the transport maps those onto
// these registry keys.
const (
	CommandRenderExternal = "render-external"
	CommandRenderLocal    = "render-local"
)

// RenderExternalInput renders a component exported by its own module. Path
// is project-root-relative, as produced by the import resolver.
type RenderExternalInput struct {
	Path      string          `json:"path"`
	Component string          `json:"component"`
	Props     json.RawMessage `json:"props,omitempty"`
}

// RenderLocalInput renders a component defined inline in a test module.
// Exports is the full ordered list of inline components the module
// declares; all of them must be exported from the derived module because
// the rendered one may reference its siblings.
type RenderLocalInput struct {
	ModuleID  string          `json:"moduleId"`
	Component string          `json:"component"`
	Exports   []string        `json:"exports,omitempty"`
	Props     json.RawMessage `json:"props,omitempty"`
}

// UnmarshalJSON accepts the named-object form and the positional tuple
// form (path, component, props) that command registries marshal call
// arguments into.
func (in *RenderExternalInput) UnmarshalJSON(data []byte) error {
	if isJSONArray(data) {
		var args []json.RawMessage
		if err := json.Unmarshal(data, &args); err != nil {
			return err
		}
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("render-external takes (path, component, props), got %d arguments", len(args))
		}
		if err := json.Unmarshal(args[0], &in.Path); err != nil {
			return fmt.Errorf("path: %w", err)
		}
		if err := json.Unmarshal(args[1], &in.Component); err != nil {
			return fmt.Errorf("component: %w", err)
		}
		if len(args) == 3 {
			in.Props = args[2]
		}
		return nil
	}

	type object RenderExternalInput
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*in = RenderExternalInput(obj)
	return nil
}

// UnmarshalJSON accepts the named-object form and the positional tuple
// form (moduleId, component, exports, props).
func (in *RenderLocalInput) UnmarshalJSON(data []byte) error {
	if isJSONArray(data) {
		var args []json.RawMessage
		if err := json.Unmarshal(data, &args); err != nil {
			return err
		}
		if len(args) < 3 || len(args) > 4 {
			return fmt.Errorf("render-local takes (moduleId, component, exports, props), got %d arguments", len(args))
		}
		if err := json.Unmarshal(args[0], &in.ModuleID); err != nil {
			return fmt.Errorf("moduleId: %w", err)
		}
		if err := json.Unmarshal(args[1], &in.Component); err != nil {
			return fmt.Errorf("component: %w", err)
		}
		if err := json.Unmarshal(args[2], &in.Exports); err != nil {
			return fmt.Errorf("exports: %w", err)
		}
		if len(args) == 4 {
			in.Props = args[3]
		}
		return nil
	}

	type object RenderLocalInput
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*in = RenderLocalInput(obj)
	return nil
}

func isJSONArray(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// RenderResult carries the server-rendered markup back across the bridge.
// The html field name is load-bearing: generated call sites read
// ssrResult.html.
type RenderResult struct {
	HTML string `json:"html"`
}

// CommandDescriptor is the self-description of one bridge command, served
// by the transport's listing and optionally sourced from an OpenAPI
// document.
type CommandDescriptor struct {
	Name        string         `json:"name"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// CommandError is the wire form of a failed command.
type CommandError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e CommandError) Error() string {
	return e.Message
}

const (
	ErrorInvalidArgument = "invalid_argument"
	ErrorNotFound        = "not_found"
	ErrorMissingExport   = "missing_export"
	ErrorRateLimited     = "rate_limited"
	ErrorInternal        = "internal"
)
