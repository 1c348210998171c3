// # internal/bridge/describe.go
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// DefaultDescriptors describes the built-in render commands for runners
// that never configure an OpenAPI document.
func DefaultDescriptors() []CommandDescriptor {
	return []CommandDescriptor{
		{
			Name:    CommandRenderExternal,
			Summary: "Render an exported component to HTML on the server",
			InputSchema: map[string]any{
				"type":     "object",
				"required": []string{"path", "component"},
				"properties": map[string]any{
					"path":      map[string]any{"type": "string"},
					"component": map[string]any{"type": "string"},
					"props":     map[string]any{"type": "object"},
				},
			},
		},
		{
			Name:    CommandRenderLocal,
			Summary: "Render an inline test-module component to HTML on the server",
			InputSchema: map[string]any{
				"type":     "object",
				"required": []string{"moduleId", "component"},
				"properties": map[string]any{
					"moduleId":  map[string]any{"type": "string"},
					"component": map[string]any{"type": "string"},
					"exports":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"props":     map[string]any{"type": "object"},
				},
			},
		},
	}
}

// LoadDescriptors reads and validates an OpenAPI document and converts its
// operations to command descriptors. Only local files are accepted; the
// descriptor document ships with the project, it is not fetched.
func LoadDescriptors(path string) ([]CommandDescriptor, error) {
	source := strings.TrimSpace(path)
	if source == "" {
		return nil, fmt.Errorf("descriptor document path is required")
	}
	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("descriptor document %q: %w", source, err)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromFile(source)
	if err != nil {
		return nil, fmt.Errorf("load descriptor document %q: %w", source, err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate descriptor document %q: %w", source, err)
	}
	return convertDescriptors(doc)
}

func convertDescriptors(doc *openapi3.T) ([]CommandDescriptor, error) {
	if doc.Paths == nil || len(doc.Paths.Map()) == 0 {
		return nil, fmt.Errorf("descriptor document has no operations")
	}

	descriptors := make([]CommandDescriptor, 0, len(doc.Paths.Map()))
	seen := map[string]bool{}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			name := strings.TrimSpace(op.OperationID)
			if name == "" {
				return nil, fmt.Errorf("operation %s %s is missing operationId", strings.ToUpper(method), path)
			}
			if !isValidCommandName(name) {
				return nil, fmt.Errorf("operationId %q is not a valid command name for %s %s", name, strings.ToUpper(method), path)
			}
			if seen[name] {
				return nil, fmt.Errorf("duplicate operationId %q", name)
			}
			seen[name] = true

			schema, err := requestSchema(op)
			if err != nil {
				return nil, fmt.Errorf("command %s (%s %s): %w", name, strings.ToUpper(method), path, err)
			}
			descriptors = append(descriptors, CommandDescriptor{
				Name:        name,
				Summary:     strings.TrimSpace(op.Summary),
				Description: strings.TrimSpace(op.Description),
				InputSchema: schema,
			})
		}
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors, nil
}

func requestSchema(op *openapi3.Operation) (map[string]any, error) {
	if op.RequestBody == nil {
		return map[string]any{"type": "object", "additionalProperties": true}, nil
	}
	if op.RequestBody.Value == nil {
		return nil, fmt.Errorf("requestBody is empty")
	}
	content := op.RequestBody.Value.Content.Get("application/json")
	if content == nil || content.Schema == nil {
		return nil, fmt.Errorf("requestBody must define an application/json schema")
	}
	return schemaRefToMap(content.Schema)
}

func schemaRefToMap(ref *openapi3.SchemaRef) (map[string]any, error) {
	if strings.TrimSpace(ref.Ref) != "" {
		return map[string]any{"$ref": ref.Ref}, nil
	}
	if ref.Value == nil {
		return nil, fmt.Errorf("schema value is nil")
	}

	data, err := json.Marshal(ref.Value)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if t, ok := schema["type"].(string); ok && t != "" && t != "object" {
		return nil, fmt.Errorf("unsupported schema type %q", t)
	}
	if _, ok := schema["type"]; !ok {
		schema["type"] = "object"
	}
	return schema, nil
}

// isValidCommandName accepts lowercase dash-separated names like the
// built-in render-external.
func isValidCommandName(name string) bool {
	run := 0
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			run++
		case ch == '-' && run > 0:
			run = 0
		default:
			return false
		}
	}
	return run > 0
}
