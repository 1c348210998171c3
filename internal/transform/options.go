// # internal/transform/options.go
package transform

import "fmt"

// Options fixes the names the transform looks for and the names it emits.
// Defaults match the published JS packages; the toml config can override
// every field.
type Options struct {
	// TriggerName is the canonical render-trigger function. Aliased imports
	// and local copies of it are tracked per module.
	TriggerName string
	// FactoryName is the component factory; variables initialized by a call
	// to it are inline-defined components.
	FactoryName string

	// BridgeNamespace / BridgePackage describe the generated import of the
	// cross-context command object.
	BridgeNamespace string
	BridgePackage   string
	// HelperName / HelperPackage describe the generated import of the
	// DOM-injection helper that consumes the rendered HTML.
	HelperName    string
	HelperPackage string

	// ExternalCommand / LocalCommand are the method names emitted on the
	// bridge namespace.
	ExternalCommand string
	LocalCommand    string

	// TestFileMarkers gate the transform hook; a module id must contain one
	// of these to be considered at all.
	TestFileMarkers []string
	IncludeGlobs    []string
	ExcludeGlobs    []string
}

func DefaultOptions() Options {
	return Options{
		TriggerName:     "renderSSR",
		FactoryName:     "component$",
		BridgeNamespace: "ssrCommands",
		BridgePackage:   "vitest-browser-qwik/commands",
		HelperName:      "renderSSRHTML",
		HelperPackage:   "vitest-browser-qwik/client",
		ExternalCommand: "renderExternal",
		LocalCommand:    "renderLocal",
		TestFileMarkers: []string{".test.", ".spec."},
	}
}

// ImportHeader is the fixed two-line header inserted into rewritten modules.
func (o Options) ImportHeader() [2]string {
	return [2]string{
		fmt.Sprintf("import { %s } from %q;", o.BridgeNamespace, o.BridgePackage),
		fmt.Sprintf("import { %s } from %q;", o.HelperName, o.HelperPackage),
	}
}
