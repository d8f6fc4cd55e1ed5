// Package script backs the resolver's export-list fallback with a Risor
// script. When a module declares no static export list, the engine asks the
// provider for the module's public names; hosts supply a script that
// receives the dotted module path as the global "module" and evaluates to a
// list of name strings. This keeps the dynamic-lookup capability injectable
// and testable without executing any target-language code.
package script

import (
	"context"
	"fmt"
	"os"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
)

// Provider evaluates a Risor script to enumerate a module's public names.
type Provider struct {
	source string
	label  string
}

// NewProvider creates a Provider from Risor source code.
func NewProvider(source string) *Provider {
	return &Provider{source: source, label: "<inline>"}
}

// LoadProvider reads a Risor script from disk.
func LoadProvider(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: loading %s: %w", path, err)
	}
	return &Provider{source: string(data), label: path}, nil
}

// PublicNames runs the script for one module and returns the names it
// yields. Script failures and non-list results degrade to nil: an export
// list the provider cannot compute is indistinguishable from an absent one.
func (p *Provider) PublicNames(module string) []string {
	result, err := risor.Eval(context.Background(), p.source,
		risor.WithGlobal("module", module),
	)
	if err != nil {
		return nil
	}
	return stringList(result)
}

// stringList converts a Risor list of strings to a Go slice, skipping
// non-string elements.
func stringList(obj object.Object) []string {
	list, ok := obj.(*object.List)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list.Value() {
		if s, ok := item.(*object.String); ok {
			out = append(out, s.Value())
		}
	}
	return out
}
