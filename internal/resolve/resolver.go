// Package resolve turns names appearing in a module into fully-qualified
// canonical names, walking local definitions, import tables, re-export
// chains, and parent packages. Resolution is memoized per (name, context)
// and guarded against alias cycles; an unresolvable name yields "" rather
// than an error.
package resolve

import (
	"strings"
	"sync"

	"github.com/mkelly/lattice/internal/pyast"
)

// Graph is the resolver's view of the module universe: raw indexes plus
// module existence, both served from the engine's caches.
type Graph interface {
	// Index returns the raw node index for a loadable module, or false.
	Index(module string) (*pyast.ModuleIndex, bool)
	// ModuleExists reports whether a loadable module exists at the path.
	ModuleExists(module string) bool
}

// ExportListProvider enumerates a module's public names when no static
// export list is visible. It stands in for runtime reflection and is
// injected so the resolver stays testable with a fake.
type ExportListProvider interface {
	PublicNames(module string) []string
}

// Resolver resolves dotted names to fully-qualified targets.
type Resolver struct {
	graph   Graph
	exports ExportListProvider

	mu   sync.Mutex
	memo map[memoKey]string
}

type memoKey struct {
	name string
	ctx  string
}

// maxDepth bounds recursive resolution through alias chains. Chains this
// deep do not occur in real code; the bound converts a pathological input
// into an unresolved name.
const maxDepth = 64

// New creates a Resolver over the given graph. The export provider may be
// nil, in which case wildcard imports resolve only through declared export
// lists.
func New(graph Graph, exports ExportListProvider) *Resolver {
	return &Resolver{
		graph:   graph,
		exports: exports,
		memo:    make(map[memoKey]string),
	}
}

// Resolve returns the fully-qualified name that name denotes when written
// in ctx, or "" when it cannot be resolved. "" is an expected outcome for
// external and dynamically computed names.
func (r *Resolver) Resolve(name, ctx string) string {
	key := memoKey{name: name, ctx: ctx}
	r.mu.Lock()
	if full, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return full
	}
	r.mu.Unlock()

	full := r.resolve(name, map[memoKey]bool{}, 0)

	r.mu.Lock()
	r.memo[key] = full
	r.mu.Unlock()
	return full
}

// Invalidate drops memoized results computed in the given context module.
// Called when the module's source-cache entry is replaced.
func (r *Resolver) Invalidate(module string) {
	r.mu.Lock()
	for k := range r.memo {
		if k.ctx == module || strings.HasPrefix(k.name, module+".") || k.name == module {
			delete(r.memo, k)
		}
	}
	r.mu.Unlock()
}

func (r *Resolver) resolve(name string, seen map[memoKey]bool, depth int) string {
	if depth > maxDepth {
		return ""
	}

	// A loadable module path, or a bare name, denotes itself.
	dot := strings.LastIndex(name, ".")
	if dot < 0 || r.graph.ModuleExists(name) {
		return name
	}

	mod, leaf := name[:dot], name[dot+1:]
	guard := memoKey{name: name, ctx: mod}
	if seen[guard] {
		return ""
	}
	seen[guard] = true

	if idx, ok := r.graph.Index(mod); ok {
		// A definition or assignment directly in the owning module wins.
		if _, ok := idx.Def(leaf); ok {
			return name
		}
		// Otherwise follow the module's import table, including implicit
		// entries materialized from wildcard imports.
		if target, ok := r.importTarget(idx, leaf); ok {
			// A target resolving back to itself is terminal, not an error.
			if target == name {
				return name
			}
			return r.resolve(target, seen, depth+1)
		}
	}

	// Nested-qualified lookup (Outer.Inner.member): resolve the
	// leaf-stripped prefix, then retry against the resolved owner.
	parent := r.resolve(mod, seen, depth+1)
	if parent == "" {
		return ""
	}
	if parent != mod {
		return r.resolve(parent+"."+leaf, seen, depth+1)
	}
	// The prefix is its own canonical name. When it names a definition
	// inside a module (a class, say), the member stays qualified under
	// it; whether the member exists is the object graph's question. A
	// bare or loadable-module prefix already had its member lookup
	// above, so its unknown members stay unresolved.
	if !strings.Contains(mod, ".") || r.graph.ModuleExists(mod) {
		return ""
	}
	return name
}

// importTarget returns the dotted target bound to alias in the module's
// import table. Wildcard imports contribute an implicit entry for every
// name in the target module's public-export list.
func (r *Resolver) importTarget(idx *pyast.ModuleIndex, alias string) (string, bool) {
	if imp, ok := idx.Import(alias); ok {
		return imp.Target, true
	}
	for _, wtarget := range idx.Wildcards() {
		for _, exported := range r.publicNames(wtarget) {
			if exported == alias {
				return wtarget + "." + alias, true
			}
		}
	}
	return "", false
}

// publicNames returns a module's export list: the declared list when
// statically visible, otherwise the injected provider's answer.
func (r *Resolver) publicNames(module string) []string {
	if idx, ok := r.graph.Index(module); ok && idx.Exports != nil {
		return idx.Exports
	}
	if r.exports != nil {
		return r.exports.PublicNames(module)
	}
	return nil
}
