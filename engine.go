package lattice

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mkelly/lattice/internal/docstring"
	"github.com/mkelly/lattice/internal/pyast"
	"github.com/mkelly/lattice/internal/pysrc"
	"github.com/mkelly/lattice/internal/resolve"
)

// Engine orchestrates the lattice pipeline: source loading, raw-node
// indexing, name resolution, object-graph construction, and doc merging.
// All derived state is memoized and dropped when a source file changes.
type Engine struct {
	cache    *pysrc.Cache
	resolver *resolve.Resolver
	exports  resolve.ExportListProvider

	// buildMu serializes graph construction; docMu serializes doc
	// attachment. Parsing stays concurrent underneath both.
	buildMu sync.Mutex
	docMu   sync.Mutex

	mu       sync.Mutex
	indexes  map[string]*pyast.ModuleIndex
	objects  map[string]*Object
	building map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithExportProvider supplies the fallback used to enumerate a module's
// public names when it declares no static export list. Without one,
// wildcard imports resolve only through declared lists.
func WithExportProvider(p resolve.ExportListProvider) Option {
	return func(e *Engine) {
		e.exports = p
	}
}

// New creates an Engine over the given source loader.
func New(loader pysrc.Loader, opts ...Option) *Engine {
	e := &Engine{
		cache:    pysrc.NewCache(loader),
		indexes:  make(map[string]*pyast.ModuleIndex),
		objects:  make(map[string]*Object),
		building: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache.OnReplace = e.invalidate
	e.resolver = resolve.New(e, e.exports)
	return e
}

// Open creates an Engine over a directory loader with the given search
// roots.
func Open(roots ...string) *Engine {
	return New(pysrc.NewDirLoader(roots...))
}

// Index implements the resolver's graph view: the raw node index for a
// loadable module. The source cache revalidates the backing file first, so
// a changed file is re-indexed here transparently.
func (e *Engine) Index(module string) (*pyast.ModuleIndex, bool) {
	src, err := e.cache.Get(module)
	if err != nil {
		return nil, false
	}
	e.mu.Lock()
	if idx, ok := e.indexes[module]; ok {
		e.mu.Unlock()
		return idx, true
	}
	e.mu.Unlock()

	idx := pyast.Index(src.Root(), src.Text, module, src.IsPackage)

	e.mu.Lock()
	e.indexes[module] = idx
	e.mu.Unlock()
	return idx, true
}

// ModuleExists reports whether a loadable module exists at the dotted
// path, honoring the source cache's negative entries.
func (e *Engine) ModuleExists(module string) bool {
	return e.cache.Exists(module)
}

// Resolve returns the fully-qualified name that name denotes when written
// in module ctx, or "" when it cannot be resolved.
func (e *Engine) Resolve(name, ctx string) string {
	return e.resolver.Resolve(name, ctx)
}

// Collect builds the object at fullname and attaches parsed, merged,
// cross-linked documentation to it and every owned member.
func (e *Engine) Collect(fullname string) (*Object, error) {
	obj := e.Build(fullname)
	if obj == nil {
		return nil, fmt.Errorf("lattice: no documentable object at %q", fullname)
	}
	e.document(obj)
	return obj, nil
}

// Drop forgets everything cached for a module, including a negative
// source-cache entry, so the next lookup goes back to disk.
func (e *Engine) Drop(module string) {
	e.cache.Drop(module)
	e.invalidate(module)
}

// invalidate discards all state derived from a module: its raw index, its
// objects (and their members), and resolutions computed in its context.
// Wired as the source cache's replacement hook.
func (e *Engine) invalidate(module string) {
	e.mu.Lock()
	delete(e.indexes, module)
	for full := range e.objects {
		if full == module || strings.HasPrefix(full, module+".") {
			delete(e.objects, full)
		}
	}
	e.mu.Unlock()
	e.resolver.Invalidate(module)
}

// document attaches merged docs to a subtree, members before owners so a
// class merge can see its constructor's parsed doc. Inherited cross-links
// are documented by their defining class.
func (e *Engine) document(root *Object) {
	e.docMu.Lock()
	defer e.docMu.Unlock()
	e.documentTree(root)
}

func (e *Engine) documentTree(obj *Object) {
	for _, c := range obj.Children() {
		if c.Parent() == obj {
			e.documentTree(c)
		}
	}
	if obj.Doc == nil {
		obj.Doc = mergeDoc(obj)
		e.linkifyDoc(obj)
	}
}

// linkifyDoc rewrites bracketed references in the object's merged doc,
// resolving names in the object's module context.
func (e *Engine) linkifyDoc(obj *Object) {
	res := func(name string) string {
		return e.linkTarget(name, obj.Module)
	}
	doc := obj.Doc
	doc.Text = Linkify(doc.Text, res)
	for i := range doc.Sections {
		s := &doc.Sections[i]
		s.Text = Linkify(s.Text, res)
		s.Type = Linkify(s.Type, res)
		for j := range s.Items {
			s.Items[j].Text = Linkify(s.Items[j].Text, res)
			s.Items[j].Type = Linkify(s.Items[j].Type, res)
		}
	}
}

// linkTarget resolves a reference name written in module ctx to the
// fullname of a known object, or "". Bare names are qualified with the
// context module; dotted names try the context first, then stand alone.
func (e *Engine) linkTarget(name, ctx string) string {
	if !strings.Contains(name, ".") {
		return e.knownTarget(ctx+"."+name, ctx)
	}
	if full := e.knownTarget(ctx+"."+name, ctx); full != "" {
		return full
	}
	return e.knownTarget(name, ctx)
}

// knownTarget resolves name and keeps the result only when a documentable
// object actually lives there. External module paths resolve to bare
// strings with nothing behind them; those stay unlinked.
func (e *Engine) knownTarget(name, ctx string) string {
	full := e.resolver.Resolve(name, ctx)
	if full == "" {
		return ""
	}
	if e.Build(full) == nil {
		return ""
	}
	return full
}

// ParseDoc parses one structured comment block without any signature
// merging, for hosts that render free-standing doc text.
func ParseDoc(text string) *docstring.Doc {
	return docstring.Parse(text)
}
