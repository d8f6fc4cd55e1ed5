package lattice

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/mkelly/lattice/internal/pyast"
	"github.com/mkelly/lattice/internal/pysrc"
)

// Build returns the graph object at fullname, constructing its enclosing
// module on first request. Returns nil when nothing documentable lives at
// the path. Results are memoized until the backing source changes.
func (e *Engine) Build(fullname string) *Object {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	return e.build(fullname)
}

func (e *Engine) build(fullname string) *Object {
	if _, err := e.cache.Get(fullname); err == nil {
		// A loadable module. Get revalidated the source and fired
		// invalidation if it changed, so the memo is trustworthy now.
		e.mu.Lock()
		obj, ok := e.objects[fullname]
		e.mu.Unlock()
		if ok {
			return obj
		}
		return e.buildModule(fullname)
	}

	// Not a module: build the owner and look the member up there. Members
	// register under their own fullname during module construction, so the
	// map lookup catches owned ones; Child also sees inherited links.
	dot := strings.LastIndex(fullname, ".")
	if dot < 0 {
		return nil
	}
	owner := e.build(fullname[:dot])
	if owner == nil {
		return nil
	}
	e.mu.Lock()
	obj := e.objects[fullname]
	e.mu.Unlock()
	if obj != nil {
		return obj
	}
	return owner.Child(fullname[dot+1:])
}

// buildModule constructs a module object and registers it with all owned
// descendants. The building guard breaks cyclic inheritance across
// modules: a base that leads back into an in-progress module is skipped.
func (e *Engine) buildModule(path string) *Object {
	e.mu.Lock()
	if obj, ok := e.objects[path]; ok {
		e.mu.Unlock()
		return obj
	}
	if e.building[path] {
		e.mu.Unlock()
		return nil
	}
	e.building[path] = true
	e.mu.Unlock()

	mod := e.constructModule(path)

	e.mu.Lock()
	delete(e.building, path)
	if mod != nil {
		e.registerLocked(mod)
	}
	e.mu.Unlock()
	return mod
}

func (e *Engine) registerLocked(obj *Object) {
	if _, ok := e.objects[obj.FullName]; !ok {
		e.objects[obj.FullName] = obj
	}
	for _, name := range obj.order {
		c := obj.children[name]
		if c.parent == obj {
			e.registerLocked(c)
		}
	}
}

func (e *Engine) constructModule(path string) *Object {
	src, err := e.cache.Get(path)
	if err != nil {
		return nil
	}
	idx, ok := e.Index(path)
	if !ok {
		return nil
	}
	b := &builder{
		engine: e,
		module: path,
		src:    src.Text,
		local:  make(map[string]*Object),
	}
	return b.buildModule(idx, src)
}

// builder constructs one module's subtree. It keeps a local registry so
// base classes defined earlier in the same module are visible before the
// module registers globally.
type builder struct {
	engine *Engine
	module string
	src    []byte
	local  map[string]*Object
}

func (b *builder) buildModule(idx *pyast.ModuleIndex, src *pysrc.Source) *Object {
	name := b.module
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	mod := &Object{
		Kind:      KindModule,
		Name:      name,
		FullName:  b.module,
		Module:    b.module,
		Docstring: pyast.BlockDocstring(src.Root(), b.src),
	}
	b.local[b.module] = mod

	for _, n := range idx.Nodes {
		switch n.Kind {
		case pyast.KindDef:
			b.definition(mod, n.Node)
		case pyast.KindAssign:
			if n.Name == "__all__" {
				continue
			}
			b.attribute(mod, n.Name, n.Node)
		}
	}
	return mod
}

// newChild allocates a member with its qualified names filled in and
// attaches it to the owner.
func (b *builder) newChild(owner *Object, kind ObjectKind, name string) *Object {
	qual := name
	if owner.Qual != "" {
		qual = owner.Qual + "." + name
	}
	obj := &Object{
		Kind:     kind,
		Name:     name,
		Qual:     qual,
		FullName: b.module + "." + qual,
		Module:   b.module,
	}
	owner.adopt(obj)
	b.local[obj.FullName] = obj
	return obj
}

// definition builds a class, function, or property member from a (possibly
// decorated) definition statement.
func (b *builder) definition(owner *Object, node *sitter.Node) *Object {
	def := pyast.Definition(node)
	name := pyast.DefName(def, b.src)
	decorators := pyast.Decorators(node, b.src)

	kind := KindFunction
	switch {
	case def.Type() == "class_definition":
		kind = KindClass
	case owner.Kind == KindClass && isProperty(decorators):
		kind = KindProperty
	}

	obj := b.newChild(owner, kind, name)
	obj.Decorators = decorators
	obj.Docstring = pyast.BlockDocstring(pyast.DefBody(def), b.src)

	if kind == KindClass {
		b.class(obj, def)
	} else {
		b.function(obj, def)
	}
	return obj
}

func (b *builder) function(obj *Object, def *sitter.Node) {
	obj.Params = pyast.Params(def, b.src)
	obj.Returns = pyast.ReturnType(def, b.src)
	owner := obj.Parent()
	if owner != nil && owner.Kind == KindClass && !hasDecorator(obj.Decorators, "staticmethod") {
		obj.Params = stripReceiver(obj.Params)
	}
}

func (b *builder) class(cls *Object, def *sitter.Node) {
	body := pyast.DefBody(def)
	var ctorDef *sitter.Node
	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			stmt := body.Child(i)
			switch stmt.Type() {
			case "function_definition", "class_definition", "decorated_definition":
				inner := pyast.Definition(stmt)
				child := b.definition(cls, stmt)
				if child.Name == "__init__" && inner.Type() == "function_definition" {
					ctorDef = inner
				}
			case "expression_statement":
				if stmt.ChildCount() == 0 {
					continue
				}
				expr := stmt.Child(0)
				if expr.Type() != "assignment" {
					continue
				}
				left := expr.ChildByFieldName("left")
				if left == nil || left.Type() != "identifier" {
					continue
				}
				b.attribute(cls, pyast.Text(left, b.src), expr)
			}
		}
	}

	if ctorDef != nil {
		b.instanceAttributes(cls, ctorDef)
	}

	b.flattenBases(cls, def)

	switch {
	case isDataclass(cls.Decorators):
		for _, m := range cls.Children() {
			if m.Kind == KindAttribute {
				cls.Params = append(cls.Params, pyast.Param{
					Name:       m.Name,
					Annotation: m.TypeAnn,
					Default:    m.Default,
				})
			}
		}
	default:
		if ctor := cls.Child("__init__"); ctor != nil && ctor.Kind == KindFunction {
			cls.Params = ctor.Params
		}
	}
}

// attribute builds an attribute member from an assignment. The trailing
// same-line comment, when present, becomes its description.
func (b *builder) attribute(owner *Object, name string, assign *sitter.Node) *Object {
	obj := b.newChild(owner, KindAttribute, name)
	obj.TypeAnn, obj.Default = pyast.AssignParts(assign, b.src)
	stmt := assign.Parent()
	if stmt == nil {
		stmt = assign
	}
	obj.Docstring = pyast.TrailingComment(stmt, b.src)
	return obj
}

// instanceAttributes lifts "self.x = ..." assignments out of a constructor
// body. Only names not already declared on the class are added; the
// annotation and trailing comment carry over, the assigned expression does
// not (it is a runtime value, not a default).
func (b *builder) instanceAttributes(cls *Object, ctorDef *sitter.Node) {
	body := pyast.DefBody(ctorDef)
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		stmt := body.Child(i)
		if stmt.Type() != "expression_statement" || stmt.ChildCount() == 0 {
			continue
		}
		expr := stmt.Child(0)
		if expr.Type() != "assignment" {
			continue
		}
		left := expr.ChildByFieldName("left")
		if left == nil || left.Type() != "attribute" {
			continue
		}
		if pyast.Text(left.ChildByFieldName("object"), b.src) != "self" {
			continue
		}
		name := pyast.Text(left.ChildByFieldName("attribute"), b.src)
		if name == "" || cls.Child(name) != nil {
			continue
		}
		attr := b.newChild(cls, KindAttribute, name)
		attr.TypeAnn = pyast.Text(expr.ChildByFieldName("type"), b.src)
		attr.Docstring = pyast.TrailingComment(stmt, b.src)
	}
}

// flattenBases resolves each base-class expression and cross-links
// inherited members the class does not declare itself. Bases run in
// declaration order, so the first base wins contested names.
// Unresolvable bases (external or dynamic) are skipped silently.
func (b *builder) flattenBases(cls *Object, def *sitter.Node) {
	for _, base := range pyast.Bases(def, b.src) {
		full := b.engine.resolver.Resolve(b.module+"."+base, b.module)
		if full == "" {
			continue
		}
		cls.Bases = append(cls.Bases, full)
		parent := b.classAt(full)
		if parent == nil || parent.Kind != KindClass {
			continue
		}
		for _, member := range parent.Children() {
			if cls.Child(member.Name) == nil {
				cls.link(member)
			}
		}
	}
}

// classAt finds the object behind a resolved base name, preferring classes
// built earlier in the current module pass.
func (b *builder) classAt(full string) *Object {
	if obj, ok := b.local[full]; ok {
		return obj
	}
	return b.engine.build(full)
}

func stripReceiver(params []pyast.Param) []pyast.Param {
	if len(params) > 0 && (params[0].Name == "self" || params[0].Name == "cls") {
		return params[1:]
	}
	return params
}

func hasDecorator(decorators []string, name string) bool {
	for _, d := range decorators {
		if d == name || strings.HasSuffix(d, "."+name) {
			return true
		}
	}
	return false
}

func isProperty(decorators []string) bool {
	return hasDecorator(decorators, "property") || hasDecorator(decorators, "cached_property")
}

func isDataclass(decorators []string) bool {
	if hasDecorator(decorators, "dataclass") || hasDecorator(decorators, "define") {
		return true
	}
	for _, d := range decorators {
		if d == "attr.s" {
			return true
		}
	}
	return false
}
