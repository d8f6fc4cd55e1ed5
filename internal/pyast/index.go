package pyast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Kind tags a RawNode variant.
type Kind int

const (
	// KindDef is a class or function definition.
	KindDef Kind = iota
	// KindAssign is a variable or attribute assignment.
	KindAssign
	// KindImport binds a local alias to a dotted target.
	KindImport
	// KindWildcard is a "from X import *"; expansion is deferred to the
	// resolver, which consults X's public-export list.
	KindWildcard
)

// RawNode is one flat, unresolved entry of a module's index. Definitions
// and assignments carry the local name and a syntax handle; imports carry
// the alias and the (absolute) dotted target.
type RawNode struct {
	Kind   Kind
	Name   string
	Target string
	Node   *sitter.Node
}

// ModuleIndex is the ordered raw-node listing of one module. It is a pure
// function of the module's tree and is never cached across modules.
type ModuleIndex struct {
	Path      string
	IsPackage bool
	Nodes     []RawNode

	// Exports is the statically declared export list (__all__ of string
	// literals), nil when the module declares none.
	Exports []string

	byName map[string]int
}

// Index walks a module's syntax tree and yields its raw nodes in source
// order.
func Index(root *sitter.Node, src []byte, path string, isPackage bool) *ModuleIndex {
	idx := &ModuleIndex{Path: path, IsPackage: isPackage}
	for i := 0; i < int(root.ChildCount()); i++ {
		stmt := root.Child(i)
		switch stmt.Type() {
		case "class_definition", "function_definition":
			idx.add(RawNode{Kind: KindDef, Name: DefName(stmt, src), Node: stmt})
		case "decorated_definition":
			def := Definition(stmt)
			if def.Type() == "class_definition" || def.Type() == "function_definition" {
				idx.add(RawNode{Kind: KindDef, Name: DefName(def, src), Node: stmt})
			}
		case "expression_statement":
			if stmt.ChildCount() == 0 {
				continue
			}
			expr := stmt.Child(0)
			if expr.Type() != "assignment" {
				continue
			}
			name := assignName(expr, src)
			if name == "" {
				continue
			}
			if name == "__all__" {
				if names, ok := stringListLiteral(expr.ChildByFieldName("right"), src); ok {
					idx.Exports = names
				}
			}
			idx.add(RawNode{Kind: KindAssign, Name: name, Node: expr})
		case "import_statement":
			idx.Nodes = append(idx.Nodes, expandImport(stmt, src)...)
			idx.reindex()
		case "import_from_statement":
			idx.Nodes = append(idx.Nodes, expandImportFrom(stmt, src, path, isPackage)...)
			idx.reindex()
		}
	}
	return idx
}

func (idx *ModuleIndex) add(n RawNode) {
	idx.Nodes = append(idx.Nodes, n)
	if idx.byName == nil {
		idx.byName = make(map[string]int)
	}
	idx.byName[n.Name] = len(idx.Nodes) - 1
}

func (idx *ModuleIndex) reindex() {
	if idx.byName == nil {
		idx.byName = make(map[string]int)
	}
	for i, n := range idx.Nodes {
		if n.Name != "" {
			idx.byName[n.Name] = i
		}
	}
}

// Def returns the definition or assignment bound directly to name, if any.
func (idx *ModuleIndex) Def(name string) (RawNode, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return RawNode{}, false
	}
	n := idx.Nodes[i]
	if n.Kind != KindDef && n.Kind != KindAssign {
		return RawNode{}, false
	}
	return n, true
}

// Import returns the import entry whose alias matches name, if any.
func (idx *ModuleIndex) Import(name string) (RawNode, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return RawNode{}, false
	}
	n := idx.Nodes[i]
	if n.Kind != KindImport {
		return RawNode{}, false
	}
	return n, true
}

// Wildcards returns the targets of the module's wildcard imports, in
// source order.
func (idx *ModuleIndex) Wildcards() []string {
	var out []string
	for _, n := range idx.Nodes {
		if n.Kind == KindWildcard {
			out = append(out, n.Target)
		}
	}
	return out
}

// assignName returns the bound name of an assignment whose left side is a
// plain identifier; "" for tuple targets, attribute targets, and other
// shapes the index does not track at module level.
func assignName(assign *sitter.Node, src []byte) string {
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return ""
	}
	return Text(left, src)
}

// AssignParts decomposes an assignment into its annotation and right-hand
// expression, as written.
func AssignParts(assign *sitter.Node, src []byte) (annotation, value string) {
	return Text(assign.ChildByFieldName("type"), src),
		Text(assign.ChildByFieldName("right"), src)
}

// stringListLiteral extracts the string elements of a list or tuple
// literal. Returns ok=false when the expression is not a literal of plain
// strings (dynamically computed export lists stay opaque).
func stringListLiteral(node *sitter.Node, src []byte) ([]string, bool) {
	if node == nil || (node.Type() != "list" && node.Type() != "tuple") {
		return nil, false
	}
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "string":
			out = append(out, UnquoteString(Text(c, src)))
		case "[", "]", "(", ")", ",":
		default:
			return nil, false
		}
	}
	return out, true
}
