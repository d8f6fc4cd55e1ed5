package pyast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// expandImport expands a plain import statement into raw import entries.
//
//	import a.b.c       -> a->a, a.b->a.b, a.b.c->a.b.c (every leading
//	                      dotted segment becomes a usable local name)
//	import a.b.c as x  -> x->a.b.c (exactly one entry)
func expandImport(stmt *sitter.Node, src []byte) []RawNode {
	var out []RawNode
	for i := 0; i < int(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		switch child.Type() {
		case "dotted_name":
			target := Text(child, src)
			parts := strings.Split(target, ".")
			for n := 1; n <= len(parts); n++ {
				prefix := strings.Join(parts[:n], ".")
				out = append(out, RawNode{Kind: KindImport, Name: prefix, Target: prefix, Node: stmt})
			}
		case "aliased_import":
			target := Text(child.ChildByFieldName("name"), src)
			alias := Text(child.ChildByFieldName("alias"), src)
			if target != "" && alias != "" {
				out = append(out, RawNode{Kind: KindImport, Name: alias, Target: target, Node: stmt})
			}
		}
	}
	return out
}

// expandImportFrom expands a from-import into one raw entry per imported
// member, with the (absolute) source module as target prefix. Wildcards
// become a single KindWildcard entry for the resolver to expand.
func expandImportFrom(stmt *sitter.Node, src []byte, module string, isPackage bool) []RawNode {
	var source string
	var sawImport bool
	var out []RawNode

	addMember := func(member, alias string) {
		name := alias
		if name == "" {
			name = member
		}
		out = append(out, RawNode{
			Kind:   KindImport,
			Name:   name,
			Target: joinDotted(source, member),
			Node:   stmt,
		})
	}

	for i := 0; i < int(stmt.ChildCount()); i++ {
		child := stmt.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			source = rewriteRelative(child, src, module, isPackage)
		case "dotted_name":
			if !sawImport {
				source = Text(child, src)
			} else {
				addMember(Text(child, src), "")
			}
		case "identifier":
			if sawImport {
				addMember(Text(child, src), "")
			}
		case "aliased_import":
			addMember(
				Text(child.ChildByFieldName("name"), src),
				Text(child.ChildByFieldName("alias"), src),
			)
		case "wildcard_import":
			out = append(out, RawNode{Kind: KindWildcard, Target: source, Node: stmt})
		}
	}
	return out
}

// rewriteRelative converts a relative_import node ("..sub" in "from ..sub
// import x") to an absolute dotted path by walking up from the importing
// module: one level consumed reaches the module's own package (a package
// module counts as its own first level), each further level climbs one
// parent.
func rewriteRelative(rel *sitter.Node, src []byte, module string, isPackage bool) string {
	var level int
	var rest string
	for i := 0; i < int(rel.ChildCount()); i++ {
		c := rel.Child(i)
		switch c.Type() {
		case "import_prefix":
			level = len(Text(c, src))
		case "dotted_name":
			rest = Text(c, src)
		}
	}

	parts := strings.Split(module, ".")
	if !isPackage && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	for i := 1; i < level && len(parts) > 0; i++ {
		parts = parts[:len(parts)-1]
	}
	return joinDotted(strings.Join(parts, "."), rest)
}

func joinDotted(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "." + b
	}
}
