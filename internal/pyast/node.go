// Package pyast walks one module's tree-sitter syntax tree and yields
// flat, unresolved raw nodes: definitions, assignments, and imports. It has
// no cross-module knowledge; resolution happens downstream.
package pyast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Text returns the source text covered by a node.
func Text(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	return string(src[node.StartByte():node.EndByte()])
}

// childOfType returns the first direct child with the given node type.
func childOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// DefName returns the name of a class_definition or function_definition.
func DefName(node *sitter.Node, src []byte) string {
	return Text(node.ChildByFieldName("name"), src)
}

// DefBody returns the block node of a class or function definition.
func DefBody(node *sitter.Node) *sitter.Node {
	return node.ChildByFieldName("body")
}

// Definition unwraps a decorated_definition to the inner class or function
// node; other nodes pass through unchanged.
func Definition(node *sitter.Node) *sitter.Node {
	if node.Type() == "decorated_definition" {
		if def := node.ChildByFieldName("definition"); def != nil {
			return def
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			c := node.Child(i)
			if c.Type() == "class_definition" || c.Type() == "function_definition" {
				return c
			}
		}
	}
	return node
}

// Decorators returns the decorator expressions attached to a node. For a
// decorated_definition that is the decorator list; for a bare definition it
// is empty. Call decorators like "@dataclass(frozen=True)" are reduced to
// the callee expression.
func Decorators(node *sitter.Node, src []byte) []string {
	if node.Type() != "decorated_definition" {
		return nil
	}
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c.Type() != "decorator" {
			continue
		}
		for j := 0; j < int(c.ChildCount()); j++ {
			gc := c.Child(j)
			switch gc.Type() {
			case "identifier", "attribute":
				out = append(out, Text(gc, src))
			case "call":
				if fn := gc.ChildByFieldName("function"); fn != nil {
					out = append(out, Text(fn, src))
				}
			}
		}
	}
	return out
}

// Bases returns the base-class expressions of a class_definition, as
// written. Subscripted bases like Generic[T] keep only the value before the
// bracket; keyword arguments (metaclass=...) are skipped.
func Bases(node *sitter.Node, src []byte) []string {
	args := node.ChildByFieldName("superclasses")
	if args == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(args.ChildCount()); i++ {
		arg := args.Child(i)
		switch arg.Type() {
		case "identifier", "attribute":
			out = append(out, Text(arg, src))
		case "subscript":
			if v := arg.ChildByFieldName("value"); v != nil {
				out = append(out, Text(v, src))
			}
		}
	}
	return out
}

// BlockDocstring returns the docstring of a block node: the string literal
// of a leading expression statement, unquoted. Empty when absent.
func BlockDocstring(block *sitter.Node, src []byte) string {
	if block == nil || block.ChildCount() == 0 {
		return ""
	}
	first := block.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	str := first.Child(0)
	if str.Type() != "string" {
		return ""
	}
	return UnquoteString(Text(str, src))
}

// UnquoteString strips string-literal prefixes and quotes from a Python
// string literal's source text.
func UnquoteString(raw string) string {
	raw = strings.TrimLeft(raw, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			return raw[len(q) : len(raw)-len(q)]
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2 {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

// TrailingComment returns the text of a comment node that follows the given
// statement on the same source line, with the leading "#" markers and
// padding stripped. Used as a one-line description for attributes.
func TrailingComment(node *sitter.Node, src []byte) string {
	for sib := node.NextSibling(); sib != nil; sib = sib.NextSibling() {
		if sib.StartPoint().Row != node.EndPoint().Row {
			return ""
		}
		if sib.Type() == "comment" {
			text := Text(sib, src)
			text = strings.TrimLeft(text, "#:")
			return strings.TrimSpace(text)
		}
	}
	return ""
}
