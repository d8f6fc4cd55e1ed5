package pyast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Param is one declared parameter of a function definition, as written:
// name (with "*"/"**" prefix for splat forms), optional annotation, and
// optional default expression.
type Param struct {
	Name       string `json:"name"`
	Annotation string `json:"annotation,omitempty"`
	Default    string `json:"default,omitempty"`
}

// Params extracts the declared parameter list of a function_definition.
// Bare "*" and "/" separators are skipped.
func Params(def *sitter.Node, src []byte) []Param {
	params := def.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []Param
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(i)
		switch child.Type() {
		case "identifier":
			out = append(out, Param{Name: Text(child, src)})
		case "typed_parameter":
			p := Param{Annotation: Text(child.ChildByFieldName("type"), src)}
			if id := childOfType(child, "identifier"); id != nil {
				p.Name = Text(id, src)
			} else if sp := childOfType(child, "list_splat_pattern"); sp != nil {
				p.Name = "*" + Text(childOfType(sp, "identifier"), src)
			} else if sp := childOfType(child, "dictionary_splat_pattern"); sp != nil {
				p.Name = "**" + Text(childOfType(sp, "identifier"), src)
			}
			out = append(out, p)
		case "default_parameter":
			out = append(out, Param{
				Name:    Text(child.ChildByFieldName("name"), src),
				Default: Text(child.ChildByFieldName("value"), src),
			})
		case "typed_default_parameter":
			out = append(out, Param{
				Name:       Text(child.ChildByFieldName("name"), src),
				Annotation: Text(child.ChildByFieldName("type"), src),
				Default:    Text(child.ChildByFieldName("value"), src),
			})
		case "list_splat_pattern":
			if id := childOfType(child, "identifier"); id != nil {
				out = append(out, Param{Name: "*" + Text(id, src)})
			}
		case "dictionary_splat_pattern":
			if id := childOfType(child, "identifier"); id != nil {
				out = append(out, Param{Name: "**" + Text(id, src)})
			}
		}
	}
	return out
}

// ReturnType returns a function definition's return annotation, as written.
func ReturnType(def *sitter.Node, src []byte) string {
	rt := def.ChildByFieldName("return_type")
	if rt == nil {
		return ""
	}
	if rt.Type() == "type" {
		return Text(rt, src)
	}
	if t := childOfType(rt, "type"); t != nil {
		return Text(t, src)
	}
	return Text(rt, src)
}
