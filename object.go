package lattice

import (
	"encoding/json"

	"github.com/mkelly/lattice/internal/docstring"
	"github.com/mkelly/lattice/internal/pyast"
)

// ObjectKind classifies a node of the documentation graph.
type ObjectKind string

const (
	KindModule    ObjectKind = "module"
	KindClass     ObjectKind = "class"
	KindFunction  ObjectKind = "function"
	KindAttribute ObjectKind = "attribute"
	KindProperty  ObjectKind = "property"
)

// Object is one node of the documentation graph: a module, class, function,
// property, or attribute, with its signature data, raw docstring, and the
// merged document attached by Collect.
//
// Members are held in an ordered collection. A member flattened in from a
// base class is cross-linked: it appears among the children but keeps the
// defining class as its parent.
type Object struct {
	Kind     ObjectKind
	Name     string // unqualified name
	Qual     string // owner-qualified path within the module; "" for modules
	FullName string // module-qualified path
	Module   string // dotted path of the owning module

	// Docstring is the raw structured comment as written. For attributes it
	// is the trailing same-line comment, when present.
	Docstring string
	// Doc is the parsed and merged document. Nil until Collect runs.
	Doc *docstring.Doc

	Params     []pyast.Param // functions, properties, class constructors
	Returns    string        // return annotation, as written
	Bases      []string      // resolved base-class fullnames, declaration order
	TypeAnn    string        // attributes: annotation, as written
	Default    string        // attributes: assigned expression, as written
	Decorators []string

	parent   *Object
	children map[string]*Object
	order    []string
}

// Parent returns the owning object, nil for modules.
func (o *Object) Parent() *Object {
	return o.parent
}

// Child returns the member with the given name, or nil.
func (o *Object) Child(name string) *Object {
	return o.children[name]
}

// Children returns the members in order: declaration order for owned
// members, with inherited cross-links after the last declared one.
func (o *Object) Children() []*Object {
	out := make([]*Object, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.children[name])
	}
	return out
}

// Inherited reports whether the named member was flattened in from a base
// class rather than declared on o itself.
func (o *Object) Inherited(name string) bool {
	c := o.children[name]
	return c != nil && c.parent != o
}

// adopt inserts child as an owned member.
func (o *Object) adopt(child *Object) {
	child.parent = o
	o.put(child)
}

// link inserts child as an inherited cross-link; the defining class stays
// its parent.
func (o *Object) link(child *Object) {
	o.put(child)
}

// put applies the member-redefinition rule: a member of the same kind
// replaces the previous one in place, keeping its position; a member of a
// different kind evicts the previous entry and appends at the end.
func (o *Object) put(child *Object) {
	if o.children == nil {
		o.children = make(map[string]*Object)
	}
	prev, ok := o.children[child.Name]
	if ok && prev.Kind == child.Kind {
		o.children[child.Name] = child
		return
	}
	if ok {
		for i, name := range o.order {
			if name == child.Name {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
	}
	o.children[child.Name] = child
	o.order = append(o.order, child.Name)
}

// objectJSON is the serialized shape of an Object. Owned members nest as a
// tree; inherited cross-links are recorded by fullname only, since their
// definitions serialize under the defining class.
type objectJSON struct {
	Kind       ObjectKind     `json:"kind"`
	Name       string         `json:"name"`
	Qual       string         `json:"qual,omitempty"`
	FullName   string         `json:"full_name"`
	Module     string         `json:"module"`
	Docstring  string         `json:"docstring,omitempty"`
	Doc        *docstring.Doc `json:"doc,omitempty"`
	Params     []pyast.Param  `json:"params,omitempty"`
	Returns    string         `json:"returns,omitempty"`
	Bases      []string       `json:"bases,omitempty"`
	TypeAnn    string         `json:"type,omitempty"`
	Default    string         `json:"default,omitempty"`
	Decorators []string       `json:"decorators,omitempty"`
	Children   []*Object      `json:"children,omitempty"`
	Inherited  []string       `json:"inherited,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	out := objectJSON{
		Kind:       o.Kind,
		Name:       o.Name,
		Qual:       o.Qual,
		FullName:   o.FullName,
		Module:     o.Module,
		Docstring:  o.Docstring,
		Doc:        o.Doc,
		Params:     o.Params,
		Returns:    o.Returns,
		Bases:      o.Bases,
		TypeAnn:    o.TypeAnn,
		Default:    o.Default,
		Decorators: o.Decorators,
	}
	for _, name := range o.order {
		c := o.children[name]
		if c.parent == o {
			out.Children = append(out.Children, c)
		} else {
			out.Inherited = append(out.Inherited, c.FullName)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Owned members are restored
// with parent pointers intact; inherited cross-links are not re-attached,
// since that requires the full graph.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw objectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Object{
		Kind:       raw.Kind,
		Name:       raw.Name,
		Qual:       raw.Qual,
		FullName:   raw.FullName,
		Module:     raw.Module,
		Docstring:  raw.Docstring,
		Doc:        raw.Doc,
		Params:     raw.Params,
		Returns:    raw.Returns,
		Bases:      raw.Bases,
		TypeAnn:    raw.TypeAnn,
		Default:    raw.Default,
		Decorators: raw.Decorators,
	}
	for _, c := range raw.Children {
		o.adopt(c)
	}
	return nil
}
