package lattice

import (
	"github.com/mkelly/lattice/internal/docstring"
	"github.com/mkelly/lattice/internal/pyast"
)

// mergeDoc parses an object's raw docstring and merges syntax-derived
// signature data into it. Non-empty syntax data wins over comment-derived
// data; comment-only entries survive, appended after the declared ones.
func mergeDoc(obj *Object) *docstring.Doc {
	doc := docstring.Parse(obj.Docstring)
	doc.Name = obj.Name

	switch obj.Kind {
	case KindFunction, KindProperty:
		mergeParams(doc, obj.Params, nil)
		mergeReturns(doc, obj.Returns)
	case KindClass:
		mergeClassDoc(doc, obj)
	case KindAttribute:
		doc.Type = obj.TypeAnn
	}
	return doc
}

// mergeClassDoc folds a class's declared surface into its doc: body and
// instance attributes into the Attributes section, and the constructor or
// data-class parameter list (plus the constructor doc's own Parameters
// items) into the Parameters section.
func mergeClassDoc(doc *docstring.Doc, cls *Object) {
	var attrItems []docstring.Item
	for _, m := range cls.Children() {
		if m.Kind != KindAttribute {
			continue
		}
		attrItems = append(attrItems, docstring.Item{
			Name: m.Name,
			Type: m.TypeAnn,
			Text: m.Docstring,
		})
	}
	mergeSectionItems(doc, "Attributes", attrItems)

	var ctorItems []docstring.Item
	if ctor := cls.Child("__init__"); ctor != nil && ctor.Doc != nil {
		if sec := ctor.Doc.SectionByName("Parameters"); sec != nil {
			ctorItems = sec.Items
		}
	}
	mergeParams(doc, cls.Params, ctorItems)
}

// mergeParams merges a declared parameter list into the doc's Parameters
// section. Order follows the declaration; items the comment alone mentions
// are appended. extra items (a constructor doc's) merge in last.
func mergeParams(doc *docstring.Doc, params []pyast.Param, extra []docstring.Item) {
	var declared []docstring.Item
	for _, p := range params {
		declared = append(declared, docstring.Item{Name: p.Name, Type: p.Annotation})
	}
	if len(declared) == 0 && len(extra) == 0 {
		return
	}
	sec := doc.SectionByName("Parameters")
	var fromComment []docstring.Item
	if sec != nil {
		fromComment = sec.Items
	}
	merged := docstring.MergeItems(declared, fromComment)
	merged = docstring.MergeItems(merged, extra)
	if sec != nil {
		sec.Items = merged
		return
	}
	doc.Sections = append(doc.Sections, docstring.Section{Name: "Parameters", Items: merged})
}

// mergeReturns overlays the declared return annotation on the Returns
// section, creating a bare one when the comment has none.
func mergeReturns(doc *docstring.Doc, returns string) {
	if returns == "" {
		return
	}
	sec := doc.SectionByName("Returns")
	if sec == nil {
		doc.Sections = append(doc.Sections, docstring.Section{
			Name:  "Returns",
			Items: []docstring.Item{{Type: returns}},
		})
		return
	}
	if len(sec.Items) == 0 {
		sec.Items = []docstring.Item{{Type: returns}}
		return
	}
	sec.Items[0].Type = returns
}

// mergeSectionItems merges declared items into the named section, creating
// it when absent and there is something to say. The comment section's own
// prose and type survive the merge.
func mergeSectionItems(doc *docstring.Doc, name string, declared []docstring.Item) {
	if len(declared) == 0 {
		return
	}
	sec := doc.SectionByName(name)
	if sec == nil {
		doc.Sections = append(doc.Sections, docstring.Section{Name: name, Items: declared})
		return
	}
	*sec = docstring.MergeSections(docstring.Section{Name: name, Items: declared}, *sec)
}
