package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkelly/lattice/internal/docstring"
	"github.com/mkelly/lattice/internal/pyast"
)

func TestMergeDoc_FunctionParams(t *testing.T) {
	obj := &Object{
		Kind: KindFunction,
		Name: "move",
		Params: []pyast.Param{
			{Name: "x", Annotation: "int"},
			{Name: "y"},
		},
		Docstring: "Move the thing.\n\nArgs:\n    x (str): Horizontal offset.\n    speed: How fast.\n",
	}

	doc := mergeDoc(obj)
	assert.Equal(t, "Move the thing.", doc.Text)

	sec := doc.SectionByName("Parameters")
	require.NotNil(t, sec)
	require.Len(t, sec.Items, 3)

	// Declared order first, comment-only entries appended.
	assert.Equal(t, "x", sec.Items[0].Name)
	assert.Equal(t, "y", sec.Items[1].Name)
	assert.Equal(t, "speed", sec.Items[2].Name)

	// The declared annotation wins over the comment's type.
	assert.Equal(t, "int", sec.Items[0].Type)
	assert.Equal(t, "Horizontal offset.", sec.Items[0].Text)
	assert.Equal(t, "How fast.", sec.Items[2].Text)
}

func TestMergeDoc_ReturnsAnnotationWins(t *testing.T) {
	obj := &Object{
		Kind:      KindFunction,
		Name:      "ok",
		Returns:   "bool",
		Docstring: "Returns:\n    int: True when fine.\n",
	}

	doc := mergeDoc(obj)
	sec := doc.SectionByName("Returns")
	require.NotNil(t, sec)
	require.Len(t, sec.Items, 1)
	assert.Equal(t, "bool", sec.Items[0].Type)
	assert.Equal(t, "True when fine.", sec.Items[0].Text)
}

func TestMergeDoc_ReturnsSectionCreatedFromAnnotation(t *testing.T) {
	obj := &Object{Kind: KindFunction, Name: "f", Returns: "str", Docstring: "Does things."}

	doc := mergeDoc(obj)
	sec := doc.SectionByName("Returns")
	require.NotNil(t, sec)
	assert.Equal(t, "str", sec.Items[0].Type)
}

func TestMergeDoc_AttributeCarriesAnnotation(t *testing.T) {
	obj := &Object{
		Kind:      KindAttribute,
		Name:      "timeout",
		TypeAnn:   "int",
		Docstring: "seconds before giving up",
	}

	doc := mergeDoc(obj)
	assert.Equal(t, "int", doc.Type)
	assert.Equal(t, "seconds before giving up", doc.Text)
}

func TestMergeSectionItems_KeepsCommentSectionBody(t *testing.T) {
	doc := &docstring.Doc{Sections: []docstring.Section{{
		Name:  "Attributes",
		Text:  "All fields are immutable.",
		Items: []docstring.Item{{Name: "label", Text: "What the sticker says."}},
	}}}

	mergeSectionItems(doc, "Attributes", []docstring.Item{
		{Name: "label", Type: "str"},
		{Name: "lid", Type: "bool"},
	})

	sec := doc.SectionByName("Attributes")
	require.NotNil(t, sec)
	assert.Equal(t, "All fields are immutable.", sec.Text)
	require.Len(t, sec.Items, 2)
	assert.Equal(t, docstring.Item{Name: "label", Type: "str", Text: "What the sticker says."}, sec.Items[0])
	assert.Equal(t, docstring.Item{Name: "lid", Type: "bool"}, sec.Items[1])
}

func TestMergeDoc_ClassAttributesAndConstructorParams(t *testing.T) {
	cls := &Object{
		Kind:      KindClass,
		Name:      "Cat",
		Docstring: "A cat.\n\nAttributes:\n    lives: Remaining lives.\n",
		Params:    []pyast.Param{{Name: "name", Annotation: "str"}},
	}
	cls.adopt(&Object{Kind: KindAttribute, Name: "lives", TypeAnn: "int"})

	ctor := &Object{Kind: KindFunction, Name: "__init__", Params: cls.Params}
	cls.adopt(ctor)
	ctor.Doc = mergeDoc(ctor)

	doc := mergeDoc(cls)

	attrs := doc.SectionByName("Attributes")
	require.NotNil(t, attrs)
	require.Len(t, attrs.Items, 1)
	assert.Equal(t, "lives", attrs.Items[0].Name)
	assert.Equal(t, "int", attrs.Items[0].Type)
	assert.Equal(t, "Remaining lives.", attrs.Items[0].Text)

	params := doc.SectionByName("Parameters")
	require.NotNil(t, params)
	require.Len(t, params.Items, 1)
	assert.Equal(t, "name", params.Items[0].Name)
	assert.Equal(t, "str", params.Items[0].Type)
}
