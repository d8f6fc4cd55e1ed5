// Package docstring parses structured comment blocks into a typed document
// model. Two section-delimiter conventions are supported: colon style, where
// a known section name ending in ":" introduces an indented block, and
// underline style, where a section name is followed by a line of "-" or "="
// of matching length. The style is auto-detected per block; colon style is
// the default.
package docstring

import "strings"

// Doc is the parsed form of one structured comment block.
type Doc struct {
	Name     string    `json:"name,omitempty"`
	Type     string    `json:"type,omitempty"`
	Text     string    `json:"text,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// Section is one titled block inside a Doc. Name is the canonical display
// name, or "" for untitled prose.
type Section struct {
	Name       string `json:"name,omitempty"`
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	Items      []Item `json:"items,omitempty"`
	Admonition bool   `json:"admonition,omitempty"`
}

// Item is one named entry inside a section, e.g. a single parameter.
// Returns/Yields items carry an empty Name unless the comment spells one.
type Item struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

// sectionSynonyms maps lowercased section spellings to one display name.
var sectionSynonyms = map[string]string{
	"args":              "Parameters",
	"arguments":         "Parameters",
	"params":            "Parameters",
	"parameters":        "Parameters",
	"other parameters":  "Other Parameters",
	"keyword args":      "Keyword Arguments",
	"keyword arguments": "Keyword Arguments",
	"attributes":        "Attributes",
	"return":            "Returns",
	"returns":           "Returns",
	"yield":             "Yields",
	"yields":            "Yields",
	"raises":            "Raises",
	"raise":             "Raises",
	"except":            "Raises",
	"exceptions":        "Raises",
	"example":           "Examples",
	"examples":          "Examples",
	"note":              "Note",
	"notes":             "Note",
	"warning":           "Warning",
	"warnings":          "Warning",
	"see also":          "See Also",
	"seealso":           "See Also",
	"references":        "References",
	"methods":           "Methods",
	"todo":              "Todo",
}

// CanonicalSection returns the display name for a section spelling, or
// ("", false) when the spelling is not a known section name.
func CanonicalSection(name string) (string, bool) {
	c, ok := sectionSynonyms[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// namedItemSections hold items introduced by a leading name token.
var namedItemSections = map[string]bool{
	"Parameters":        true,
	"Other Parameters":  true,
	"Keyword Arguments": true,
	"Attributes":        true,
	"Raises":            true,
	"Methods":           true,
}

// unnamedItemSections hold a single item with no leading name expected.
var unnamedItemSections = map[string]bool{
	"Returns": true,
	"Yields":  true,
}

// admonitionSections render as callout blocks rather than item lists.
var admonitionSections = map[string]bool{
	"Note":     true,
	"Warning":  true,
	"See Also": true,
}

// MergeItems unions two item lists by name. An item present on one side
// only passes through; an item present on both is merged field-by-field:
// the first non-empty type wins (preferring a's), non-empty texts are
// concatenated with a blank line.
func MergeItems(a, b []Item) []Item {
	out := make([]Item, len(a))
	copy(out, a)
	index := make(map[string]int, len(a))
	for i, it := range a {
		index[it.Name] = i
	}
	for _, it := range b {
		i, ok := index[it.Name]
		if !ok {
			index[it.Name] = len(out)
			out = append(out, it)
			continue
		}
		out[i] = mergeItem(out[i], it)
	}
	return out
}

func mergeItem(a, b Item) Item {
	if a.Type == "" {
		a.Type = b.Type
	}
	a.Text = joinText(a.Text, b.Text)
	return a
}

// MergeSections merges two sections of the same name: first non-empty type
// wins, texts concatenate, items union by name.
func MergeSections(a, b Section) Section {
	out := a
	if out.Type == "" {
		out.Type = b.Type
	}
	out.Text = joinText(a.Text, b.Text)
	out.Items = MergeItems(a.Items, b.Items)
	return out
}

// joinText concatenates non-empty text bodies with a blank-line separator.
func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}

// SectionByName returns a pointer to the first section with the given
// canonical name, or nil.
func (d *Doc) SectionByName(name string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			return &d.Sections[i]
		}
	}
	return nil
}
