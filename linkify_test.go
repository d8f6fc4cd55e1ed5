package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// staticResolver resolves from a fixed table.
func staticResolver(table map[string]string) func(string) string {
	return func(name string) string { return table[name] }
}

func TestLinkify_RewritesResolvedReference(t *testing.T) {
	res := staticResolver(map[string]string{"Dog": "pets.Dog"})
	out := Linkify("See [Dog] for details.", res)
	assert.Equal(t, "See [Dog][pets.Dog] for details.", out)
}

func TestLinkify_DottedName(t *testing.T) {
	res := staticResolver(map[string]string{"pets.Dog": "pets.Dog"})
	out := Linkify("See [pets.Dog].", res)
	assert.Equal(t, "See [pets.Dog][pets.Dog].", out)
}

func TestLinkify_UnresolvedStaysUntouched(t *testing.T) {
	res := staticResolver(nil)
	text := "See [Ghost] for details."
	assert.Equal(t, text, Linkify(text, res))
}

func TestLinkify_SkipsFencedCode(t *testing.T) {
	res := staticResolver(map[string]string{"Dog": "pets.Dog"})
	text := "Intro [Dog].\n```\ncode [Dog]\n```\nOutro [Dog]."
	out := Linkify(text, res)
	assert.Equal(t, "Intro [Dog][pets.Dog].\n```\ncode [Dog]\n```\nOutro [Dog][pets.Dog].", out)
}

func TestLinkify_SkipsInlineCode(t *testing.T) {
	res := staticResolver(map[string]string{"Dog": "pets.Dog"})
	out := Linkify("Use `a[Dog]` or [Dog].", res)
	assert.Equal(t, "Use `a[Dog]` or [Dog][pets.Dog].", out)
}

func TestLinkify_LeavesExistingLinksAlone(t *testing.T) {
	res := staticResolver(map[string]string{"Dog": "pets.Dog", "target": "t", "text": "t2"})
	assert.Equal(t, "[Dog][target]", Linkify("[Dog][target]", res))
	assert.Equal(t, "[Dog](https://x)", Linkify("[Dog](https://x)", res))
}

func TestLinkify_TildeFence(t *testing.T) {
	res := staticResolver(map[string]string{"Dog": "pets.Dog"})
	text := "~~~\n[Dog]\n~~~"
	assert.Equal(t, text, Linkify(text, res))
}
