package lattice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree lays out a source tree under a temp dir and returns its root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

const baseSource = `"""Animal base module."""


class Animal:
    """Base animal."""

    kind = "animal"  # taxonomy label

    def speak(self) -> str:
        return ""
`

const petsSource = `from base import Animal


class Dog(Animal):
    """A dog.

    See [Animal] for shared behavior.
    """

    def __init__(self, name: str, lives: int = 1):
        self.name = name  # given name

    def speak(self) -> str:
        return "woof"
`

func newPetsEngine(t *testing.T) *Engine {
	t.Helper()
	dir := writeTree(t, map[string]string{
		"base.py": baseSource,
		"pets.py": petsSource,
	})
	return Open(dir)
}

func TestEngine_CollectModule(t *testing.T) {
	e := newPetsEngine(t)

	mod, err := e.Collect("pets")
	require.NoError(t, err)

	assert.Equal(t, KindModule, mod.Kind)
	assert.Equal(t, "pets", mod.FullName)
	dog := mod.Child("Dog")
	require.NotNil(t, dog)
	assert.Equal(t, KindClass, dog.Kind)
	assert.Equal(t, "pets.Dog", dog.FullName)
	assert.Equal(t, "Dog", dog.Qual)
}

func TestEngine_CollectMissingModule(t *testing.T) {
	e := newPetsEngine(t)

	_, err := e.Collect("ghost")
	require.Error(t, err)
}

func TestEngine_ClassConstructorParams(t *testing.T) {
	e := newPetsEngine(t)

	dog, err := e.Collect("pets.Dog")
	require.NoError(t, err)

	require.Len(t, dog.Params, 2)
	assert.Equal(t, "name", dog.Params[0].Name)
	assert.Equal(t, "str", dog.Params[0].Annotation)
	assert.Equal(t, "lives", dog.Params[1].Name)
	assert.Equal(t, "1", dog.Params[1].Default)
}

func TestEngine_InstanceAttributeFromConstructor(t *testing.T) {
	e := newPetsEngine(t)

	dog, err := e.Collect("pets.Dog")
	require.NoError(t, err)

	attr := dog.Child("name")
	require.NotNil(t, attr)
	assert.Equal(t, KindAttribute, attr.Kind)
	assert.Equal(t, "given name", attr.Docstring)
	assert.False(t, dog.Inherited("name"))
}

func TestEngine_InheritanceFlattening(t *testing.T) {
	e := newPetsEngine(t)

	dog, err := e.Collect("pets.Dog")
	require.NoError(t, err)

	assert.Equal(t, []string{"base.Animal"}, dog.Bases)

	// kind is only declared on Animal: linked in, definer preserved.
	kind := dog.Child("kind")
	require.NotNil(t, kind)
	assert.True(t, dog.Inherited("kind"))
	assert.Equal(t, "base.Animal", kind.Parent().FullName)

	// speak is overridden locally.
	assert.False(t, dog.Inherited("speak"))
	assert.Equal(t, "pets.Dog.speak", dog.Child("speak").FullName)
}

func TestEngine_DocLinkified(t *testing.T) {
	e := newPetsEngine(t)

	dog, err := e.Collect("pets.Dog")
	require.NoError(t, err)

	require.NotNil(t, dog.Doc)
	assert.Contains(t, dog.Doc.Text, "[Animal][base.Animal]")
}

func TestEngine_MemberReferenceLinkified(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"zoo.py": `"""Zoo helpers.

See [Keeper.feed] for the feeding routine.
"""


class Keeper:
    def feed(self) -> None:
        pass
`,
	})
	e := Open(dir)

	mod, err := e.Collect("zoo")
	require.NoError(t, err)
	assert.Contains(t, mod.Doc.Text, "[Keeper.feed][zoo.Keeper.feed]")
}

func TestEngine_ResolveThroughAlias(t *testing.T) {
	e := newPetsEngine(t)

	assert.Equal(t, "base.Animal", e.Resolve("pets.Animal", "pets"))
	assert.Equal(t, "", e.Resolve("pets.Ghost", "pets"))
}

func TestEngine_ModuleAttribute(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"config.py": "TIMEOUT: int = 30  # seconds before giving up\n",
	})
	e := Open(dir)

	mod, err := e.Collect("config")
	require.NoError(t, err)

	attr := mod.Child("TIMEOUT")
	require.NotNil(t, attr)
	assert.Equal(t, KindAttribute, attr.Kind)
	assert.Equal(t, "int", attr.TypeAnn)
	assert.Equal(t, "30", attr.Default)
	assert.Equal(t, "seconds before giving up", attr.Docstring)
	require.NotNil(t, attr.Doc)
	assert.Equal(t, "int", attr.Doc.Type)
}

func TestEngine_DataclassAndProperty(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"shapes.py": `from dataclasses import dataclass


@dataclass
class Point:
    """A point.

    Attributes:
        x: Horizontal position.
    """

    x: int  # horizontal
    y: int = 0

    @property
    def magnitude(self) -> float:
        return 0.0
`,
	})
	e := Open(dir)

	point, err := e.Collect("shapes.Point")
	require.NoError(t, err)

	// Data-class parameters come from the attribute set, in order.
	require.Len(t, point.Params, 2)
	assert.Equal(t, "x", point.Params[0].Name)
	assert.Equal(t, "int", point.Params[0].Annotation)
	assert.Equal(t, "y", point.Params[1].Name)
	assert.Equal(t, "0", point.Params[1].Default)

	mag := point.Child("magnitude")
	require.NotNil(t, mag)
	assert.Equal(t, KindProperty, mag.Kind)
	assert.Equal(t, "float", mag.Returns)
	assert.Empty(t, mag.Params)

	attrs := point.Doc.SectionByName("Attributes")
	require.NotNil(t, attrs)
	require.Len(t, attrs.Items, 2)
	assert.Equal(t, "x", attrs.Items[0].Name)
	assert.Equal(t, "int", attrs.Items[0].Type)
	assert.Contains(t, attrs.Items[0].Text, "Horizontal position.")
	assert.Equal(t, "y", attrs.Items[1].Name)
}

func TestEngine_PackageRelativeImport(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"pkg/__init__.py": "from .mod import Thing\n",
		"pkg/mod.py":      "class Thing:\n    pass\n",
	})
	e := Open(dir)

	assert.Equal(t, "pkg.mod.Thing", e.Resolve("pkg.Thing", "pkg"))

	obj := e.Build("pkg.mod.Thing")
	require.NotNil(t, obj)
	assert.Equal(t, KindClass, obj.Kind)
}

func TestEngine_WildcardWithScriptProvider(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"lib.py": "class Cat:\n    pass\n",
		"m.py":   "from lib import *\n",
	})
	e := New(NewDirLoader(dir), WithExportProvider(NewScriptProvider(`["Cat"]`)))

	assert.Equal(t, "lib.Cat", e.Resolve("m.Cat", "m"))
}

func TestEngine_ChangedSourceInvalidates(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"m.py": "def f():\n    pass\n",
	})
	e := Open(dir)

	mod, err := e.Collect("m")
	require.NoError(t, err)
	require.NotNil(t, mod.Child("f"))

	path := filepath.Join(dir, "m.py")
	require.NoError(t, os.WriteFile(path, []byte("def g():\n    pass\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	mod, err = e.Collect("m")
	require.NoError(t, err)
	assert.Nil(t, mod.Child("f"))
	require.NotNil(t, mod.Child("g"))
}

func TestEngine_DropForcesRetryAfterMiss(t *testing.T) {
	dir := t.TempDir()
	e := Open(dir)

	_, err := e.Collect("late")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.py"), []byte("X = 1\n"), 0o644))

	// The miss is cached until the host drops it.
	_, err = e.Collect("late")
	require.Error(t, err)

	e.Drop("late")
	mod, err := e.Collect("late")
	require.NoError(t, err)
	assert.NotNil(t, mod.Child("X"))
}

func TestEngine_CollectAll(t *testing.T) {
	e := newPetsEngine(t)

	objects, err := e.CollectAll(context.Background(), []string{"pets", "pets.Dog", "base"})
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, KindModule, objects["pets"].Kind)
	assert.Equal(t, KindClass, objects["pets.Dog"].Kind)
	assert.Same(t, objects["pets"].Child("Dog"), objects["pets.Dog"])
}

func TestEngine_CollectAllPartialFailure(t *testing.T) {
	e := newPetsEngine(t)

	objects, err := e.CollectAll(context.Background(), []string{"pets", "ghost"})
	require.Error(t, err)
	assert.Len(t, objects, 1)
	assert.NotNil(t, objects["pets"])
}
