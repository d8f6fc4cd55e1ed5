package pysrc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestDirLoader_LocatesModuleAndPackage(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "pets/__init__.py", "")
	writeModule(t, root, "pets/dog.py", "x = 1\n")

	l := NewDirLoader(root)

	src, err := l.Load("pets")
	require.NoError(t, err)
	assert.True(t, src.IsPackage)

	src, err = l.Load("pets.dog")
	require.NoError(t, err)
	assert.False(t, src.IsPackage)
	assert.Equal(t, "pets.dog", src.Path)
	assert.NotNil(t, src.Root())
}

func TestDirLoader_NotFound(t *testing.T) {
	l := NewDirLoader(t.TempDir())
	_, err := l.Load("ghost")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, l.Exists("ghost"))
}

func TestCache_RepeatedGetReturnsSameSource(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "m.py", "a = 1\n")

	c := NewCache(NewDirLoader(root))
	first, err := c.Get("m")
	require.NoError(t, err)
	second, err := c.Get("m")
	require.NoError(t, err)

	// Unchanged mtime: same (tree, text, mtime) triple, same instance.
	assert.Same(t, first, second)
}

func TestCache_MtimeChangeReparsesAndNotifies(t *testing.T) {
	root := t.TempDir()
	file := writeModule(t, root, "m.py", "a = 1\n")

	c := NewCache(NewDirLoader(root))
	var replaced []string
	c.OnReplace = func(path string) { replaced = append(replaced, path) }

	first, err := c.Get("m")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(file, []byte("a = 2\n"), 0o644))
	newTime := first.Mtime.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(file, newTime, newTime))

	second, err := c.Get("m")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, []byte("a = 2\n"), second.Text)
	assert.Equal(t, []string{"m"}, replaced)
}

func TestCache_NegativeCachingIsSticky(t *testing.T) {
	root := t.TempDir()
	c := NewCache(NewDirLoader(root))

	_, err := c.Get("late")
	require.ErrorIs(t, err, ErrNotFound)

	// The module appears after the first probe; the miss stays cached.
	writeModule(t, root, "late.py", "a = 1\n")
	_, err = c.Get("late")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, c.Exists("late"))

	// Drop forces a retry.
	c.Drop("late")
	src, err := c.Get("late")
	require.NoError(t, err)
	assert.Equal(t, "late", src.Path)
}

func TestCache_ExistsWithoutPriorGet(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "m.py", "")
	c := NewCache(NewDirLoader(root))
	assert.True(t, c.Exists("m"))
	assert.False(t, c.Exists("nope"))
}

func TestNotFoundErrorUnwraps(t *testing.T) {
	err := errNotFoundFor("x")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "x")
}
