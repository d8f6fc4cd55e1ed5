// Package pysrc loads and caches parsed Python modules keyed by dotted
// path. The cache is the only mutation point of the engine: entries are
// replaced when the underlying file's mtime changes, and lookups that miss
// are negatively cached for the cache's lifetime.
package pysrc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrNotFound reports that no loadable module exists at a dotted path.
var ErrNotFound = errors.New("pysrc: module not found")

// Source is one loaded module: dotted path, file location, package flag,
// raw text, parsed tree, and the mtime recorded at parse time.
type Source struct {
	Path      string // dotted module path
	FilePath  string
	IsPackage bool
	Text      []byte
	Tree      *sitter.Tree
	Mtime     time.Time
}

// Root returns the root syntax node of the parsed tree.
func (s *Source) Root() *sitter.Node {
	return s.Tree.RootNode()
}

// Loader maps dotted module paths to source files. It is the engine's only
// filesystem boundary.
type Loader interface {
	// Load reads and parses the module at a dotted path. Returns
	// ErrNotFound when no loadable module exists there.
	Load(path string) (*Source, error)
	// Exists reports whether a loadable module exists at a dotted path,
	// without parsing it.
	Exists(path string) bool
	// Stat returns the current mtime of the module's backing file.
	Stat(path string) (time.Time, error)
}

// DirLoader resolves dotted paths against one or more search roots, the
// way an interpreter path would: "a.b" maps to a/b.py or a/b/__init__.py
// under some root, with the package form taking precedence.
type DirLoader struct {
	Roots []string
}

// NewDirLoader creates a DirLoader over the given search roots.
func NewDirLoader(roots ...string) *DirLoader {
	return &DirLoader{Roots: roots}
}

// locate returns the backing file for a dotted path and whether it is a
// package (__init__ file).
func (l *DirLoader) locate(path string) (string, bool, bool) {
	rel := filepath.FromSlash(strings.ReplaceAll(path, ".", "/"))
	for _, root := range l.Roots {
		pkg := filepath.Join(root, rel, "__init__.py")
		if info, err := os.Stat(pkg); err == nil && !info.IsDir() {
			return pkg, true, true
		}
		mod := filepath.Join(root, rel+".py")
		if info, err := os.Stat(mod); err == nil && !info.IsDir() {
			return mod, false, true
		}
	}
	return "", false, false
}

// Exists implements Loader.
func (l *DirLoader) Exists(path string) bool {
	_, _, ok := l.locate(path)
	return ok
}

// Stat implements Loader.
func (l *DirLoader) Stat(path string) (time.Time, error) {
	file, _, ok := l.locate(path)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	info, err := os.Stat(file)
	if err != nil {
		return time.Time{}, fmt.Errorf("pysrc: stat %s: %w", file, err)
	}
	return info.ModTime(), nil
}

// Load implements Loader.
func (l *DirLoader) Load(path string) (*Source, error) {
	file, isPkg, ok := l.locate(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	info, err := os.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("pysrc: stat %s: %w", file, err)
	}
	text, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("pysrc: read %s: %w", file, err)
	}
	tree, err := ParsePython(text)
	if err != nil {
		return nil, fmt.Errorf("pysrc: parse %s: %w", file, err)
	}
	return &Source{
		Path:      path,
		FilePath:  file,
		IsPackage: isPkg,
		Text:      text,
		Tree:      tree,
		Mtime:     info.ModTime(),
	}, nil
}

// ParsePython parses Python source text. A fresh parser per call keeps
// concurrent loads safe.
func ParsePython(text []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return parser.ParseCtx(context.Background(), nil, text)
}
