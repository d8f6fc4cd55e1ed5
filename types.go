package lattice

import (
	"github.com/mkelly/lattice/internal/docstring"
	"github.com/mkelly/lattice/internal/pyast"
	"github.com/mkelly/lattice/internal/pysrc"
	"github.com/mkelly/lattice/internal/resolve"
	"github.com/mkelly/lattice/internal/script"
)

// Public type aliases for internal types that appear in the Engine API.
// These are Go type aliases (=) — identical to the internal types at
// compile time, so no conversion is needed on either side.

type Doc = docstring.Doc
type Section = docstring.Section
type Item = docstring.Item

type Param = pyast.Param
type ModuleIndex = pyast.ModuleIndex

type Loader = pysrc.Loader
type DirLoader = pysrc.DirLoader
type Source = pysrc.Source

type ExportListProvider = resolve.ExportListProvider
type ScriptProvider = script.Provider

// ErrModuleNotFound reports that no loadable module exists at a dotted
// path. Returned (wrapped) by loaders; comparable with errors.Is.
var ErrModuleNotFound = pysrc.ErrNotFound

// NewDirLoader creates a loader resolving dotted paths against the given
// search roots.
func NewDirLoader(roots ...string) *DirLoader {
	return pysrc.NewDirLoader(roots...)
}

// NewScriptProvider creates an export-list provider from Risor source.
func NewScriptProvider(source string) *ScriptProvider {
	return script.NewProvider(source)
}

// LoadScriptProvider reads an export-list provider script from disk.
func LoadScriptProvider(path string) (*ScriptProvider, error) {
	return script.LoadProvider(path)
}
