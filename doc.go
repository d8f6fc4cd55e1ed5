// Package lattice builds documentation object graphs from Python source
// trees. It parses modules with tree-sitter, resolves names through import
// and re-export chains, flattens inheritance, and merges structured
// docstrings with signature data extracted from the syntax tree.
//
// # Pipeline
//
// Collection runs in four stages, all memoized per module:
//
//  1. Load: resolve a dotted path to a source file, parse it, and cache
//     the tree. Entries revalidate against the file's mtime; misses are
//     negatively cached.
//
//  2. Index: flatten the module's top-level statements into raw nodes:
//     definitions, assignments, and an import table with relative imports
//     rewritten to absolute targets.
//
//  3. Build: construct the object graph. Classes resolve their bases and
//     cross-link inherited members; constructors contribute instance
//     attributes and parameter lists.
//
//  4. Document: parse each object's docstring (colon or underline style,
//     auto-detected), merge in signature data, and rewrite bracketed name
//     references into resolved cross-reference tokens.
//
// # Usage
//
// Create an Engine over one or more search roots and collect:
//
//	e := lattice.Open("src")
//	obj, err := e.Collect("pets.Dog")
//	if err != nil { ... }
//	data, _ := json.Marshal(obj)
//
// [Engine.Resolve] exposes bare name resolution, and [Engine.CollectAll]
// collects many objects with parallel parsing.
//
// # Dynamic export lists
//
// A wildcard import is expanded through the target module's declared
// __all__ list. When a module computes its export list dynamically, hosts
// may supply a Risor script via [WithExportProvider] that yields the
// public names for a module path; without one, such wildcard imports stay
// unresolved.
package lattice
