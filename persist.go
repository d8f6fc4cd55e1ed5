package lattice

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkelly/lattice/internal/docstring"
	"github.com/mkelly/lattice/internal/pyast"
	"github.com/mkelly/lattice/internal/store"
)

// Store re-exports the SQLite persistence layer.
type Store = store.Store

// OpenStore opens (and migrates) a graph database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("lattice: open store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("lattice: migrate: %w", err)
	}
	return s, nil
}

// SaveModule persists a collected module graph, replacing any previous
// snapshot of the same module. Only owned members are written; inherited
// cross-links are reconstructible from the bases columns.
func SaveModule(s *Store, mod *Object) error {
	if mod.Kind != KindModule {
		return fmt.Errorf("lattice: save: %q is not a module", mod.FullName)
	}
	moduleID, err := s.ReplaceModule(&store.Module{
		Path:        mod.Module,
		CollectedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("lattice: save %s: %w", mod.Module, err)
	}
	return saveObject(s, mod, moduleID, nil, 0)
}

func saveObject(s *Store, obj *Object, moduleID int64, parentID *int64, ordinal int) error {
	row := &store.ObjectRow{
		ModuleID:    moduleID,
		ParentID:    parentID,
		Kind:        string(obj.Kind),
		Name:        obj.Name,
		Qual:        obj.Qual,
		FullName:    obj.FullName,
		Docstring:   obj.Docstring,
		Returns:     obj.Returns,
		TypeExpr:    obj.TypeAnn,
		DefaultExpr: obj.Default,
		Ordinal:     ordinal,
	}
	var err error
	if row.DocJSON, err = marshalOrEmpty(obj.Doc); err != nil {
		return fmt.Errorf("lattice: save %s: doc: %w", obj.FullName, err)
	}
	if row.BasesJSON, err = marshalOrEmpty(obj.Bases); err != nil {
		return fmt.Errorf("lattice: save %s: bases: %w", obj.FullName, err)
	}
	if row.DecoratorsJSON, err = marshalOrEmpty(obj.Decorators); err != nil {
		return fmt.Errorf("lattice: save %s: decorators: %w", obj.FullName, err)
	}

	id, err := s.InsertObject(row)
	if err != nil {
		return fmt.Errorf("lattice: save %s: %w", obj.FullName, err)
	}
	for i, p := range obj.Params {
		if err := s.InsertParam(&store.ParamRow{
			ObjectID:    id,
			Ordinal:     i,
			Name:        p.Name,
			Annotation:  p.Annotation,
			DefaultExpr: p.Default,
		}); err != nil {
			return fmt.Errorf("lattice: save %s: %w", obj.FullName, err)
		}
	}

	i := 0
	for _, c := range obj.Children() {
		if c.Parent() != obj {
			continue
		}
		if err := saveObject(s, c, moduleID, &id, i); err != nil {
			return err
		}
		i++
	}
	return nil
}

func marshalOrEmpty(v any) (string, error) {
	switch x := v.(type) {
	case *docstring.Doc:
		if x == nil {
			return "", nil
		}
	case []string:
		if len(x) == 0 {
			return "", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LoadModule reads a persisted module graph back into objects. Inherited
// cross-links are not restored; collect through an Engine when flattened
// views are needed.
func LoadModule(s *Store, path string) (*Object, error) {
	m, err := s.ModuleByPath(path)
	if err != nil {
		return nil, fmt.Errorf("lattice: load %s: %w", path, err)
	}
	if m == nil {
		return nil, fmt.Errorf("lattice: load %s: %w", path, ErrModuleNotFound)
	}
	rows, err := s.ObjectsByModule(m.ID)
	if err != nil {
		return nil, fmt.Errorf("lattice: load %s: %w", path, err)
	}

	byID := make(map[int64]*Object, len(rows))
	var root *Object
	for _, row := range rows {
		obj, err := objectFromRow(s, row)
		if err != nil {
			return nil, fmt.Errorf("lattice: load %s: %w", path, err)
		}
		byID[row.ID] = obj
		if row.ParentID == nil {
			root = obj
			continue
		}
		parent, ok := byID[*row.ParentID]
		if !ok {
			return nil, fmt.Errorf("lattice: load %s: orphaned object %s", path, row.FullName)
		}
		parent.adopt(obj)
	}
	if root == nil {
		return nil, fmt.Errorf("lattice: load %s: no root object", path)
	}
	return root, nil
}

func objectFromRow(s *Store, row store.ObjectRow) (*Object, error) {
	obj := &Object{
		Kind:      ObjectKind(row.Kind),
		Name:      row.Name,
		Qual:      row.Qual,
		FullName:  row.FullName,
		Module:    "",
		Docstring: row.Docstring,
		Returns:   row.Returns,
		TypeAnn:   row.TypeExpr,
		Default:   row.DefaultExpr,
	}
	if i := len(row.FullName) - len(row.Qual) - 1; row.Qual != "" && i > 0 {
		obj.Module = row.FullName[:i]
	} else if row.Qual == "" {
		obj.Module = row.FullName
	}
	if row.DocJSON != "" {
		var doc docstring.Doc
		if err := json.Unmarshal([]byte(row.DocJSON), &doc); err != nil {
			return nil, fmt.Errorf("doc for %s: %w", row.FullName, err)
		}
		obj.Doc = &doc
	}
	if row.BasesJSON != "" {
		if err := json.Unmarshal([]byte(row.BasesJSON), &obj.Bases); err != nil {
			return nil, fmt.Errorf("bases for %s: %w", row.FullName, err)
		}
	}
	if row.DecoratorsJSON != "" {
		if err := json.Unmarshal([]byte(row.DecoratorsJSON), &obj.Decorators); err != nil {
			return nil, fmt.Errorf("decorators for %s: %w", row.FullName, err)
		}
	}
	params, err := s.ParamsByObject(row.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		obj.Params = append(obj.Params, pyast.Param{
			Name:       p.Name,
			Annotation: p.Annotation,
			Default:    p.DefaultExpr,
		})
	}
	return obj, nil
}
