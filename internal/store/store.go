// Package store persists collected object graphs to SQLite. One module
// row owns a flat set of object rows linked by parent id; parameter lists
// live in their own table, and merged docs are stored as JSON text.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for persisted object graphs.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS modules (
  id            INTEGER PRIMARY KEY,
  path          TEXT NOT NULL UNIQUE,
  file_path     TEXT,
  is_package    BOOLEAN DEFAULT FALSE,
  collected_at  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS objects (
  id            INTEGER PRIMARY KEY,
  module_id     INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
  parent_id     INTEGER REFERENCES objects(id) ON DELETE CASCADE,
  kind          TEXT NOT NULL,
  name          TEXT NOT NULL,
  qual          TEXT,
  full_name     TEXT NOT NULL UNIQUE,
  docstring     TEXT,
  doc_json      TEXT,
  returns       TEXT,
  type_expr     TEXT,
  default_expr  TEXT,
  bases_json    TEXT,
  decorators_json TEXT,
  ordinal       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS object_params (
  id            INTEGER PRIMARY KEY,
  object_id     INTEGER NOT NULL REFERENCES objects(id) ON DELETE CASCADE,
  ordinal       INTEGER NOT NULL,
  name          TEXT NOT NULL,
  annotation    TEXT,
  default_expr  TEXT
);

CREATE INDEX IF NOT EXISTS idx_objects_module ON objects(module_id);
CREATE INDEX IF NOT EXISTS idx_objects_parent ON objects(parent_id);
CREATE INDEX IF NOT EXISTS idx_params_object ON object_params(object_id);
`

// Module is one persisted module record.
type Module struct {
	ID          int64
	Path        string
	FilePath    string
	IsPackage   bool
	CollectedAt time.Time
}

// ObjectRow is one persisted graph node. JSON columns hold the merged doc
// and the string slices; ParentID is nil for the module root.
type ObjectRow struct {
	ID             int64
	ModuleID       int64
	ParentID       *int64
	Kind           string
	Name           string
	Qual           string
	FullName       string
	Docstring      string
	DocJSON        string
	Returns        string
	TypeExpr       string
	DefaultExpr    string
	BasesJSON      string
	DecoratorsJSON string
	Ordinal        int
}

// ParamRow is one parameter of a persisted function or class.
type ParamRow struct {
	ID          int64
	ObjectID    int64
	Ordinal     int
	Name        string
	Annotation  string
	DefaultExpr string
}

// ReplaceModule deletes any previous record for the module path and
// inserts a fresh one, returning its id.
func (s *Store) ReplaceModule(m *Module) (int64, error) {
	if err := s.DeleteModule(m.Path); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO modules (path, file_path, is_package, collected_at) VALUES (?, ?, ?, ?)`,
		m.Path, m.FilePath, m.IsPackage, m.CollectedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert module: %w", err)
	}
	return res.LastInsertId()
}

// DeleteModule removes a module and, via cascade, its objects and params.
func (s *Store) DeleteModule(path string) error {
	if _, err := s.db.Exec(`DELETE FROM modules WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}

// ModuleByPath returns the module record at a dotted path, or nil.
func (s *Store) ModuleByPath(path string) (*Module, error) {
	row := s.db.QueryRow(
		`SELECT id, path, file_path, is_package, collected_at FROM modules WHERE path = ?`, path,
	)
	var m Module
	err := row.Scan(&m.ID, &m.Path, &m.FilePath, &m.IsPackage, &m.CollectedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan module: %w", err)
	}
	return &m, nil
}

// InsertObject inserts one graph node and returns its id.
func (s *Store) InsertObject(o *ObjectRow) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO objects
		   (module_id, parent_id, kind, name, qual, full_name, docstring, doc_json,
		    returns, type_expr, default_expr, bases_json, decorators_json, ordinal)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ModuleID, o.ParentID, o.Kind, o.Name, o.Qual, o.FullName, o.Docstring, o.DocJSON,
		o.Returns, o.TypeExpr, o.DefaultExpr, o.BasesJSON, o.DecoratorsJSON, o.Ordinal,
	)
	if err != nil {
		return 0, fmt.Errorf("insert object: %w", err)
	}
	return res.LastInsertId()
}

// InsertParam inserts one parameter row.
func (s *Store) InsertParam(p *ParamRow) error {
	_, err := s.db.Exec(
		`INSERT INTO object_params (object_id, ordinal, name, annotation, default_expr)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ObjectID, p.Ordinal, p.Name, p.Annotation, p.DefaultExpr,
	)
	if err != nil {
		return fmt.Errorf("insert param: %w", err)
	}
	return nil
}

// ObjectsByModule returns a module's graph nodes ordered parent-first,
// siblings by ordinal.
func (s *Store) ObjectsByModule(moduleID int64) ([]ObjectRow, error) {
	rows, err := s.db.Query(
		`SELECT id, module_id, parent_id, kind, name, qual, full_name, docstring, doc_json,
		        returns, type_expr, default_expr, bases_json, decorators_json, ordinal
		 FROM objects WHERE module_id = ? ORDER BY id`, moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var out []ObjectRow
	for rows.Next() {
		var o ObjectRow
		if err := rows.Scan(
			&o.ID, &o.ModuleID, &o.ParentID, &o.Kind, &o.Name, &o.Qual, &o.FullName,
			&o.Docstring, &o.DocJSON, &o.Returns, &o.TypeExpr, &o.DefaultExpr,
			&o.BasesJSON, &o.DecoratorsJSON, &o.Ordinal,
		); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ObjectByFullName returns one graph node by its fullname, or nil.
func (s *Store) ObjectByFullName(full string) (*ObjectRow, error) {
	row := s.db.QueryRow(
		`SELECT id, module_id, parent_id, kind, name, qual, full_name, docstring, doc_json,
		        returns, type_expr, default_expr, bases_json, decorators_json, ordinal
		 FROM objects WHERE full_name = ?`, full,
	)
	var o ObjectRow
	err := row.Scan(
		&o.ID, &o.ModuleID, &o.ParentID, &o.Kind, &o.Name, &o.Qual, &o.FullName,
		&o.Docstring, &o.DocJSON, &o.Returns, &o.TypeExpr, &o.DefaultExpr,
		&o.BasesJSON, &o.DecoratorsJSON, &o.Ordinal,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan object: %w", err)
	}
	return &o, nil
}

// ParamsByObject returns a node's parameters in declaration order.
func (s *Store) ParamsByObject(objectID int64) ([]ParamRow, error) {
	rows, err := s.db.Query(
		`SELECT id, object_id, ordinal, name, annotation, default_expr
		 FROM object_params WHERE object_id = ? ORDER BY ordinal`, objectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query params: %w", err)
	}
	defer rows.Close()

	var out []ParamRow
	for rows.Next() {
		var p ParamRow
		if err := rows.Scan(&p.ID, &p.ObjectID, &p.Ordinal, &p.Name, &p.Annotation, &p.DefaultExpr); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ModulePaths returns the dotted paths of all persisted modules.
func (s *Store) ModulePaths() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM modules ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
