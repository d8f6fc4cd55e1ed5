package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestReplaceModuleCascades(t *testing.T) {
	s := newTestStore(t)

	id, err := s.ReplaceModule(&Module{Path: "pets", CollectedAt: time.Now()})
	require.NoError(t, err)

	objID, err := s.InsertObject(&ObjectRow{
		ModuleID: id, Kind: "module", Name: "pets", FullName: "pets",
	})
	require.NoError(t, err)
	require.NoError(t, s.InsertParam(&ParamRow{ObjectID: objID, Name: "x"}))

	// Replacing drops the old rows through the cascade. SQLite may hand
	// the replacement the same rowid, so the check is on the rows, not
	// the ids.
	id2, err := s.ReplaceModule(&Module{Path: "pets", CollectedAt: time.Now()})
	require.NoError(t, err)

	rows, err := s.ObjectsByModule(id2)
	require.NoError(t, err)
	assert.Empty(t, rows)

	params, err := s.ParamsByObject(objID)
	require.NoError(t, err)
	assert.Empty(t, params)

	old, err := s.ObjectByFullName("pets")
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestObjectAndParamRoundTrip(t *testing.T) {
	s := newTestStore(t)

	modID, err := s.ReplaceModule(&Module{Path: "m", CollectedAt: time.Now()})
	require.NoError(t, err)

	rootID, err := s.InsertObject(&ObjectRow{
		ModuleID: modID, Kind: "module", Name: "m", FullName: "m",
	})
	require.NoError(t, err)

	childID, err := s.InsertObject(&ObjectRow{
		ModuleID: modID, ParentID: &rootID, Kind: "function", Name: "f",
		Qual: "f", FullName: "m.f", Returns: "int", Ordinal: 0,
		DocJSON: `{"name":"f"}`,
	})
	require.NoError(t, err)
	require.NoError(t, s.InsertParam(&ParamRow{
		ObjectID: childID, Ordinal: 0, Name: "x", Annotation: "int", DefaultExpr: "1",
	}))

	rows, err := s.ObjectsByModule(modID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].ParentID)
	require.NotNil(t, rows[1].ParentID)
	assert.Equal(t, rootID, *rows[1].ParentID)
	assert.Equal(t, "int", rows[1].Returns)

	params, err := s.ParamsByObject(childID)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "x", params[0].Name)
	assert.Equal(t, "1", params[0].DefaultExpr)

	obj, err := s.ObjectByFullName("m.f")
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, `{"name":"f"}`, obj.DocJSON)
}

func TestModulePaths(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ReplaceModule(&Module{Path: "b", CollectedAt: time.Now()})
	require.NoError(t, err)
	_, err = s.ReplaceModule(&Module{Path: "a", CollectedAt: time.Now()})
	require.NoError(t, err)

	paths, err := s.ModulePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, paths)
}

func TestModuleByPathMissing(t *testing.T) {
	s := newTestStore(t)

	m, err := s.ModuleByPath("ghost")
	require.NoError(t, err)
	assert.Nil(t, m)
}
