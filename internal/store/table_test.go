package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/sockdb"
	"github.com/tuannm99/sockdb/internal/sql"
)

func usersDefs() []sql.ColumnDef {
	return []sql.ColumnDef{
		{Name: "id", Type: sockdb.TypeInt, PrimaryKey: true},
		{Name: "name", Type: sockdb.TypeStr, Nullable: true},
	}
}

func newUsers(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable("USERS", usersDefs())
	require.NoError(t, err)
	return tbl
}

func TestNewTable_RequiresPrimaryKey(t *testing.T) {
	_, err := NewTable("T", []sql.ColumnDef{
		{Name: "a", Type: sockdb.TypeInt, Nullable: true},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidQuery)
}

func TestNewTable_RequiresColumns(t *testing.T) {
	_, err := NewTable("T", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidQuery)
}

func TestTable_InsertAssignsConsecutiveIDs(t *testing.T) {
	tbl := newUsers(t)

	err := tbl.Insert(nil, [][]sql.Expr{
		{sql.IntLit(10), sql.StrLit("a")},
		{sql.IntLit(20), sql.StrLit("b")},
	})
	require.NoError(t, err)

	ids := tbl.ColFromName("id")
	assert.Equal(t, []RowID{1, 2}, ids.Data.RowIDs())

	row, ok := tbl.PK.Value(PKValue{Kind: sockdb.TypeInt, Int: 20})
	require.True(t, ok)
	assert.Equal(t, RowID(2), row)
}

func TestTable_InsertNullSkipsCell(t *testing.T) {
	tbl := newUsers(t)

	err := tbl.Insert(nil, [][]sql.Expr{{sql.IntLit(1), sql.NullLit{}}})
	require.NoError(t, err)

	name := tbl.ColFromName("name")
	assert.False(t, name.Data.Has(1), "NULL must leave no cell behind")
	assert.True(t, tbl.ColFromName("id").Data.Has(1))
}

func TestTable_InsertNullIntoNotNull(t *testing.T) {
	tbl := newUsers(t)

	err := tbl.Insert(nil, [][]sql.Expr{{sql.NullLit{}, sql.StrLit("a")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidQuery)
}

func TestTable_InsertTypeMismatch(t *testing.T) {
	tbl := newUsers(t)

	err := tbl.Insert(nil, [][]sql.Expr{{sql.StrLit("oops"), sql.StrLit("a")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidQuery)
}

func TestTable_InsertUnknownColumn(t *testing.T) {
	tbl := newUsers(t)

	err := tbl.Insert([]string{"id", "nope"}, [][]sql.Expr{{sql.IntLit(1), sql.StrLit("a")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrColumnNotFound)
}

func TestTable_InsertColumnSubset(t *testing.T) {
	tbl := newUsers(t)

	err := tbl.Insert([]string{"ID"}, [][]sql.Expr{{sql.IntLit(7)}})
	require.NoError(t, err)

	assert.True(t, tbl.ColFromName("id").Data.Has(1))
	assert.False(t, tbl.ColFromName("name").Data.Has(1))
}

func TestTable_RowIDsNeverReused(t *testing.T) {
	tbl := newUsers(t)

	require.NoError(t, tbl.Insert(nil, [][]sql.Expr{
		{sql.IntLit(1), sql.StrLit("a")},
		{sql.IntLit(2), sql.StrLit("b")},
	}))

	tbl.Delete([]RowID{2})
	assert.Equal(t, RowID(3), tbl.NextRowID(), "deleted id stays burned")

	require.NoError(t, tbl.Insert(nil, [][]sql.Expr{{sql.IntLit(3), sql.StrLit("c")}}))
	assert.Equal(t, []RowID{1, 3}, tbl.ColFromName("id").Data.RowIDs())
}

func TestTable_TruncateKeepsWatermark(t *testing.T) {
	tbl := newUsers(t)

	require.NoError(t, tbl.Insert(nil, [][]sql.Expr{
		{sql.IntLit(1), sql.StrLit("a")},
		{sql.IntLit(2), sql.StrLit("b")},
	}))

	tbl.Truncate()
	assert.Equal(t, 0, tbl.ColFromName("id").Data.Len())
	assert.Equal(t, 0, tbl.PK.Len())
	assert.Equal(t, RowID(3), tbl.NextRowID())
}

func TestTable_UpdateRejectsPrimaryKey(t *testing.T) {
	tbl := newUsers(t)
	require.NoError(t, tbl.Insert(nil, [][]sql.Expr{{sql.IntLit(1), sql.StrLit("a")}}))

	err := tbl.Update([]sql.Assignment{{Column: "id", Value: sql.IntLit(9)}}, []RowID{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidOperation)
}

func TestTable_UpdateWritesCells(t *testing.T) {
	tbl := newUsers(t)
	require.NoError(t, tbl.Insert(nil, [][]sql.Expr{
		{sql.IntLit(1), sql.StrLit("a")},
		{sql.IntLit(2), sql.StrLit("b")},
	}))

	err := tbl.Update([]sql.Assignment{{Column: "name", Value: sql.StrLit("z")}}, []RowID{1, 2})
	require.NoError(t, err)

	name := tbl.ColFromName("name").Data.(StringData)
	assert.Equal(t, "z", name[1])
	assert.Equal(t, "z", name[2])
}

func TestTable_UpdateNullDeletesCells(t *testing.T) {
	tbl := newUsers(t)
	require.NoError(t, tbl.Insert(nil, [][]sql.Expr{{sql.IntLit(1), sql.StrLit("a")}}))

	err := tbl.Update([]sql.Assignment{{Column: "name", Value: sql.NullLit{}}}, []RowID{1})
	require.NoError(t, err)
	assert.False(t, tbl.ColFromName("name").Data.Has(1))
}

func TestTable_DeleteClearsPKIndex(t *testing.T) {
	tbl := newUsers(t)
	require.NoError(t, tbl.Insert(nil, [][]sql.Expr{{sql.IntLit(5), sql.StrLit("a")}}))

	tbl.Delete([]RowID{1})
	_, ok := tbl.PK.Value(PKValue{Kind: sockdb.TypeInt, Int: 5})
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.ColFromName("id").Data.Len())
}

func TestTable_ColFromNameCaseInsensitive(t *testing.T) {
	tbl := newUsers(t)
	require.NotNil(t, tbl.ColFromName("NAME"))
	require.NotNil(t, tbl.ColFromName("Name"))
	assert.Nil(t, tbl.ColFromName("missing"))
}
