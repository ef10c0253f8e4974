package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/sockdb"
	"github.com/tuannm99/sockdb/internal/sql"
	"github.com/tuannm99/sockdb/internal/store"
)

func scoresTable(t *testing.T) *store.Table {
	t.Helper()
	tbl, err := store.NewTable("SCORES", []sql.ColumnDef{
		{Name: "id", Type: sockdb.TypeInt, PrimaryKey: true},
		{Name: "score", Type: sockdb.TypeInt, Nullable: true},
		{Name: "name", Type: sockdb.TypeStr, Nullable: true},
		{Name: "active", Type: sockdb.TypeBool, Nullable: true},
	})
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(nil, [][]sql.Expr{
		{sql.IntLit(1), sql.IntLit(1), sql.StrLit("a"), sql.BoolLit(true)},
		{sql.IntLit(2), sql.IntLit(2), sql.StrLit("b"), sql.BoolLit(false)},
		{sql.IntLit(3), sql.IntLit(5), sql.StrLit("c"), sql.BoolLit(true)},
	}))
	return tbl
}

func mustParse(t *testing.T, text string) sql.Expr {
	t.Helper()
	e, err := sql.ParseExpr(text)
	require.NoError(t, err)
	return e
}

func TestEval_NullLiteralYieldsNoColumns(t *testing.T) {
	cols, err := Eval(nil, sql.NullLit{})
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestEval_Literal(t *testing.T) {
	cols, err := Eval(nil, sql.IntLit(7))
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "?column?", cols[0].Name)
	assert.Equal(t, store.Int32Data{0: 7}, cols[0].Data)
}

func TestEval_IdentifierRequiresTable(t *testing.T) {
	_, err := Eval(nil, &sql.ColumnRef{Name: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrEvaluation)

	_, err = Eval(nil, &sql.Wildcard{})
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrEvaluation)
}

func TestEval_ColumnRef(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "score"))
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "score", cols[0].Name)
	assert.Equal(t, store.Int32Data{1: 1, 2: 2, 3: 5}, cols[0].Data)

	_, err = Eval(tbl, &sql.ColumnRef{Name: "missing"})
	assert.ErrorIs(t, err, sockdb.ErrColumnNotFound)
}

func TestEval_ColumnRefDataIsDetached(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "score"))
	require.NoError(t, err)

	cols[0].Data.(store.Int32Data)[1] = 99
	assert.Equal(t, int32(1), tbl.ColFromName("score").Data.(store.Int32Data)[1])
}

func TestEval_Wildcard(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, &sql.Wildcard{})
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "score", cols[1].Name)
}

func TestEval_NoPredicateSentinel(t *testing.T) {
	_, err := Eval(nil, &sql.NoPredicate{})
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidOperation)
}

func TestEval_IsTrueFiltersRows(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "active IS TRUE"))
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, store.BoolData{1: true, 3: true}, cols[0].Data)

	cols, err = Eval(tbl, mustParse(t, "active IS FALSE"))
	require.NoError(t, err)
	assert.Equal(t, store.BoolData{2: false}, cols[0].Data)
}

func TestEval_IsTrueOnNonBool(t *testing.T) {
	tbl := scoresTable(t)

	_, err := Eval(tbl, mustParse(t, "score IS TRUE"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidOperation)
}

func TestEval_UnaryNot(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "NOT active"))
	require.NoError(t, err)
	assert.Equal(t, store.BoolData{1: false, 2: true, 3: false}, cols[0].Data)

	_, err = Eval(tbl, mustParse(t, "NOT score"))
	assert.ErrorIs(t, err, sockdb.ErrUnsupported)
}

func TestEval_UnaryMinus(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "-score"))
	require.NoError(t, err)
	assert.Equal(t, store.Int32Data{1: -1, 2: -2, 3: -5}, cols[0].Data)

	_, err = Eval(tbl, mustParse(t, "-name"))
	assert.ErrorIs(t, err, sockdb.ErrUnsupported)
}

func TestEval_UnaryPlusPassthrough(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "+score"))
	require.NoError(t, err)
	assert.Equal(t, store.Int32Data{1: 1, 2: 2, 3: 5}, cols[0].Data)
}

func TestEval_ArithmeticIntersectsRows(t *testing.T) {
	tbl := scoresTable(t)
	// row 4 has a score but no id cell
	require.NoError(t, tbl.Insert([]string{"score"}, [][]sql.Expr{{sql.IntLit(9)}}))

	cols, err := Eval(tbl, mustParse(t, "id + score"))
	require.NoError(t, err)
	assert.Equal(t, store.Int32Data{1: 2, 2: 4, 3: 8}, cols[0].Data)
	assert.Equal(t, "id", cols[0].Name)
}

func TestEval_DivisionByZero(t *testing.T) {
	_, err := Eval(nil, mustParse(t, "1 / 0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidQuery)

	_, err = Eval(nil, mustParse(t, "1 % 0"))
	require.Error(t, err)
}

func TestEval_LiteralArithmetic(t *testing.T) {
	cols, err := Eval(nil, mustParse(t, "2 + 3 * 4"))
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, store.Int32Data{0: 14}, cols[0].Data)
}

func TestEval_BroadcastComparison(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "score > 1"))
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "score", cols[0].Name)
	assert.Equal(t, store.BoolData{1: false, 2: true, 3: true}, cols[0].Data)
}

func TestEval_ComparisonOperators(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "score >= 2"))
	require.NoError(t, err)
	assert.Equal(t, store.BoolData{1: false, 2: true, 3: true}, cols[0].Data)

	cols, err = Eval(tbl, mustParse(t, "score != 2"))
	require.NoError(t, err)
	assert.Equal(t, store.BoolData{1: true, 2: false, 3: true}, cols[0].Data)
}

func TestEval_StringEquality(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "name = 'b'"))
	require.NoError(t, err)
	assert.Equal(t, store.BoolData{1: false, 2: true, 3: false}, cols[0].Data)

	_, err = Eval(tbl, mustParse(t, "name < 'b'"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidQuery)
}

func TestEval_StringConcat(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "name + name"))
	require.NoError(t, err)
	assert.Equal(t, store.StringData{1: "aa", 2: "bb", 3: "cc"}, cols[0].Data)
}

func TestEval_TypeMismatch(t *testing.T) {
	tbl := scoresTable(t)

	_, err := Eval(tbl, mustParse(t, "score + name"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidQuery)

	_, err = Eval(tbl, mustParse(t, "score = 'x'"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sockdb.ErrInvalidQuery)
}

func TestEval_BoolComparison(t *testing.T) {
	tbl := scoresTable(t)

	cols, err := Eval(tbl, mustParse(t, "active = TRUE"))
	require.NoError(t, err)
	assert.Equal(t, store.BoolData{1: true, 2: false, 3: true}, cols[0].Data)
}
