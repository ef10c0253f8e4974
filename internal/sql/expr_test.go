package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpr_NumberInference(t *testing.T) {
	e, err := ParseExpr("42")
	require.NoError(t, err)
	assert.Equal(t, IntLit(42), e)

	e, err = ParseExpr("1.5")
	require.NoError(t, err)
	assert.Equal(t, FloatLit(1.5), e)

	// out of int32 range falls through to float
	e, err = ParseExpr("3000000000")
	require.NoError(t, err)
	assert.IsType(t, FloatLit(0), e)
}

func TestParseExpr_Keywords(t *testing.T) {
	e, err := ParseExpr("TRUE")
	require.NoError(t, err)
	assert.Equal(t, BoolLit(true), e)

	e, err = ParseExpr("false")
	require.NoError(t, err)
	assert.Equal(t, BoolLit(false), e)

	e, err = ParseExpr("NULL")
	require.NoError(t, err)
	assert.Equal(t, NullLit{}, e)

	e, err = ParseExpr("score")
	require.NoError(t, err)
	assert.Equal(t, &ColumnRef{Name: "score"}, e)
}

func TestParseExpr_StringEscape(t *testing.T) {
	e, err := ParseExpr("'it''s'")
	require.NoError(t, err)
	assert.Equal(t, StrLit("it's"), e)

	_, err = ParseExpr("'open")
	require.Error(t, err)
}

func TestParseExpr_Precedence(t *testing.T) {
	e, err := ParseExpr("1 + 2 * 3")
	require.NoError(t, err)

	add, ok := e.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpPlus, add.Op)
	assert.Equal(t, IntLit(1), add.Left)

	mul, ok := add.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpMul, mul.Op)
}

func TestParseExpr_Parens(t *testing.T) {
	e, err := ParseExpr("(1 + 2) * 3")
	require.NoError(t, err)

	mul := e.(*BinaryExpr)
	assert.Equal(t, OpMul, mul.Op)
	add := mul.Left.(*BinaryExpr)
	assert.Equal(t, OpPlus, add.Op)

	_, err = ParseExpr("(1 + 2")
	require.Error(t, err)
}

func TestParseExpr_Comparison(t *testing.T) {
	for text, op := range map[string]BinaryOp{
		"a = 1":  OpEq,
		"a < 1":  OpLt,
		"a > 1":  OpGt,
		"a <= 1": OpLtEq,
		"a >= 1": OpGtEq,
		"a != 1": OpNotEq,
		"a <> 1": OpNotEq,
	} {
		e, err := ParseExpr(text)
		require.NoError(t, err, text)
		b := e.(*BinaryExpr)
		assert.Equal(t, op, b.Op, text)
	}
}

func TestParseExpr_IsTrueFalse(t *testing.T) {
	e, err := ParseExpr("active IS TRUE")
	require.NoError(t, err)
	it, ok := e.(*IsTrueExpr)
	require.True(t, ok)
	assert.Equal(t, &ColumnRef{Name: "active"}, it.Inner)

	e, err = ParseExpr("active IS FALSE")
	require.NoError(t, err)
	assert.IsType(t, &IsFalseExpr{}, e)

	// IS NOT TRUE folds to IS FALSE
	e, err = ParseExpr("active IS NOT TRUE")
	require.NoError(t, err)
	assert.IsType(t, &IsFalseExpr{}, e)

	_, err = ParseExpr("active IS 1")
	require.Error(t, err)
}

func TestParseExpr_Unary(t *testing.T) {
	e, err := ParseExpr("NOT active")
	require.NoError(t, err)
	u := e.(*UnaryExpr)
	assert.Equal(t, UnaryNot, u.Op)

	e, err = ParseExpr("-score")
	require.NoError(t, err)
	u = e.(*UnaryExpr)
	assert.Equal(t, UnaryMinus, u.Op)
}

func TestParseExpr_TrailingInput(t *testing.T) {
	_, err := ParseExpr("1 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing input")
}
