package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/sockdb/internal/eval"
	"github.com/tuannm99/sockdb/internal/store"
)

func TestNewView_RowMajor(t *testing.T) {
	v := NewView([]eval.OutColumn{
		{Name: "id", Data: store.Int32Data{1: 1, 2: 2}},
		{Name: "name", Data: store.StringData{1: "a", 2: "b"}},
	})

	assert.Equal(t, []string{"id", "name"}, v.Columns)
	assert.Equal(t, [][]string{{"1", "a"}, {"2", "b"}}, v.Rows)
}

func TestNewView_DropsAllEmptyRows(t *testing.T) {
	v := NewView([]eval.OutColumn{
		{Name: "id", Data: store.Int32Data{1: 1, 5: 5}},
	})

	// ids 0, 2, 3, 4 render nothing and are dropped
	assert.Equal(t, [][]string{{"1"}, {"5"}}, v.Rows)
}

func TestNewView_SparseCellsRenderEmpty(t *testing.T) {
	v := NewView([]eval.OutColumn{
		{Name: "id", Data: store.Int32Data{1: 1, 2: 2}},
		{Name: "name", Data: store.StringData{1: "a"}},
	})

	assert.Equal(t, [][]string{{"1", "a"}, {"2", ""}}, v.Rows)
}

func TestNewView_NoColumns(t *testing.T) {
	v := NewView(nil)
	assert.Empty(t, v.Columns)
	assert.Empty(t, v.Rows)
}

func TestView_String(t *testing.T) {
	v := NewView([]eval.OutColumn{
		{Name: "id", Data: store.Int32Data{1: 1, 2: 10}},
		{Name: "name", Data: store.StringData{1: "a", 2: "bb"}},
	})

	want := "" +
		"id | name\n" +
		"---+-----\n" +
		"1  | a   \n" +
		"10 | bb  \n"
	require.Equal(t, want, v.String())
}

func TestView_StringNoColumns(t *testing.T) {
	v := &View{}
	assert.Equal(t, "(no columns)\n", v.String())
}
