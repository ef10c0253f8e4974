package store

import (
	"fmt"
	"strings"

	"github.com/tuannm99/sockdb"
	"github.com/tuannm99/sockdb/internal/sql"
)

// ColumnHeader is the declared shape of one column. LastRowID is the largest
// id ever assigned to this column; it survives truncate and delete so row ids
// are never reused.
type ColumnHeader struct {
	Name       string
	Type       sockdb.DataType
	Nullable   bool
	PrimaryKey bool
	Hidden     bool
	LastRowID  RowID
}

type Column struct {
	Header ColumnHeader
	Data   ColumnData
}

// PKValue is a primary-key value usable as a map key. Only int and string
// primary keys are indexed, matching the declared PK column types the engine
// accepts into the index.
type PKValue struct {
	Kind sockdb.DataType
	Int  int32
	Str  string
}

func pkValue(lit sql.Literal) (PKValue, bool) {
	switch v := lit.(type) {
	case sql.IntLit:
		return PKValue{Kind: sockdb.TypeInt, Int: int32(v)}, true
	case sql.StrLit:
		return PKValue{Kind: sockdb.TypeStr, Str: string(v)}, true
	default:
		return PKValue{}, false
	}
}

// Table is sparse, typed, columnar row storage with a primary-key index.
type Table struct {
	Name    string
	Columns []*Column
	PK      *Bimap[PKValue, RowID]
}

// NewTable builds one ColumnData per definition. At least one column must be
// marked primary key; otherwise construction fails.
func NewTable(name string, defs []sql.ColumnDef) (*Table, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: table %q has no columns", sockdb.ErrInvalidQuery, name)
	}

	t := &Table{
		Name: name,
		PK:   NewBimap[PKValue, RowID](),
	}

	hasPK := false
	for _, def := range defs {
		data, err := NewColumnData(def.Type)
		if err != nil {
			return nil, err
		}
		nullable := def.Nullable
		if def.PrimaryKey {
			hasPK = true
			nullable = false
		}
		t.Columns = append(t.Columns, &Column{
			Header: ColumnHeader{
				Name:       def.Name,
				Type:       def.Type,
				Nullable:   nullable,
				PrimaryKey: def.PrimaryKey,
			},
			Data: data,
		})
	}

	if !hasPK {
		return nil, fmt.Errorf("%w: cannot create table %q with no primary key", sockdb.ErrInvalidQuery, name)
	}

	return t, nil
}

// Truncate clears every column's data and the PK index. The id watermark is
// untouched: subsequent inserts keep allocating fresh ids.
func (t *Table) Truncate() {
	for _, c := range t.Columns {
		c.Data.Truncate()
	}
	t.PK.Clear()
}

// ColFromName resolves a column case-insensitively, nil when absent.
func (t *Table) ColFromName(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Header.Name, name) {
			return c
		}
	}
	return nil
}

// NextRowID is the table's allocation watermark: 1 + the largest id ever
// assigned to any column.
func (t *Table) NextRowID() RowID {
	var max RowID
	for _, c := range t.Columns {
		if c.Header.LastRowID > max {
			max = c.Header.LastRowID
		}
	}
	return max + 1
}

// Insert writes literal rows. An empty columns list targets all declared
// columns in definition order. Rows get consecutive fresh ids starting at the
// watermark. A failure partway leaves previously written cells in place
// (no rollback).
func (t *Table) Insert(columns []string, rows [][]sql.Expr) error {
	var target []*Column
	if len(columns) == 0 {
		target = t.Columns
	} else {
		for _, name := range columns {
			col := t.ColFromName(name)
			if col == nil {
				return &sockdb.ColumnNotFoundError{Column: name, Table: t.Name}
			}
			target = append(target, col)
		}
	}

	id := t.NextRowID()
	for _, row := range rows {
		if len(row) != len(target) {
			return fmt.Errorf("%w: %d values for %d columns", sockdb.ErrInvalidQuery, len(row), len(target))
		}
		for i, expr := range row {
			col := target[i]
			lit, ok := expr.(sql.Literal)
			if !ok {
				return fmt.Errorf("%w: non-literal INSERT value", sockdb.ErrUnsupported)
			}
			if _, isNull := lit.(sql.NullLit); isNull {
				if !col.Header.Nullable {
					return fmt.Errorf("%w: column %q is NOT NULL", sockdb.ErrInvalidQuery, col.Header.Name)
				}
				continue
			}
			if err := SetLiteral(col.Data, id, lit); err != nil {
				return fmt.Errorf("column %q: %w", col.Header.Name, err)
			}
			col.Header.LastRowID = id
			if col.Header.PrimaryKey {
				if pk, ok := pkValue(lit); ok {
					t.PK.Put(pk, id)
				}
			}
		}
		id++
	}

	return nil
}

// Update overwrites the assigned columns at the given ids. Assigning the
// primary key is rejected: it is immutable after creation.
func (t *Table) Update(assigns []sql.Assignment, ids []RowID) error {
	for _, a := range assigns {
		col := t.ColFromName(a.Column)
		if col == nil {
			return &sockdb.ColumnNotFoundError{Column: a.Column, Table: t.Name}
		}
		if col.Header.PrimaryKey {
			return fmt.Errorf("%w: cannot update primary key column %q", sockdb.ErrInvalidOperation, col.Header.Name)
		}
		lit, ok := a.Value.(sql.Literal)
		if !ok {
			return fmt.Errorf("%w: non-literal UPDATE value", sockdb.ErrUnsupported)
		}
		if _, isNull := lit.(sql.NullLit); isNull {
			if !col.Header.Nullable {
				return fmt.Errorf("%w: column %q is NOT NULL", sockdb.ErrInvalidQuery, col.Header.Name)
			}
			for _, id := range ids {
				col.Data.Delete(id)
			}
			continue
		}
		for _, id := range ids {
			if err := SetLiteral(col.Data, id, lit); err != nil {
				return fmt.Errorf("column %q: %w", col.Header.Name, err)
			}
		}
	}
	return nil
}

// Delete removes the given ids from every column and from the PK index.
func (t *Table) Delete(ids []RowID) {
	for _, id := range ids {
		for _, c := range t.Columns {
			c.Data.Delete(id)
		}
		t.PK.DeleteValue(id)
	}
}
