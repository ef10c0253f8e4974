package store

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/tuannm99/sockdb"
	"github.com/tuannm99/sockdb/internal/sql"
)

// RowID identifies a logical row within a table. Allocation is monotonically
// increasing per table and ids are never reused.
type RowID int64

// ColumnData is the closed union of per-column sparse storage. A RowID absent
// from the map means the cell holds no value for that row.
type ColumnData interface {
	Type() sockdb.DataType
	Len() int
	// MaxRowID is the column's largest stored id, 0 when empty.
	MaxRowID() RowID
	// RowIDs returns the stored ids in ascending order.
	RowIDs() []RowID
	Has(id RowID) bool
	// Render returns the cell's string form; false when the cell is absent.
	Render(id RowID) (string, bool)
	Truncate()
	Delete(id RowID)
	Clone() ColumnData
	Filter(keep func(RowID) bool) ColumnData

	colData()
}

type Int32Data map[RowID]int32
type StringData map[RowID]string
type Float32Data map[RowID]float32
type Float64Data map[RowID]float64
type BoolData map[RowID]bool

func (Int32Data) colData()   {}
func (StringData) colData()  {}
func (Float32Data) colData() {}
func (Float64Data) colData() {}
func (BoolData) colData()    {}

func (Int32Data) Type() sockdb.DataType   { return sockdb.TypeInt }
func (StringData) Type() sockdb.DataType  { return sockdb.TypeStr }
func (Float32Data) Type() sockdb.DataType { return sockdb.TypeFloat }
func (Float64Data) Type() sockdb.DataType { return sockdb.TypeDouble }
func (BoolData) Type() sockdb.DataType    { return sockdb.TypeBool }

func (d Int32Data) Len() int   { return len(d) }
func (d StringData) Len() int  { return len(d) }
func (d Float32Data) Len() int { return len(d) }
func (d Float64Data) Len() int { return len(d) }
func (d BoolData) Len() int    { return len(d) }

func (d Int32Data) MaxRowID() RowID   { return maxRowID(d) }
func (d StringData) MaxRowID() RowID  { return maxRowID(d) }
func (d Float32Data) MaxRowID() RowID { return maxRowID(d) }
func (d Float64Data) MaxRowID() RowID { return maxRowID(d) }
func (d BoolData) MaxRowID() RowID    { return maxRowID(d) }

func (d Int32Data) RowIDs() []RowID   { return sortedIDs(d) }
func (d StringData) RowIDs() []RowID  { return sortedIDs(d) }
func (d Float32Data) RowIDs() []RowID { return sortedIDs(d) }
func (d Float64Data) RowIDs() []RowID { return sortedIDs(d) }
func (d BoolData) RowIDs() []RowID    { return sortedIDs(d) }

func (d Int32Data) Has(id RowID) bool   { _, ok := d[id]; return ok }
func (d StringData) Has(id RowID) bool  { _, ok := d[id]; return ok }
func (d Float32Data) Has(id RowID) bool { _, ok := d[id]; return ok }
func (d Float64Data) Has(id RowID) bool { _, ok := d[id]; return ok }
func (d BoolData) Has(id RowID) bool    { _, ok := d[id]; return ok }

func (d Int32Data) Render(id RowID) (string, bool) {
	v, ok := d[id]
	if !ok {
		return "", false
	}
	return strconv.FormatInt(int64(v), 10), true
}

func (d StringData) Render(id RowID) (string, bool) {
	v, ok := d[id]
	return v, ok
}

func (d Float32Data) Render(id RowID) (string, bool) {
	v, ok := d[id]
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(float64(v), 'g', -1, 32), true
}

func (d Float64Data) Render(id RowID) (string, bool) {
	v, ok := d[id]
	if !ok {
		return "", false
	}
	return strconv.FormatFloat(v, 'g', -1, 64), true
}

func (d BoolData) Render(id RowID) (string, bool) {
	v, ok := d[id]
	if !ok {
		return "", false
	}
	return strconv.FormatBool(v), true
}

func (d Int32Data) Truncate()   { clear(d) }
func (d StringData) Truncate()  { clear(d) }
func (d Float32Data) Truncate() { clear(d) }
func (d Float64Data) Truncate() { clear(d) }
func (d BoolData) Truncate()    { clear(d) }

func (d Int32Data) Delete(id RowID)   { delete(d, id) }
func (d StringData) Delete(id RowID)  { delete(d, id) }
func (d Float32Data) Delete(id RowID) { delete(d, id) }
func (d Float64Data) Delete(id RowID) { delete(d, id) }
func (d BoolData) Delete(id RowID)    { delete(d, id) }

func (d Int32Data) Clone() ColumnData   { return Int32Data(cloneMap(d)) }
func (d StringData) Clone() ColumnData  { return StringData(cloneMap(d)) }
func (d Float32Data) Clone() ColumnData { return Float32Data(cloneMap(d)) }
func (d Float64Data) Clone() ColumnData { return Float64Data(cloneMap(d)) }
func (d BoolData) Clone() ColumnData    { return BoolData(cloneMap(d)) }

func (d Int32Data) Filter(keep func(RowID) bool) ColumnData {
	return Int32Data(filterMap(d, keep))
}

func (d StringData) Filter(keep func(RowID) bool) ColumnData {
	return StringData(filterMap(d, keep))
}

func (d Float32Data) Filter(keep func(RowID) bool) ColumnData {
	return Float32Data(filterMap(d, keep))
}

func (d Float64Data) Filter(keep func(RowID) bool) ColumnData {
	return Float64Data(filterMap(d, keep))
}

func (d BoolData) Filter(keep func(RowID) bool) ColumnData {
	return BoolData(filterMap(d, keep))
}

// NewColumnData builds the empty storage for a declared type.
func NewColumnData(t sockdb.DataType) (ColumnData, error) {
	switch t {
	case sockdb.TypeInt:
		return Int32Data{}, nil
	case sockdb.TypeStr:
		return StringData{}, nil
	case sockdb.TypeFloat:
		return Float32Data{}, nil
	case sockdb.TypeDouble:
		return Float64Data{}, nil
	case sockdb.TypeBool:
		return BoolData{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown column type %v", sockdb.ErrInvalidQuery, t)
	}
}

// SetLiteral stores a literal at id, failing when the literal's runtime type
// disagrees with the column's declared variant. NullLit is the caller's
// problem: absence of a write is how NULL is stored.
func SetLiteral(d ColumnData, id RowID, lit sql.Literal) error {
	switch d := d.(type) {
	case Int32Data:
		if v, ok := lit.(sql.IntLit); ok {
			d[id] = int32(v)
			return nil
		}
	case StringData:
		if v, ok := lit.(sql.StrLit); ok {
			d[id] = string(v)
			return nil
		}
	case Float32Data:
		if v, ok := lit.(sql.FloatLit); ok {
			d[id] = float32(v)
			return nil
		}
	case Float64Data:
		if v, ok := lit.(sql.DoubleLit); ok {
			d[id] = float64(v)
			return nil
		}
	case BoolData:
		if v, ok := lit.(sql.BoolLit); ok {
			d[id] = bool(v)
			return nil
		}
	}
	return fmt.Errorf("%w: cannot store %T in %s column", sockdb.ErrInvalidQuery, lit, d.Type())
}

func maxRowID[T any](m map[RowID]T) RowID {
	var max RowID
	for id := range m {
		if id > max {
			max = id
		}
	}
	return max
}

func sortedIDs[T any](m map[RowID]T) []RowID {
	ids := make([]RowID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func cloneMap[T any](m map[RowID]T) map[RowID]T {
	out := make(map[RowID]T, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func filterMap[T any](m map[RowID]T, keep func(RowID) bool) map[RowID]T {
	out := make(map[RowID]T)
	for k, v := range m {
		if keep(k) {
			out[k] = v
		}
	}
	return out
}
