package eval

import (
	"fmt"
	"math"
	"sort"

	"github.com/tuannm99/sockdb"
	"github.com/tuannm99/sockdb/internal/sql"
	"github.com/tuannm99/sockdb/internal/store"
)

// OutColumn is a transient named column produced by evaluation. It is never
// persisted; its data is always detached from table storage.
type OutColumn struct {
	Name string
	Data store.ColumnData
}

const anonName = "?column?"

// Eval maps (optional bound table, expression) to a sequence of output
// columns. It performs no I/O and never mutates the table.
func Eval(t *store.Table, expr sql.Expr) ([]OutColumn, error) {
	switch e := expr.(type) {
	case sql.NullLit:
		// a NULL literal evaluates to no columns at all
		return nil, nil

	case sql.Literal:
		data, err := literalColumn(e)
		if err != nil {
			return nil, err
		}
		return []OutColumn{{Name: anonName, Data: data}}, nil

	case *sql.Wildcard:
		if t == nil {
			return nil, fmt.Errorf("%w: cannot evaluate wildcard without a table", sockdb.ErrEvaluation)
		}
		out := make([]OutColumn, 0, len(t.Columns))
		for _, c := range t.Columns {
			out = append(out, OutColumn{Name: c.Header.Name, Data: c.Data.Clone()})
		}
		return out, nil

	case *sql.ColumnRef:
		if t == nil {
			return nil, fmt.Errorf("%w: cannot evaluate identifier without a table", sockdb.ErrEvaluation)
		}
		col := t.ColFromName(e.Name)
		if col == nil {
			return nil, &sockdb.ColumnNotFoundError{Column: e.Name, Table: t.Name}
		}
		return []OutColumn{{Name: col.Header.Name, Data: col.Data.Clone()}}, nil

	case *sql.IsTrueExpr:
		return evalIsBool(t, e.Inner, true)

	case *sql.IsFalseExpr:
		return evalIsBool(t, e.Inner, false)

	case *sql.UnaryExpr:
		return evalUnary(t, e)

	case *sql.BinaryExpr:
		return evalBinary(t, e)

	case *sql.NoPredicate:
		return nil, fmt.Errorf("%w: cannot evaluate the no-predicate sentinel", sockdb.ErrInvalidOperation)

	default:
		return nil, fmt.Errorf("%w: expression %T", sockdb.ErrUnsupported, expr)
	}
}

// literalColumn builds a single-row column holding the literal at id 0.
func literalColumn(lit sql.Literal) (store.ColumnData, error) {
	data, err := store.NewColumnData(literalType(lit))
	if err != nil {
		return nil, err
	}
	if err := store.SetLiteral(data, 0, lit); err != nil {
		return nil, err
	}
	return data, nil
}

func literalType(lit sql.Literal) sockdb.DataType {
	switch lit.(type) {
	case sql.IntLit:
		return sockdb.TypeInt
	case sql.StrLit:
		return sockdb.TypeStr
	case sql.FloatLit:
		return sockdb.TypeFloat
	case sql.DoubleLit:
		return sockdb.TypeDouble
	case sql.BoolLit:
		return sockdb.TypeBool
	default:
		return sockdb.TypeInvalid
	}
}

// evalIsBool implements IS TRUE / IS FALSE: keep the rows whose stored value
// equals want, preserving their ids.
func evalIsBool(t *store.Table, inner sql.Expr, want bool) ([]OutColumn, error) {
	cols, err := Eval(t, inner)
	if err != nil {
		return nil, err
	}
	out := make([]OutColumn, 0, len(cols))
	for _, c := range cols {
		bd, ok := c.Data.(store.BoolData)
		if !ok {
			return nil, fmt.Errorf("%w: IS TRUE/FALSE on %s column %q", sockdb.ErrInvalidOperation, c.Data.Type(), c.Name)
		}
		filtered := store.BoolData{}
		for id, v := range bd {
			if v == want {
				filtered[id] = v
			}
		}
		out = append(out, OutColumn{Name: c.Name, Data: filtered})
	}
	return out, nil
}

func evalUnary(t *store.Table, e *sql.UnaryExpr) ([]OutColumn, error) {
	// unary plus passes its operand through untouched
	if e.Op == sql.UnaryPlus {
		return Eval(t, e.Inner)
	}

	cols, err := Eval(t, e.Inner)
	if err != nil {
		return nil, err
	}

	out := make([]OutColumn, 0, len(cols))
	for _, c := range cols {
		switch e.Op {
		case sql.UnaryNot:
			bd, ok := c.Data.(store.BoolData)
			if !ok {
				return nil, fmt.Errorf("%w: NOT on %s column %q", sockdb.ErrUnsupported, c.Data.Type(), c.Name)
			}
			neg := store.BoolData{}
			for id, v := range bd {
				neg[id] = !v
			}
			out = append(out, OutColumn{Name: c.Name, Data: neg})

		case sql.UnaryMinus:
			switch d := c.Data.(type) {
			case store.Int32Data:
				out = append(out, OutColumn{Name: c.Name, Data: store.Int32Data(mapValues(d, func(v int32) int32 { return -v }))})
			case store.Float32Data:
				out = append(out, OutColumn{Name: c.Name, Data: store.Float32Data(mapValues(d, func(v float32) float32 { return -v }))})
			case store.Float64Data:
				out = append(out, OutColumn{Name: c.Name, Data: store.Float64Data(mapValues(d, func(v float64) float64 { return -v }))})
			default:
				return nil, fmt.Errorf("%w: unary minus on %s column %q", sockdb.ErrUnsupported, c.Data.Type(), c.Name)
			}

		default:
			return nil, fmt.Errorf("%w: unary operator %d", sockdb.ErrUnsupported, e.Op)
		}
	}
	return out, nil
}

func evalBinary(t *store.Table, e *sql.BinaryExpr) ([]OutColumn, error) {
	left, err := Eval(t, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := Eval(t, e.Right)
	if err != nil {
		return nil, err
	}
	if len(left) != 1 || len(right) != 1 {
		return nil, fmt.Errorf("%w: binary operator needs exactly one column per side", sockdb.ErrInvalidQuery)
	}
	l, r := left[0], right[0]

	switch e.Op {
	case sql.OpPlus, sql.OpMinus, sql.OpMul, sql.OpDiv, sql.OpRem:
		data, err := arith(e.Op, l, r)
		if err != nil {
			return nil, err
		}
		return []OutColumn{{Name: l.Name, Data: data}}, nil

	case sql.OpEq, sql.OpLt, sql.OpGt, sql.OpLtEq, sql.OpGtEq, sql.OpNotEq:
		rData := r.Data
		// a bare literal on the right is broadcast over the left column's
		// id range, 0 through its maximum key inclusive
		if lit, ok := e.Right.(sql.Literal); ok {
			if _, isNull := lit.(sql.NullLit); !isNull {
				rData, err = fillWithLiteral(lit, l.Data.MaxRowID())
				if err != nil {
					return nil, err
				}
			}
		}
		data, err := comparison(e.Op, l.Data, rData)
		if err != nil {
			return nil, err
		}
		// a comparison is Bool-typed and borrows the left operand's name
		return []OutColumn{{Name: l.Name, Data: data}}, nil

	default:
		return nil, fmt.Errorf("%w: binary operator %v", sockdb.ErrUnsupported, e.Op)
	}
}

// fillWithLiteral broadcasts a literal into a column populated at every id
// from 0 through max inclusive.
func fillWithLiteral(lit sql.Literal, max store.RowID) (store.ColumnData, error) {
	data, err := store.NewColumnData(literalType(lit))
	if err != nil {
		return nil, err
	}
	for id := store.RowID(0); id <= max; id++ {
		if err := store.SetLiteral(data, id, lit); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func arith(op sql.BinaryOp, l, r OutColumn) (store.ColumnData, error) {
	switch ld := l.Data.(type) {
	case store.Int32Data:
		rd, ok := r.Data.(store.Int32Data)
		if !ok {
			return nil, typeMismatch(op, l, r)
		}
		return intWise(op, ld, rd)

	case store.Float32Data:
		rd, ok := r.Data.(store.Float32Data)
		if !ok {
			return nil, typeMismatch(op, l, r)
		}
		return store.Float32Data(floatWise(op, ld, rd)), nil

	case store.Float64Data:
		rd, ok := r.Data.(store.Float64Data)
		if !ok {
			return nil, typeMismatch(op, l, r)
		}
		return store.Float64Data(floatWise(op, ld, rd)), nil

	case store.StringData:
		if op != sql.OpPlus {
			return nil, fmt.Errorf("%w: operator %v on string columns", sockdb.ErrInvalidQuery, op)
		}
		rd, ok := r.Data.(store.StringData)
		if !ok {
			return nil, typeMismatch(op, l, r)
		}
		out := store.StringData{}
		for _, id := range intersectIDs(ld, rd) {
			out[id] = ld[id] + rd[id]
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: operator %v on %s column %q", sockdb.ErrInvalidQuery, op, l.Data.Type(), l.Name)
	}
}

func intWise(op sql.BinaryOp, l, r store.Int32Data) (store.Int32Data, error) {
	out := store.Int32Data{}
	for _, id := range intersectIDs(l, r) {
		lv, rv := l[id], r[id]
		switch op {
		case sql.OpPlus:
			out[id] = lv + rv
		case sql.OpMinus:
			out[id] = lv - rv
		case sql.OpMul:
			out[id] = lv * rv
		case sql.OpDiv:
			if rv == 0 {
				return nil, fmt.Errorf("%w: division by zero", sockdb.ErrInvalidQuery)
			}
			out[id] = lv / rv
		case sql.OpRem:
			if rv == 0 {
				return nil, fmt.Errorf("%w: division by zero", sockdb.ErrInvalidQuery)
			}
			out[id] = lv % rv
		}
	}
	return out, nil
}

func floatWise[T float32 | float64](op sql.BinaryOp, l, r map[store.RowID]T) map[store.RowID]T {
	out := map[store.RowID]T{}
	for _, id := range intersectIDs(l, r) {
		lv, rv := l[id], r[id]
		switch op {
		case sql.OpPlus:
			out[id] = lv + rv
		case sql.OpMinus:
			out[id] = lv - rv
		case sql.OpMul:
			out[id] = lv * rv
		case sql.OpDiv:
			out[id] = lv / rv
		case sql.OpRem:
			out[id] = T(math.Mod(float64(lv), float64(rv)))
		}
	}
	return out
}

func comparison(op sql.BinaryOp, l, r store.ColumnData) (store.BoolData, error) {
	switch ld := l.(type) {
	case store.Int32Data:
		rd, ok := r.(store.Int32Data)
		if !ok {
			return nil, cmpMismatch(op, l, r)
		}
		return cmpOrdered(op, ld, rd), nil

	case store.Float32Data:
		rd, ok := r.(store.Float32Data)
		if !ok {
			return nil, cmpMismatch(op, l, r)
		}
		return cmpOrdered(op, ld, rd), nil

	case store.Float64Data:
		rd, ok := r.(store.Float64Data)
		if !ok {
			return nil, cmpMismatch(op, l, r)
		}
		return cmpOrdered(op, ld, rd), nil

	case store.BoolData:
		rd, ok := r.(store.BoolData)
		if !ok {
			return nil, cmpMismatch(op, l, r)
		}
		// false sorts before true
		return cmpOrdered(op, mapValues(ld, b2i), mapValues(rd, b2i)), nil

	case store.StringData:
		if op != sql.OpEq && op != sql.OpNotEq {
			return nil, fmt.Errorf("%w: ordering comparison on string columns", sockdb.ErrInvalidQuery)
		}
		rd, ok := r.(store.StringData)
		if !ok {
			return nil, cmpMismatch(op, l, r)
		}
		return cmpOrdered(op, map[store.RowID]string(ld), map[store.RowID]string(rd)), nil

	default:
		return nil, fmt.Errorf("%w: comparison on %s column", sockdb.ErrInvalidQuery, l.Type())
	}
}

func cmpOrdered[T int32 | float32 | float64 | string](op sql.BinaryOp, l, r map[store.RowID]T) store.BoolData {
	out := store.BoolData{}
	for _, id := range intersectIDs(l, r) {
		lv, rv := l[id], r[id]
		switch op {
		case sql.OpEq:
			out[id] = lv == rv
		case sql.OpLt:
			out[id] = lv < rv
		case sql.OpGt:
			out[id] = lv > rv
		case sql.OpLtEq:
			out[id] = lv <= rv
		case sql.OpGtEq:
			out[id] = lv >= rv
		case sql.OpNotEq:
			out[id] = lv != rv
		}
	}
	return out
}

func typeMismatch(op sql.BinaryOp, l, r OutColumn) error {
	return fmt.Errorf("%w: operator %v between %s and %s", sockdb.ErrInvalidQuery, op, l.Data.Type(), r.Data.Type())
}

func cmpMismatch(op sql.BinaryOp, l, r store.ColumnData) error {
	return fmt.Errorf("%w: comparison %v between %s and %s", sockdb.ErrInvalidQuery, op, l.Type(), r.Type())
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func mapValues[T, U any](m map[store.RowID]T, f func(T) U) map[store.RowID]U {
	out := make(map[store.RowID]U, len(m))
	for id, v := range m {
		out[id] = f(v)
	}
	return out
}

// intersectIDs returns the ids present on both sides, in ascending order.
// Rows present on only one side are dropped, not joined by position.
func intersectIDs[L, R any](l map[store.RowID]L, r map[store.RowID]R) []store.RowID {
	ids := make([]store.RowID, 0, len(l))
	for id := range l {
		if _, ok := r[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
