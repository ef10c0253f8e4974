package engine

import (
	"strings"

	"github.com/tuannm99/sockdb/internal/eval"
	"github.com/tuannm99/sockdb/internal/store"
)

// View is a transient row-major rendering of output columns, used for query
// results and subscriber notifications. Never persisted.
type View struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewView renders the columns row-major. The id range runs from 0 through the
// largest stored id across all columns; a row whose every cell is empty is
// dropped. Remaining rows stay in ascending id order.
func NewView(cols []eval.OutColumn) *View {
	v := &View{}
	for _, c := range cols {
		v.Columns = append(v.Columns, c.Name)
	}
	if len(cols) == 0 {
		return v
	}

	var max store.RowID
	for _, c := range cols {
		if m := c.Data.MaxRowID(); m > max {
			max = m
		}
	}

	for id := store.RowID(0); id <= max; id++ {
		row := make([]string, len(cols))
		empty := true
		for i, c := range cols {
			if s, ok := c.Data.Render(id); ok {
				row[i] = s
				empty = false
			}
		}
		if !empty {
			v.Rows = append(v.Rows, row)
		}
	}

	return v
}

// String renders the view as an aligned text table.
func (v *View) String() string {
	if len(v.Columns) == 0 {
		return "(no columns)\n"
	}

	widths := make([]int, len(v.Columns))
	for i, c := range v.Columns {
		widths[i] = len(c)
	}
	for _, row := range v.Rows {
		for i := range v.Columns {
			if i < len(row) && len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i := range v.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			var s string
			if i < len(cells) {
				s = cells[i]
			}
			b.WriteString(padRight(s, widths[i]))
		}
		b.WriteByte('\n')
	}

	writeRow(v.Columns)
	for i := range v.Columns {
		if i > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", widths[i]))
	}
	b.WriteByte('\n')
	for _, row := range v.Rows {
		writeRow(row)
	}

	return b.String()
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
