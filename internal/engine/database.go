package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tuannm99/sockdb"
	"github.com/tuannm99/sockdb/internal/eval"
	"github.com/tuannm99/sockdb/internal/sql"
	"github.com/tuannm99/sockdb/internal/store"
)

// Notifier receives best-effort post-mutation messages for a table. The
// engine never blocks on it and never fails a statement because of it; the
// caller owns delivery.
type Notifier interface {
	Notify(table, message string)
}

// Database owns the ordered table list and dispatches statements against it.
// It is not safe for concurrent use: the caller enforces the single-writer
// discipline (the TCP server serializes statements with a mutex).
type Database struct {
	tables   []*store.Table
	notifier Notifier
}

func NewDatabase() *Database {
	return &Database{}
}

// SetNotifier installs the subscriber fan-out handle. A nil notifier
// disables notifications.
func (db *Database) SetNotifier(n Notifier) { db.notifier = n }

// Tables exposes the table list for the snapshot boundary. Callers must hold
// exclusive access to the database for the duration of the read.
func (db *Database) Tables() []*store.Table { return db.tables }

// Execute runs one parsed statement. The returned View is nil for
// non-tabular (mutating) statements.
func (db *Database) Execute(stmt sql.Statement) (*View, error) {
	switch s := stmt.(type) {
	case *sql.CreateTableStmt:
		return nil, db.execCreateTable(s)
	case *sql.DropTableStmt:
		return nil, db.execDropTable(s)
	case *sql.TruncateStmt:
		return nil, db.execTruncate(s)
	case *sql.InsertStmt:
		return nil, db.execInsert(s)
	case *sql.SelectStmt:
		return db.execSelect(s)
	case *sql.UpdateStmt:
		return nil, db.execUpdate(s)
	case *sql.DeleteStmt:
		return nil, db.execDelete(s)
	default:
		return nil, fmt.Errorf("%w: statement %T", sockdb.ErrUnsupported, stmt)
	}
}

func (db *Database) table(name string) *store.Table {
	for _, t := range db.tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

func (db *Database) execCreateTable(s *sql.CreateTableStmt) error {
	if db.table(s.TableName) != nil {
		return fmt.Errorf("%w: %s", sockdb.ErrTableAlreadyExists, s.TableName)
	}
	t, err := store.NewTable(strings.ToUpper(s.TableName), s.Columns)
	if err != nil {
		return err
	}
	db.tables = append(db.tables, t)
	slog.Debug("created table", "name", t.Name, "columns", len(t.Columns))
	return nil
}

// execDropTable removes the table if present; dropping an absent table is a
// silent no-op.
func (db *Database) execDropTable(s *sql.DropTableStmt) error {
	for i, t := range db.tables {
		if strings.EqualFold(t.Name, s.TableName) {
			db.tables = append(db.tables[:i], db.tables[i+1:]...)
			slog.Debug("dropped table", "name", t.Name)
			return nil
		}
	}
	return nil
}

func (db *Database) execTruncate(s *sql.TruncateStmt) error {
	t := db.table(s.TableName)
	if t == nil {
		return fmt.Errorf("%w: %s", sockdb.ErrTableNotFound, s.TableName)
	}
	t.Truncate()
	db.notify(t.Name, fmt.Sprintf("table %s truncated", t.Name))
	return nil
}

func (db *Database) execSelect(s *sql.SelectStmt) (*View, error) {
	// an unknown FROM table leaves the evaluator unbound, like no FROM at
	// all; identifiers then fail with an evaluation error
	var t *store.Table
	if s.From != "" {
		t = db.table(s.From)
	}

	var selCols []eval.OutColumn
	for _, sel := range s.Selection {
		if _, ok := sel.(*sql.NoPredicate); ok {
			continue
		}
		cols, err := eval.Eval(t, sel)
		if err != nil {
			return nil, err
		}
		selCols = append(selCols, cols...)
	}

	var projCols []eval.OutColumn
	for _, p := range s.Projection {
		cols, err := eval.Eval(t, p)
		if err != nil {
			return nil, err
		}
		projCols = append(projCols, cols...)
	}

	// no predicate columns: select everything
	if len(selCols) == 0 {
		return NewView(projCols), nil
	}

	// each predicate column filters every projected column; the result is
	// the cross-product over predicates, not their conjunction
	var out []eval.OutColumn
	for _, sc := range selCols {
		bd, ok := sc.Data.(store.BoolData)
		if !ok {
			return nil, fmt.Errorf("%w: selection %q is not boolean", sockdb.ErrInvalidQuery, sc.Name)
		}
		keep := make(map[store.RowID]bool, len(bd))
		for id, v := range bd {
			if v {
				keep[id] = true
			}
		}
		for _, pc := range projCols {
			out = append(out, eval.OutColumn{
				Name: pc.Name,
				Data: pc.Data.Filter(func(id store.RowID) bool { return keep[id] }),
			})
		}
	}

	return NewView(out), nil
}

func (db *Database) execInsert(s *sql.InsertStmt) error {
	t := db.table(s.TableName)
	if t == nil {
		return fmt.Errorf("%w: %s", sockdb.ErrTableNotFound, s.TableName)
	}
	if err := t.Insert(s.Columns, s.Rows); err != nil {
		return err
	}
	db.notifyChanged(t)
	return nil
}

func (db *Database) execUpdate(s *sql.UpdateStmt) error {
	t := db.table(s.TableName)
	if t == nil {
		return fmt.Errorf("%w: %s", sockdb.ErrTableNotFound, s.TableName)
	}
	if s.Where == nil {
		return fmt.Errorf("%w: UPDATE without WHERE", sockdb.ErrUnsupported)
	}

	ids, err := db.selectionRowIDs(t, s.Where)
	if err != nil {
		return err
	}
	if err := t.Update(s.Assignments, ids); err != nil {
		return err
	}
	db.notifyChanged(t)
	return nil
}

// execDelete removes the matching rows; DELETE without a filter degenerates
// to TRUNCATE.
func (db *Database) execDelete(s *sql.DeleteStmt) error {
	t := db.table(s.TableName)
	if t == nil {
		return fmt.Errorf("%w: %s", sockdb.ErrTableNotFound, s.TableName)
	}

	if s.Where == nil {
		t.Truncate()
		db.notify(t.Name, fmt.Sprintf("table %s truncated", t.Name))
		return nil
	}

	ids, err := db.selectionRowIDs(t, s.Where)
	if err != nil {
		return err
	}
	t.Delete(ids)
	db.notifyChanged(t)
	return nil
}

// selectionRowIDs evaluates a WHERE expression and extracts the ids where it
// holds. The expression must yield exactly one boolean column.
func (db *Database) selectionRowIDs(t *store.Table, where sql.Expr) ([]store.RowID, error) {
	cols, err := eval.Eval(t, where)
	if err != nil {
		return nil, err
	}
	if len(cols) != 1 {
		return nil, fmt.Errorf("%w: selection produced %d columns", sockdb.ErrInvalidOperation, len(cols))
	}
	bd, ok := cols[0].Data.(store.BoolData)
	if !ok {
		return nil, fmt.Errorf("%w: selection %q is not boolean", sockdb.ErrInvalidQuery, cols[0].Name)
	}

	var ids []store.RowID
	for id, v := range bd {
		if v {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// TableView materializes the full current contents of a table.
func TableView(t *store.Table) *View {
	var cols []eval.OutColumn
	for _, c := range t.Columns {
		if c.Header.Hidden {
			continue
		}
		cols = append(cols, eval.OutColumn{Name: c.Header.Name, Data: c.Data})
	}
	return NewView(cols)
}

func (db *Database) notify(table, message string) {
	if db.notifier == nil {
		return
	}
	db.notifier.Notify(table, message)
}

func (db *Database) notifyChanged(t *store.Table) {
	if db.notifier == nil {
		return
	}
	db.notifier.Notify(t.Name, fmt.Sprintf("table %s changed:\n%s", t.Name, TableView(t)))
}
