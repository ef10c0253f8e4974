package engine

import (
	"fmt"
	"strings"

	"github.com/tuannm99/sockdb/internal/snapshot"
)

// Meta commands are the dot-prefixed surface consumed by the front ends.
// Process termination (.exit) is entirely the front end's business; the
// engine only implements the data-touching commands.
type MetaCommand interface {
	metaNode()
}

type ListTablesCmd struct{}
type ExitCmd struct{}

type PersistCmd struct {
	Path string
}

type RestoreCmd struct {
	Path string
}

func (*ListTablesCmd) metaNode() {}
func (*ExitCmd) metaNode()       {}
func (*PersistCmd) metaNode()    {}
func (*RestoreCmd) metaNode()    {}

// IsMetaCommand reports whether the input line is a meta command rather than
// a statement.
func IsMetaCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ".")
}

func ParseMetaCommand(line string) (MetaCommand, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return nil, fmt.Errorf("invalid meta command %q", line)
	}

	switch fields[0] {
	case ".exit":
		return &ExitCmd{}, nil
	case ".tables":
		return &ListTablesCmd{}, nil
	case ".persist":
		// path is optional; callers fall back to their configured default
		if len(fields) > 2 {
			return nil, fmt.Errorf("usage: .persist [path]")
		}
		cmd := &PersistCmd{}
		if len(fields) == 2 {
			cmd.Path = fields[1]
		}
		return cmd, nil
	case ".restore":
		if len(fields) > 2 {
			return nil, fmt.Errorf("usage: .restore [path]")
		}
		cmd := &RestoreCmd{}
		if len(fields) == 2 {
			cmd.Path = fields[1]
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("invalid meta command %q", fields[0])
	}
}

// ListTables reports every table with its column names.
func (db *Database) ListTables() *View {
	v := &View{Columns: []string{"name", "columns"}}
	for _, t := range db.tables {
		names := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			names = append(names, c.Header.Name)
		}
		v.Rows = append(v.Rows, []string{t.Name, strings.Join(names, ", ")})
	}
	return v
}

// Persist writes a full snapshot of the database to path. It requires
// exclusive access for the duration of the read, which the caller provides
// by only invoking it between statements.
func (db *Database) Persist(path string, compress bool) error {
	return snapshot.SaveFile(path, db.tables, compress)
}

// Restore replaces the database contents with the snapshot at path.
func (db *Database) Restore(path string) error {
	tables, err := snapshot.LoadFile(path)
	if err != nil {
		return err
	}
	db.tables = tables
	return nil
}
