// Package snapshot is the serialization boundary for full-database
// persistence. The encoding is self-describing JSON, optionally gzipped; a
// save/load round trip reconstructs an observably equivalent database.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/tuannm99/sockdb"
	"github.com/tuannm99/sockdb/internal/store"
)

const formatVersion = 1

type fileSnapshot struct {
	Version int         `json:"version"`
	Tables  []tableSnap `json:"tables"`
}

type tableSnap struct {
	Name    string       `json:"name"`
	Columns []columnSnap `json:"columns"`
	PK      []pkEntry    `json:"pk"`
}

type columnSnap struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Nullable   bool            `json:"nullable"`
	PrimaryKey bool            `json:"primary_key"`
	Hidden     bool            `json:"hidden,omitempty"`
	LastRowID  int64           `json:"last_row_id"`
	Rows       json.RawMessage `json:"rows"`
}

type pkEntry struct {
	Kind string `json:"kind"`
	Int  int32  `json:"int,omitempty"`
	Str  string `json:"str,omitempty"`
	Row  int64  `json:"row"`
}

// Save writes the table set to w.
func Save(w io.Writer, tables []*store.Table) error {
	snap := fileSnapshot{Version: formatVersion}

	for _, t := range tables {
		ts := tableSnap{Name: t.Name}
		for _, c := range t.Columns {
			rows, err := json.Marshal(c.Data)
			if err != nil {
				return fmt.Errorf("snapshot: marshal column %s.%s: %w", t.Name, c.Header.Name, err)
			}
			ts.Columns = append(ts.Columns, columnSnap{
				Name:       c.Header.Name,
				Type:       c.Header.Type.String(),
				Nullable:   c.Header.Nullable,
				PrimaryKey: c.Header.PrimaryKey,
				Hidden:     c.Header.Hidden,
				LastRowID:  int64(c.Header.LastRowID),
				Rows:       rows,
			})
		}

		t.PK.ForEach(func(k store.PKValue, id store.RowID) {
			ts.PK = append(ts.PK, pkEntry{
				Kind: k.Kind.String(),
				Int:  k.Int,
				Str:  k.Str,
				Row:  int64(id),
			})
		})
		// map iteration order is random; keep the encoding stable
		sort.Slice(ts.PK, func(i, j int) bool { return ts.PK[i].Row < ts.PK[j].Row })

		snap.Tables = append(snap.Tables, ts)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(&snap); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

// Load reconstructs the table set from r.
func Load(r io.Reader) ([]*store.Table, error) {
	var snap fileSnapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if snap.Version != formatVersion {
		return nil, fmt.Errorf("snapshot: unsupported format version %d", snap.Version)
	}

	var tables []*store.Table
	for _, ts := range snap.Tables {
		t := &store.Table{
			Name: ts.Name,
			PK:   store.NewBimap[store.PKValue, store.RowID](),
		}

		for _, cs := range ts.Columns {
			typ := sockdb.ParseDataType(cs.Type)
			data, err := decodeRows(typ, cs.Rows)
			if err != nil {
				return nil, fmt.Errorf("snapshot: column %s.%s: %w", ts.Name, cs.Name, err)
			}
			t.Columns = append(t.Columns, &store.Column{
				Header: store.ColumnHeader{
					Name:       cs.Name,
					Type:       typ,
					Nullable:   cs.Nullable,
					PrimaryKey: cs.PrimaryKey,
					Hidden:     cs.Hidden,
					LastRowID:  store.RowID(cs.LastRowID),
				},
				Data: data,
			})
		}

		for _, e := range ts.PK {
			t.PK.Put(store.PKValue{
				Kind: sockdb.ParseDataType(e.Kind),
				Int:  e.Int,
				Str:  e.Str,
			}, store.RowID(e.Row))
		}

		tables = append(tables, t)
	}

	return tables, nil
}

func decodeRows(typ sockdb.DataType, raw json.RawMessage) (store.ColumnData, error) {
	switch typ {
	case sockdb.TypeInt:
		d := store.Int32Data{}
		return d, json.Unmarshal(raw, &d)
	case sockdb.TypeStr:
		d := store.StringData{}
		return d, json.Unmarshal(raw, &d)
	case sockdb.TypeFloat:
		d := store.Float32Data{}
		return d, json.Unmarshal(raw, &d)
	case sockdb.TypeDouble:
		d := store.Float64Data{}
		return d, json.Unmarshal(raw, &d)
	case sockdb.TypeBool:
		d := store.BoolData{}
		return d, json.Unmarshal(raw, &d)
	default:
		return nil, fmt.Errorf("unknown column type %q", typ)
	}
}

// SaveFile snapshots the table set to path, gzipped when compress is set.
func SaveFile(path string, tables []*store.Table, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := Save(w, tables); err != nil {
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("snapshot: close gzip: %w", err)
		}
	}
	return f.Close()
}

// LoadFile restores a snapshot, sniffing the gzip magic so both plain and
// compressed files load transparently.
func LoadFile(path string) ([]*store.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("snapshot: gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	return Load(r)
}
