package sql

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tuannm99/sockdb"
)

// Parse parses a single statement into the closed representation.
// Policy: statement MUST end with ';'
func Parse(text string) (Statement, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("empty statement")
	}

	if !strings.HasSuffix(s, ";") {
		return nil, fmt.Errorf("missing ';' terminator")
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return nil, fmt.Errorf("empty statement")
	}

	up := strings.ToUpper(s)

	switch {
	case strings.HasPrefix(up, "CREATE TABLE"):
		return parseCreateTable(s)
	case strings.HasPrefix(up, "DROP TABLE"):
		return parseDropTable(s)
	case strings.HasPrefix(up, "TRUNCATE"):
		return parseTruncate(s)
	case strings.HasPrefix(up, "INSERT INTO"):
		return parseInsert(s)
	case strings.HasPrefix(up, "SELECT"):
		return parseSelect(s)
	case strings.HasPrefix(up, "UPDATE"):
		return parseUpdate(s)
	case strings.HasPrefix(up, "DELETE FROM"):
		return parseDelete(s)
	default:
		return nil, fmt.Errorf("unsupported statement: %q", text)
	}
}

// parseIdent validates a db object name: one token, letter or '_' first,
// letters/digits/'_' after.
func parseIdent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing identifier")
	}

	parts := strings.Fields(s)
	if len(parts) != 1 {
		return "", fmt.Errorf("invalid identifier %q", s)
	}
	id := parts[0]

	for i, r := range id {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return "", fmt.Errorf("invalid identifier %q", id)
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", fmt.Errorf("invalid identifier %q", id)
		}
	}

	return id, nil
}

func parseCreateTable(s string) (Statement, error) {
	// "CREATE TABLE t (id INT PRIMARY KEY, name VARCHAR NOT NULL, ok BOOL)"
	rest := strings.TrimSpace(s[len("CREATE TABLE"):])
	parts := strings.SplitN(rest, "(", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax")
	}

	tableName, err := parseIdent(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: %w", err)
	}

	defPart := strings.TrimSpace(parts[1])
	if !strings.HasSuffix(defPart, ")") {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: missing ')'")
	}
	defPart = strings.TrimSpace(strings.TrimSuffix(defPart, ")"))
	if defPart == "" {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: empty column list")
	}

	var cols []ColumnDef
	for _, def := range strings.Split(defPart, ",") {
		cd, err := parseColumnDef(strings.TrimSpace(def))
		if err != nil {
			return nil, err
		}
		cols = append(cols, cd)
	}

	return &CreateTableStmt{TableName: tableName, Columns: cols}, nil
}

func parseColumnDef(def string) (ColumnDef, error) {
	toks := strings.Fields(def)
	if len(toks) < 2 {
		return ColumnDef{}, fmt.Errorf("invalid column def: %q", def)
	}

	name, err := parseIdent(toks[0])
	if err != nil {
		return ColumnDef{}, fmt.Errorf("invalid column name: %w", err)
	}

	typ := sockdb.ParseDataType(toks[1])
	if typ == sockdb.TypeInvalid {
		return ColumnDef{}, fmt.Errorf("unknown column type %q", toks[1])
	}

	cd := ColumnDef{Name: name, Type: typ, Nullable: true}

	opts := toks[2:]
	for i := 0; i < len(opts); i++ {
		switch strings.ToUpper(opts[i]) {
		case "PRIMARY":
			if i+1 >= len(opts) || !strings.EqualFold(opts[i+1], "KEY") {
				return ColumnDef{}, fmt.Errorf("invalid column option in %q", def)
			}
			i++
			cd.PrimaryKey = true
			cd.Nullable = false
		case "NOT":
			if i+1 >= len(opts) || !strings.EqualFold(opts[i+1], "NULL") {
				return ColumnDef{}, fmt.Errorf("invalid column option in %q", def)
			}
			i++
			cd.Nullable = false
		case "NULL":
			cd.Nullable = true
		default:
			return ColumnDef{}, fmt.Errorf("unsupported column option %q", opts[i])
		}
	}

	return cd, nil
}

func parseDropTable(s string) (Statement, error) {
	rest := strings.TrimSpace(s[len("DROP TABLE"):])
	name, err := parseIdent(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid DROP TABLE syntax: %w", err)
	}
	return &DropTableStmt{TableName: name}, nil
}

func parseTruncate(s string) (Statement, error) {
	// "TRUNCATE t" or "TRUNCATE TABLE t"
	rest := strings.TrimSpace(s[len("TRUNCATE"):])
	up := strings.ToUpper(rest)
	if strings.HasPrefix(up, "TABLE ") {
		rest = strings.TrimSpace(rest[len("TABLE "):])
	}
	name, err := parseIdent(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid TRUNCATE syntax: %w", err)
	}
	return &TruncateStmt{TableName: name}, nil
}

func parseInsert(s string) (Statement, error) {
	// "INSERT INTO t [(a, b)] VALUES (1, 'x'), (2, 'y')"
	rest := strings.TrimSpace(s[len("INSERT INTO"):])

	tablePart, valPart := splitKeyword(rest, "VALUES")
	if strings.TrimSpace(valPart) == "" {
		return nil, fmt.Errorf("invalid INSERT syntax: missing VALUES")
	}

	var cols []string
	if idx := strings.Index(tablePart, "("); idx >= 0 {
		colPart := strings.TrimSpace(tablePart[idx+1:])
		if !strings.HasSuffix(colPart, ")") {
			return nil, fmt.Errorf("invalid INSERT column list")
		}
		colPart = strings.TrimSuffix(colPart, ")")
		for _, c := range strings.Split(colPart, ",") {
			name, err := parseIdent(c)
			if err != nil {
				return nil, fmt.Errorf("invalid INSERT column list: %w", err)
			}
			cols = append(cols, name)
		}
		tablePart = tablePart[:idx]
	}

	tableName, err := parseIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid INSERT syntax: %w", err)
	}

	groups, err := splitParenGroups(valPart)
	if err != nil {
		return nil, fmt.Errorf("invalid INSERT values: %w", err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("invalid INSERT syntax: empty VALUES")
	}

	rows := make([][]Expr, 0, len(groups))
	for _, g := range groups {
		var row []Expr
		for _, rv := range splitComma(g) {
			e, err := ParseExpr(strings.TrimSpace(rv))
			if err != nil {
				return nil, err
			}
			row = append(row, e)
		}
		rows = append(rows, row)
	}

	return &InsertStmt{TableName: tableName, Columns: cols, Rows: rows}, nil
}

func parseSelect(s string) (Statement, error) {
	// "SELECT <projection> [FROM t [WHERE <expr>]]"
	rest := strings.TrimSpace(s[len("SELECT"):])

	projPart, afterFrom := splitKeyword(rest, "FROM")
	sel := &SelectStmt{}

	if strings.TrimSpace(afterFrom) != "" {
		tablePart, wherePart := splitKeyword(afterFrom, "WHERE")
		name, err := parseIdent(tablePart)
		if err != nil {
			return nil, fmt.Errorf("invalid SELECT syntax: %w", err)
		}
		sel.From = name

		if strings.TrimSpace(wherePart) != "" {
			w, err := ParseExpr(wherePart)
			if err != nil {
				return nil, err
			}
			sel.Selection = append(sel.Selection, w)
		}
	}
	if len(sel.Selection) == 0 {
		sel.Selection = append(sel.Selection, &NoPredicate{})
	}

	projPart = strings.TrimSpace(projPart)
	if projPart == "" {
		return nil, fmt.Errorf("invalid SELECT syntax: empty projection")
	}
	for _, item := range splitComma(projPart) {
		item = strings.TrimSpace(item)
		if item == "*" {
			sel.Projection = append(sel.Projection, &Wildcard{})
			continue
		}
		e, err := ParseExpr(item)
		if err != nil {
			return nil, err
		}
		sel.Projection = append(sel.Projection, e)
	}

	return sel, nil
}

func parseUpdate(s string) (Statement, error) {
	// "UPDATE t SET a = 1, b = 'x' [WHERE <expr>]"
	rest := strings.TrimSpace(s[len("UPDATE"):])
	tablePart, afterTable := splitKeyword(rest, "SET")

	tableName, err := parseIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid UPDATE syntax: %w", err)
	}

	setPart, wherePart := splitKeyword(afterTable, "WHERE")
	setPart = strings.TrimSpace(setPart)
	if setPart == "" {
		return nil, fmt.Errorf("invalid UPDATE syntax: missing SET")
	}

	var assigns []Assignment
	for _, a := range splitComma(setPart) {
		a = strings.TrimSpace(a)
		kv := strings.SplitN(a, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid assignment: %q", a)
		}

		col, err := parseIdent(kv[0])
		if err != nil {
			return nil, fmt.Errorf("invalid assignment column: %w", err)
		}
		val, err := ParseExpr(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, Assignment{Column: col, Value: val})
	}

	up := &UpdateStmt{TableName: tableName, Assignments: assigns}
	if strings.TrimSpace(wherePart) != "" {
		w, err := ParseExpr(wherePart)
		if err != nil {
			return nil, err
		}
		up.Where = w
	}

	return up, nil
}

func parseDelete(s string) (Statement, error) {
	// "DELETE FROM t [WHERE <expr>]"
	rest := strings.TrimSpace(s[len("DELETE FROM"):])
	tablePart, wherePart := splitKeyword(rest, "WHERE")

	tableName, err := parseIdent(tablePart)
	if err != nil {
		return nil, fmt.Errorf("invalid DELETE syntax: %w", err)
	}

	del := &DeleteStmt{TableName: tableName}
	if strings.TrimSpace(wherePart) != "" {
		w, err := ParseExpr(wherePart)
		if err != nil {
			return nil, err
		}
		del.Where = w
	}

	return del, nil
}

// splitKeyword splits "X <keyword> Y" case-insensitively, ignoring keyword
// matches inside single-quoted strings. Returns (X, Y); Y is "" when the
// keyword is absent.
func splitKeyword(s, keyword string) (string, string) {
	k := " " + strings.ToUpper(keyword) + " "

	inQuote := false
	for i := 0; i+len(k) <= len(s); i++ {
		if s[i] == '\'' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && strings.EqualFold(s[i:i+len(k)], k) {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(k):])
		}
	}
	return strings.TrimSpace(s), ""
}

// splitComma splits a comma-separated list, ignoring commas inside quotes
// and parentheses.
func splitComma(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	depth := 0
	for _, r := range s {
		switch r {
		case '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case '(':
			if !inQuote {
				depth++
			}
			cur.WriteRune(r)
		case ')':
			if !inQuote {
				depth--
			}
			cur.WriteRune(r)
		case ',':
			if inQuote || depth > 0 {
				cur.WriteRune(r)
			} else {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		parts = append(parts, cur.String())
	}
	return parts
}

// splitParenGroups splits "(a, b), (c, d)" into ["a, b", "c, d"].
func splitParenGroups(s string) ([]string, error) {
	var groups []string
	i := 0
	rs := []rune(s)
	for i < len(rs) {
		r := rs[i]
		if unicode.IsSpace(r) || r == ',' {
			i++
			continue
		}
		if r != '(' {
			return nil, fmt.Errorf("expected '(' at %q", string(rs[i:]))
		}
		depth := 0
		inQuote := false
		j := i
		for ; j < len(rs); j++ {
			switch rs[j] {
			case '\'':
				inQuote = !inQuote
			case '(':
				if !inQuote {
					depth++
				}
			case ')':
				if !inQuote {
					depth--
				}
			}
			if depth == 0 && rs[j] == ')' {
				break
			}
		}
		if j == len(rs) {
			return nil, fmt.Errorf("missing closing ')'")
		}
		groups = append(groups, string(rs[i+1:j]))
		i = j + 1
	}
	return groups, nil
}
