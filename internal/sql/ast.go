package sql

import "github.com/tuannm99/sockdb"

// Statement is the root interface for the closed statement representation.
// The engine only ever sees these values; raw query text never reaches it.
type Statement interface {
	stmtNode()
}

// ColumnDef describes one column of a CREATE TABLE statement.
type ColumnDef struct {
	Name       string
	Type       sockdb.DataType
	Nullable   bool
	PrimaryKey bool
}

type CreateTableStmt struct {
	TableName string
	Columns   []ColumnDef
}

func (*CreateTableStmt) stmtNode() {}

type DropTableStmt struct {
	TableName string
}

func (*DropTableStmt) stmtNode() {}

type TruncateStmt struct {
	TableName string
}

func (*TruncateStmt) stmtNode() {}

// InsertStmt carries one or more literal rows. An empty Columns list means
// "all declared columns in definition order".
type InsertStmt struct {
	TableName string
	Columns   []string
	Rows      [][]Expr
}

func (*InsertStmt) stmtNode() {}

// SelectStmt: From is empty when the statement has no source table
// (e.g. SELECT 1+2). Selection holds the WHERE expression, or the
// NoPredicate sentinel when none was supplied.
type SelectStmt struct {
	From       string
	Projection []Expr
	Selection  []Expr
}

func (*SelectStmt) stmtNode() {}

type Assignment struct {
	Column string
	Value  Expr
}

type UpdateStmt struct {
	TableName   string
	Assignments []Assignment
	Where       Expr // nil when absent
}

func (*UpdateStmt) stmtNode() {}

type DeleteStmt struct {
	TableName string
	Where     Expr // nil when absent
}

func (*DeleteStmt) stmtNode() {}

// ----- Expressions -----

// Expr is the closed expression representation handed to the evaluator.
type Expr interface {
	exprNode()
}

// Literal is the sub-union of Expr holding a single typed value.
type Literal interface {
	Expr
	litNode()
}

type IntLit int32
type StrLit string
type FloatLit float32
type DoubleLit float64
type BoolLit bool
type NullLit struct{}

func (IntLit) exprNode()    {}
func (StrLit) exprNode()    {}
func (FloatLit) exprNode()  {}
func (DoubleLit) exprNode() {}
func (BoolLit) exprNode()   {}
func (NullLit) exprNode()   {}

func (IntLit) litNode()    {}
func (StrLit) litNode()    {}
func (FloatLit) litNode()  {}
func (DoubleLit) litNode() {}
func (BoolLit) litNode()   {}
func (NullLit) litNode()   {}

// ColumnRef names a column of the bound table.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) exprNode() {}

// Wildcard is the bare `*` identifier.
type Wildcard struct{}

func (*Wildcard) exprNode() {}

type IsTrueExpr struct {
	Inner Expr
}

func (*IsTrueExpr) exprNode() {}

type IsFalseExpr struct {
	Inner Expr
}

func (*IsFalseExpr) exprNode() {}

type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryPlus
	UnaryMinus
)

type UnaryExpr struct {
	Op    UnaryOp
	Inner Expr
}

func (*UnaryExpr) exprNode() {}

type BinaryOp int

const (
	OpPlus BinaryOp = iota
	OpMinus
	OpMul
	OpDiv
	OpRem
	OpEq
	OpLt
	OpGt
	OpLtEq
	OpGtEq
	OpNotEq
)

func (op BinaryOp) String() string {
	switch op {
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpRem:
		return "%"
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLtEq:
		return "<="
	case OpGtEq:
		return ">="
	case OpNotEq:
		return "!="
	default:
		return "?"
	}
}

type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// NoPredicate is the "no WHERE supplied" sentinel. Evaluating it directly is
// an error; statement dispatch must special-case it.
type NoPredicate struct{}

func (*NoPredicate) exprNode() {}
