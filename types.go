package sockdb

import "strings"

// DataType tags the closed set of column value types.
type DataType int

const (
	TypeInvalid DataType = iota
	TypeInt               // int32
	TypeStr               // string
	TypeFloat             // float32
	TypeDouble            // float64
	TypeBool
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeStr:
		return "VARCHAR"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeBool:
		return "BOOL"
	default:
		return "INVALID"
	}
}

// ParseDataType maps a SQL type name (any case) to its tag.
// Returns TypeInvalid for names outside the closed set.
func ParseDataType(name string) DataType {
	switch strings.ToUpper(name) {
	case "INT", "INTEGER":
		return TypeInt
	case "VARCHAR", "TEXT":
		return TypeStr
	case "FLOAT", "FLOAT4", "REAL":
		return TypeFloat
	case "DOUBLE", "FLOAT8", "DOUBLE PRECISION":
		return TypeDouble
	case "BOOL", "BOOLEAN":
		return TypeBool
	default:
		return TypeInvalid
	}
}
