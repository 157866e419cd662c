package resp

// Type markers of the five RESP2 value kinds
const (
	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
)

// Value is one decoded RESP unit. Type selects which payload field is meaningful
type Value struct {
	String  []byte  // SimpleString, Error, BulkString
	Array   []Value // Array
	Integer int64   // Integer
	Type    byte
	IsNull  bool // absent BulkString and absent Array
}

// TypeName returns a human readable name of the value kind
func (v Value) TypeName() string {
	switch v.Type {
	case TypeSimpleString:
		return "simple string"
	case TypeError:
		return "error"
	case TypeInteger:
		return "integer"
	case TypeBulkString:
		return "bulk string"
	case TypeArray:
		return "array"
	}
	return "unknown"
}
