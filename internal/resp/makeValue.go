package resp

// MakeSimpleString returns a status reply such as OK
func MakeSimpleString(s string) Value {
	return Value{Type: TypeSimpleString, String: []byte(s)}
}

// MakeError returns an error reply. By convention s starts with an upper case code like ERR
func MakeError(s string) Value {
	return Value{Type: TypeError, String: []byte(s)}
}

func MakeBulkString(s string) Value {
	return MakeBulkBytes([]byte(s))
}

// MakeBulkBytes wraps b without copying. A nil b is the empty string, not the null one
func MakeBulkBytes(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Type: TypeBulkString, String: b}
}

func MakeNilBulkString() Value {
	return Value{Type: TypeBulkString, IsNull: true}
}

func MakeInteger(n int64) Value {
	return Value{Type: TypeInteger, Integer: n}
}

// MakeArray wraps values. A nil slice gives the empty array, use MakeNilArray for the null one
func MakeArray(values []Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{Type: TypeArray, Array: values}
}

func MakeNilArray() Value {
	return Value{Type: TypeArray, IsNull: true}
}

// MakeCommand builds a request the way clients send it: an array of bulk strings, name first
func MakeCommand(name string, args ...string) Value {
	elems := make([]Value, 0, 1+len(args))
	elems = append(elems, MakeBulkString(name))
	for _, arg := range args {
		elems = append(elems, MakeBulkString(arg))
	}
	return MakeArray(elems)
}
