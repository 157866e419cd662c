package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Encoder serializes values into the form its decoder reads back.
// Nothing reaches the underlying writer until Flush is called or the buffer fills up
type Encoder struct {
	w *bufio.Writer

	// compact writes empty and null bulk strings and arrays as the bare zero
	// length header, which is all a conflating decoder consumes
	compact bool
}

// NewEncoder creates an Encoder whose output dec decodes without losing sync.
// A nil dec selects the default decoder, pass Standard() for RESP2 peers
func NewEncoder(w io.Writer, dec *Decoder) *Encoder {
	if dec == nil {
		dec = defaultDecoder
	}
	return &Encoder{
		w:       bufio.NewWriter(w),
		compact: !dec.preserveEmpty,
	}
}

// Write serializes v into the buffer. A value that cannot be encoded leaves
// the buffer untouched
func (e *Encoder) Write(v Value) error {
	b, err := e.appendValue(e.w.AvailableBuffer(), v)
	if err != nil {
		return err
	}
	_, err = e.w.Write(b)
	return err
}

// Flush writes any buffered data to the underlying writer
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

func (e *Encoder) appendValue(b []byte, v Value) ([]byte, error) {
	switch v.Type {
	case TypeSimpleString, TypeError:
		b = append(b, v.Type)
		b = append(b, v.String...)
		return append(b, '\r', '\n'), nil

	case TypeInteger:
		return appendHeader(b, TypeInteger, v.Integer), nil

	case TypeBulkString:
		if v.IsNull || e.compact && len(v.String) == 0 {
			return e.appendNull(b, TypeBulkString), nil
		}
		b = appendHeader(b, TypeBulkString, int64(len(v.String)))
		b = append(b, v.String...)
		return append(b, '\r', '\n'), nil

	case TypeArray:
		if v.IsNull || e.compact && len(v.Array) == 0 {
			return e.appendNull(b, TypeArray), nil
		}
		b = appendHeader(b, TypeArray, int64(len(v.Array)))
		for _, el := range v.Array {
			var err error
			if b, err = e.appendValue(b, el); err != nil {
				return nil, err
			}
		}
		return b, nil
	}

	return nil, fmt.Errorf("encode: unknown value type %q", v.Type)
}

// appendNull writes -1 on the RESP2 wire and the zero length in compact mode
func (e *Encoder) appendNull(b []byte, marker byte) []byte {
	if e.compact {
		return append(b, marker, '0', '\r', '\n')
	}
	return append(b, marker, '-', '1', '\r', '\n')
}

func appendHeader(b []byte, marker byte, n int64) []byte {
	b = append(b, marker)
	b = strconv.AppendInt(b, n, 10)
	return append(b, '\r', '\n')
}
