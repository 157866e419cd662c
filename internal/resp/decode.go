package resp

import (
	"bytes"
	"math"
	"strconv"
)

// DefaultMaxDepth bounds array nesting when no explicit limit is configured
const DefaultMaxDepth = 512

var defaultDecoder = NewDecoder()

// Decode decodes one value from the front of buf with the default settings and
// returns it together with the unconsumed rest of buf. Calling Decode again on the
// rest decodes pipelined values one by one
func Decode(buf []byte) (Value, []byte, error) {
	return defaultDecoder.Decode(buf)
}

// Decoder turns complete RESP units into Value trees.
// A Decoder is immutable and may be shared between goroutines
type Decoder struct {
	maxDepth      int
	preserveEmpty bool
}

// Option configures a Decoder
type Option func(*Decoder)

// WithMaxDepth limits how many arrays may be nested inside each other.
// Non-positive values select DefaultMaxDepth
func WithMaxDepth(n int) Option {
	return func(d *Decoder) {
		if n <= 0 {
			n = DefaultMaxDepth
		}
		d.maxDepth = n
	}
}

// WithPreserveEmpty makes zero-length bulk strings and arrays decode as empty
// values and accepts the -1 length as the null marker. Without it both
// zero-length forms collapse into the null value
func WithPreserveEmpty(on bool) Option {
	return func(d *Decoder) {
		d.preserveEmpty = on
	}
}

// NewDecoder creates a Decoder
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxDepth returns the nesting limit of the decoder
func (d *Decoder) MaxDepth() int {
	return d.maxDepth
}

// PreserveEmpty reports whether empty values are kept apart from null ones
func (d *Decoder) PreserveEmpty() bool {
	return d.preserveEmpty
}

// Standard returns a decoder with the same nesting limit that reads plain
// RESP2, where $0 and *0 carry an empty value and -1 marks null.
// Connections and append only files always use this form. A nil d starts
// from the default decoder
func (d *Decoder) Standard() *Decoder {
	if d == nil {
		d = defaultDecoder
	}
	if d.preserveEmpty {
		return d
	}
	std := *d
	std.preserveEmpty = true
	return &std
}

// Decode decodes one value from the front of buf. On failure it returns a
// *DecodeError and no partial value
func (d *Decoder) Decode(buf []byte) (Value, []byte, error) {
	p := parser{dec: d, buf: buf}

	v, err := p.value(0)
	if err != nil {
		return Value{}, buf, err
	}

	return v, buf[p.pos:], nil
}

// parser walks a single buffer. pos always points at the first unconsumed byte
type parser struct {
	dec *Decoder
	buf []byte
	pos int
}

func (p *parser) fail(kind ErrorKind, offset int, atEnd bool) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, atEnd: atEnd}
}

// value reads the marker byte and dispatches to the matching decoder.
// depth is the number of arrays enclosing the value
func (p *parser) value(depth int) (Value, error) {
	if p.pos >= len(p.buf) {
		return Value{}, p.fail(TruncatedPayload, p.pos, true)
	}

	start := p.pos
	marker := p.buf[p.pos]
	p.pos++

	switch marker {
	case TypeSimpleString, TypeError:
		line, err := p.line()
		if err != nil {
			return Value{}, err
		}
		return Value{Type: marker, String: bytes.Clone(line)}, nil

	case TypeInteger:
		n, err := p.integer()
		if err != nil {
			return Value{}, err
		}
		return Value{Type: TypeInteger, Integer: n}, nil

	case TypeBulkString:
		return p.bulkString()

	case TypeArray:
		if depth+1 > p.dec.maxDepth {
			return Value{}, p.fail(NestingTooDeep, start, false)
		}
		return p.array(depth + 1)
	}

	err := p.fail(UnknownMarker, start, false)
	err.Byte = marker
	return Value{}, err
}

// line returns the bytes up to the next CRLF and moves past it.
// Only the exact two byte sequence terminates a line
func (p *parser) line() ([]byte, error) {
	rest := p.buf[p.pos:]

	i := bytes.IndexAny(rest, "\r\n")
	if i < 0 {
		return nil, p.fail(MissingTerminator, len(p.buf), true)
	}

	end := p.pos + i
	if rest[i] != '\r' {
		// bare LF
		return nil, p.fail(MissingTerminator, end, false)
	}
	if i+1 == len(rest) {
		return nil, p.fail(MissingTerminator, end, true)
	}
	if rest[i+1] != '\n' {
		return nil, p.fail(MissingTerminator, end, false)
	}

	line := rest[:i]
	p.pos = end + 2
	return line, nil
}

func (p *parser) integer() (int64, error) {
	start := p.pos
	line, err := p.line()
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, p.fail(InvalidIntegerLiteral, start, false)
	}
	return n, nil
}

// length reads a byte or element count. A result of -1 is only returned in
// preserve-empty mode and stands for the null marker
func (p *parser) length() (int, error) {
	start := p.pos
	line, err := p.line()
	if err != nil {
		return 0, err
	}

	if p.dec.preserveEmpty && string(line) == "-1" {
		return -1, nil
	}

	if len(line) == 0 {
		return 0, p.fail(InvalidIntegerLiteral, start, false)
	}
	for _, c := range line {
		if c < '0' || c > '9' {
			return 0, p.fail(InvalidIntegerLiteral, start, false)
		}
	}

	n, err := strconv.ParseUint(string(line), 10, 64)
	if err != nil || n > math.MaxInt {
		return 0, p.fail(InvalidIntegerLiteral, start, false)
	}
	return int(n), nil
}

func (p *parser) bulkString() (Value, error) {
	n, err := p.length()
	if err != nil {
		return Value{}, err
	}

	switch {
	case n < 0:
		return Value{Type: TypeBulkString, IsNull: true}, nil
	case n == 0 && !p.dec.preserveEmpty:
		return Value{Type: TypeBulkString, IsNull: true}, nil
	}

	start := p.pos
	if len(p.buf)-start < n {
		return Value{}, p.fail(TruncatedPayload, start, true)
	}

	end := start + n
	switch tail := p.buf[end:]; {
	case len(tail) >= 2 && tail[0] == '\r' && tail[1] == '\n':
	case len(tail) == 0, len(tail) == 1 && tail[0] == '\r':
		return Value{}, p.fail(MissingTerminator, end, true)
	default:
		return Value{}, p.fail(MissingTerminator, end, false)
	}

	p.pos = end + 2
	return Value{Type: TypeBulkString, String: bytes.Clone(p.buf[start:end])}, nil
}

func (p *parser) array(depth int) (Value, error) {
	n, err := p.length()
	if err != nil {
		return Value{}, err
	}

	switch {
	case n < 0:
		return Value{Type: TypeArray, IsNull: true}, nil
	case n == 0 && !p.dec.preserveEmpty:
		return Value{Type: TypeArray, IsNull: true}, nil
	}

	// every element takes at least three bytes, so a count the buffer cannot
	// possibly hold must not size the allocation
	capacity := n
	if left := (len(p.buf) - p.pos) / 3; capacity > left {
		capacity = left
	}

	elems := make([]Value, 0, capacity)
	for range n {
		v, err := p.value(depth)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}

	return Value{Type: TypeArray, Array: elems}, nil
}
