package resp

import (
	"errors"
	"fmt"
	"io"
)

const (
	defaultReadSize  = 4096
	DefaultMaxBuffer = 64 << 20
)

// ErrBufferFull is returned when a single value does not fit into the reader buffer
var ErrBufferFull = errors.New("resp: value exceeds reader buffer limit")

// Reader decodes consecutive values from a stream. The decoder itself only
// understands complete buffers, so Reader keeps the bytes it has seen and
// decodes again each time more arrive, until the value is complete or the
// failure is not caused by missing input
type Reader struct {
	rd  io.Reader
	dec *Decoder

	buf       []byte
	start     int   // first unconsumed byte of buf
	consumed  int64 // stream offset of buf[0]
	maxBuffer int
	readSize  int
	eof       bool

	next    Value // decoded by Ready, returned by the following Read
	hasNext bool
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithMaxBuffer caps the bytes a Reader keeps for one pending value
func WithMaxBuffer(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxBuffer = n
		}
	}
}

// WithReadSize sets how many bytes are requested from the stream at once
func WithReadSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.readSize = n
		}
	}
}

// NewReader creates a Reader over rd. A nil dec selects the default decoder
func NewReader(rd io.Reader, dec *Decoder, opts ...ReaderOption) *Reader {
	if dec == nil {
		dec = defaultDecoder
	}

	r := &Reader{
		rd:        rd,
		dec:       dec,
		maxBuffer: DefaultMaxBuffer,
		readSize:  defaultReadSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read returns the next value. It returns io.EOF when the stream ends between
// values and io.ErrUnexpectedEOF when it ends inside one
func (r *Reader) Read() (Value, error) {
	if r.hasNext {
		v := r.next
		r.next, r.hasNext = Value{}, false
		return v, nil
	}

	for {
		pending := r.buf[r.start:]

		if len(pending) > 0 {
			v, rest, err := r.dec.Decode(pending)
			if err == nil {
				r.start += len(pending) - len(rest)
				return v, nil
			}

			err = r.streamError(err)
			if !IsIncomplete(err) {
				return Value{}, err
			}
			if r.eof {
				return Value{}, fmt.Errorf("%w: %w", io.ErrUnexpectedEOF, err)
			}
		} else if r.eof {
			return Value{}, io.EOF
		}

		if err := r.fill(); err != nil {
			return Value{}, err
		}
	}
}

// Ready reports whether the next Read returns without reading from the stream,
// either because a whole value is buffered or because the buffered bytes are
// already known to be malformed
func (r *Reader) Ready() bool {
	if r.hasNext {
		return true
	}

	pending := r.buf[r.start:]
	if len(pending) == 0 {
		return r.eof
	}

	v, rest, err := r.dec.Decode(pending)
	if err != nil {
		return !IsIncomplete(err) || r.eof
	}

	r.start += len(pending) - len(rest)
	r.next, r.hasNext = v, true
	return true
}

// Buffered returns the number of bytes received but not decoded yet
func (r *Reader) Buffered() int {
	return len(r.buf) - r.start
}

// streamError moves the offset of a decode error from the pending buffer to the stream
func (r *Reader) streamError(err error) error {
	var de *DecodeError
	if !errors.As(err, &de) {
		return err
	}

	shifted := *de
	shifted.Offset += int(r.consumed) + r.start
	return &shifted
}

func (r *Reader) fill() error {
	if r.start > 0 {
		n := copy(r.buf, r.buf[r.start:])
		r.buf = r.buf[:n]
		r.consumed += int64(r.start)
		r.start = 0
	}

	if len(r.buf) >= r.maxBuffer {
		return ErrBufferFull
	}

	if free := cap(r.buf) - len(r.buf); free < r.readSize {
		size := min(max(2*cap(r.buf), len(r.buf)+r.readSize), r.maxBuffer)
		grown := make([]byte, len(r.buf), size)
		copy(grown, r.buf)
		r.buf = grown
	}

	n, err := r.rd.Read(r.buf[len(r.buf):cap(r.buf)])
	r.buf = r.buf[:len(r.buf)+n]

	if errors.Is(err, io.EOF) {
		r.eof = true
		return nil
	}
	return err
}
