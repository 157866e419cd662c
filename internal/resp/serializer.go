package resp

import (
	"bytes"
)

var standardDecoder = defaultDecoder.Standard()

// SerializeCommand encodes the command in RESP2 form, as written to the wire
// and to append only files
func SerializeCommand(cmd string, args ...string) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, standardDecoder)

	if err := enc.Write(MakeCommand(cmd, args...)); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
