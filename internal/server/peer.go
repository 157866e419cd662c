package server

import (
	"net"
	"sync"

	"github.com/eternalApril/inhale/internal/resp"
)

// Peer represents a connected client.
// It wraps a network connection and provides synchronized methods for reading and writing RESP-encoded data
type Peer struct {
	conn   net.Conn
	reader *resp.Reader
	writer *resp.Encoder
	mu     sync.Mutex
}

// NewPeer initializes a new client peer from a network connection.
// Requests are read and replies written as RESP2 with the nesting limit of dec
func NewPeer(conn net.Conn, dec *resp.Decoder, opts ...resp.ReaderOption) *Peer {
	dec = dec.Standard()
	return &Peer{
		conn:   conn,
		reader: resp.NewReader(conn, dec, opts...),
		writer: resp.NewEncoder(conn, dec),
	}
}

// Send encodes a RESP value into the output buffer.
// This method is thread-safe and can be called from multiple goroutines
func (p *Peer) Send(v resp.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Write(v)
}

// ReadCommand reads and decodes the next RESP value from the client's input stream
func (p *Peer) ReadCommand() (resp.Value, error) {
	return p.reader.Read()
}

// Close terminates the underlying network connection
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Flush sends all buffered data to the client
func (p *Peer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Flush()
}

// HasCommand reports whether the next ReadCommand returns without waiting for the client
func (p *Peer) HasCommand() bool {
	return p.reader.Ready()
}

// RemoteAddr returns the address of the client
func (p *Peer) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}
