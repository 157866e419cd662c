// Package client sends commands to a RESP speaking server and decodes its replies
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/resp"
)

// Options configures a Client
type Options struct {
	Timeout   time.Duration // per call deadline when ctx has none, 0 disables it
	Decoder   *resp.Decoder // nesting limit of replies, nil selects the default; replies are always read as RESP2
	MaxBuffer int           // 0 selects resp.DefaultMaxBuffer
	Logger    *zap.Logger   // nil disables logging
}

// Client wraps a network connection and exchanges RESP-encoded commands and replies.
// Calls are serialized, one request is on the wire at a time
type Client struct {
	conn    net.Conn
	reader  *resp.Reader
	writer  *resp.Encoder
	timeout time.Duration
	logger  *zap.Logger
	mu      sync.Mutex
}

// Dial connects to addr and returns a Client over the connection
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	d := net.Dialer{Timeout: opts.Timeout}

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return New(conn, opts), nil
}

// New initializes a Client from an established connection
func New(conn net.Conn, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var readerOpts []resp.ReaderOption
	if opts.MaxBuffer > 0 {
		readerOpts = append(readerOpts, resp.WithMaxBuffer(opts.MaxBuffer))
	}

	dec := opts.Decoder.Standard()
	return &Client{
		conn:    conn,
		reader:  resp.NewReader(conn, dec, readerOpts...),
		writer:  resp.NewEncoder(conn, dec),
		timeout: opts.Timeout,
		logger:  logger,
	}
}

// Do sends one command and returns the decoded reply. Error replies of the
// server are returned as values of TypeError, not as Go errors
func (c *Client) Do(ctx context.Context, cmd string, args ...string) (resp.Value, error) {
	replies, err := c.Pipeline(ctx, append([]string{cmd}, args...))
	if err != nil {
		return resp.Value{}, err
	}
	return replies[0], nil
}

// Pipeline writes all commands at once and then reads one reply per command, in order
func (c *Client) Pipeline(ctx context.Context, cmds ...[]string) ([]resp.Value, error) {
	if len(cmds) == 0 {
		return nil, nil
	}
	for i, cmd := range cmds {
		if len(cmd) == 0 {
			return nil, fmt.Errorf("command %d is empty", i)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setDeadline(ctx); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		// unblock pending I/O
		c.conn.SetDeadline(time.Now()) //nolint:errcheck
	})
	defer stop()

	for _, cmd := range cmds {
		if err := c.writer.Write(resp.MakeCommand(cmd[0], cmd[1:]...)); err != nil {
			return nil, c.fail(ctx, "write", cmd[0], err)
		}
	}
	if err := c.writer.Flush(); err != nil {
		return nil, c.fail(ctx, "write", cmds[0][0], err)
	}

	replies := make([]resp.Value, 0, len(cmds))
	for _, cmd := range cmds {
		v, err := c.reader.Read()
		if err != nil {
			return nil, c.fail(ctx, "read reply to", cmd[0], err)
		}

		if c.logger.Core().Enabled(zap.DebugLevel) {
			c.logger.Debug("reply received",
				zap.String("cmd", cmd[0]),
				zap.String("type", v.TypeName()),
			)
		}
		replies = append(replies, v)
	}

	return replies, nil
}

// Close terminates the underlying network connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) setDeadline(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok && c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	return c.conn.SetDeadline(deadline)
}

// fail prefers the context error over the I/O error it caused
func (c *Client) fail(ctx context.Context, op, cmd string, err error) error {
	if _, ok := ctx.Deadline(); ok && errors.Is(err, os.ErrDeadlineExceeded) {
		// the connection deadline is the context deadline
		<-ctx.Done()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}

	var de *resp.DecodeError
	if errors.As(err, &de) {
		c.logger.Warn("malformed reply",
			zap.String("cmd", cmd),
			zap.Stringer("kind", de.Kind),
			zap.Int("offset", de.Offset),
		)
	}

	return fmt.Errorf("%s %s: %w", op, cmd, err)
}
