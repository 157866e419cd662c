// Package server accepts RESP connections, decodes every request and answers
// it through a Handler. It is meant for inspecting what clients send
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/resp"
)

// Handler answers one decoded command. args excludes the command name
type Handler interface {
	Handle(name string, args []resp.Value) resp.Value
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(name string, args []resp.Value) resp.Value

// Handle calls f
func (f HandlerFunc) Handle(name string, args []resp.Value) resp.Value {
	return f(name, args)
}

// Options configures a Server
type Options struct {
	Decoder   *resp.Decoder
	MaxBuffer int
	Logger    *zap.Logger
}

// Server serves RESP connections
type Server struct {
	handler   Handler
	dec       *resp.Decoder
	maxBuffer int
	logger    *zap.Logger

	mu    sync.Mutex
	peers map[*Peer]struct{}
	wg    sync.WaitGroup
}

// New creates a Server answering with h
func New(h Handler, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		handler:   h,
		dec:       opts.Decoder,
		maxBuffer: opts.MaxBuffer,
		logger:    logger,
		peers:     make(map[*Peer]struct{}),
	}
}

// Serve accepts connections on lst until ctx ends or lst is closed.
// Open connections are closed and waited for before Serve returns
func (s *Server) Serve(ctx context.Context, lst net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		lst.Close() //nolint:errcheck
	})
	defer stop()

	var err error
	for {
		var conn net.Conn
		conn, err = lst.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				err = nil
			}
			break
		}

		peer := s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(peer)
		}()
	}

	s.mu.Lock()
	for peer := range s.peers {
		peer.Close() //nolint:errcheck
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) track(conn net.Conn) *Peer {
	var opts []resp.ReaderOption
	if s.maxBuffer > 0 {
		opts = append(opts, resp.WithMaxBuffer(s.maxBuffer))
	}
	peer := NewPeer(conn, s.dec, opts...)

	s.mu.Lock()
	s.peers[peer] = struct{}{}
	s.mu.Unlock()
	return peer
}

// handleConnection handles a connection for a single user
func (s *Server) handleConnection(peer *Peer) {
	addr := peer.RemoteAddr()
	if s.logger.Core().Enabled(zap.DebugLevel) {
		s.logger.Debug("client connected", zap.String("addr", addr))
	}

	defer func() {
		s.mu.Lock()
		delete(s.peers, peer)
		s.mu.Unlock()

		peer.Close() //nolint:errcheck
		// log connection close
		if s.logger.Core().Enabled(zap.DebugLevel) {
			s.logger.Debug("client disconnected", zap.String("addr", addr))
		}
	}()

	for {
		cmdValue, err := peer.ReadCommand()
		if err != nil {
			s.readFailed(peer, err)
			return
		}

		var result resp.Value
		switch {
		case cmdValue.Type != resp.TypeArray:
			result = resp.MakeError("ERR Protocol error: expected array, got " + cmdValue.TypeName())
		case len(cmdValue.Array) == 0:
			continue
		default:
			name := strings.ToUpper(string(cmdValue.Array[0].String))
			result = s.handler.Handle(name, cmdValue.Array[1:])
		}

		if err = peer.Send(result); err != nil {
			s.logger.Error("error writing response:", zap.Error(err))
			return
		}

		// flush before a read that would wait for the client
		if !peer.HasCommand() {
			if err := peer.Flush(); err != nil {
				return
			}
		}
	}
}

// readFailed answers a malformed request with a protocol error before the connection is dropped
func (s *Server) readFailed(peer *Peer, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}

	var de *resp.DecodeError
	if !errors.As(err, &de) && !errors.Is(err, resp.ErrBufferFull) {
		s.logger.Warn("read command failed", zap.Error(err))
		return
	}

	s.logger.Warn("malformed request", zap.String("addr", peer.RemoteAddr()), zap.Error(err))

	if err := peer.Send(resp.MakeError("ERR Protocol error: " + err.Error())); err == nil {
		peer.Flush() //nolint:errcheck
	}
}
