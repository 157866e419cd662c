package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creachadair/taskgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternalApril/inhale/internal/resp"
	"github.com/eternalApril/inhale/internal/server"
)

// run executes the root command and returns what it printed
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", t.TempDir(), "--log-level", "error"}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestDecodeStdin(t *testing.T) {
	out, err := run(t, "+OK\r\n:42\r\n*2\r\n$3\r\nfoo\r\n*1\r\n$-1\r\n-ERR bad\r\n", "decode")
	require.NoError(t, err)

	assert.Equal(t, `OK
(integer) 42
1) "foo"
2) 1) (nil)
(error) ERR bad
`, out)
}

func TestDecodeEmptyHandling(t *testing.T) {
	out, err := run(t, "$0\r\n*0\r\n", "decode")
	require.NoError(t, err)
	assert.Equal(t, "(nil)\n(nil)\n", out)

	out, err = run(t, "$0\r\n\r\n*0\r\n", "decode", "--preserve-empty")
	require.NoError(t, err)
	assert.Equal(t, "\"\"\n(empty array)\n", out)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		want  error
	}{
		{"Unknown marker", "+OK\r\n#t\r\n", nil, resp.ErrUnknownMarker},
		{"Truncated", "$5\r\nab", nil, resp.ErrTruncatedPayload},
		{"Too deep", "*1\r\n*1\r\n*1\r\n:1\r\n", []string{"--max-depth", "2"}, resp.ErrNestingTooDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.input, append([]string{"decode"}, tt.args...)...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeFiles(t *testing.T) {
	good := writeFile(t, "good.resp", "+PONG\r\n:1\r\n")
	bad := writeFile(t, "bad.resp", ":7\r\n:x\r\n")

	out, err := run(t, "", "decode", good, bad)
	require.ErrorIs(t, err, resp.ErrInvalidIntegerLiteral)
	assert.Contains(t, err.Error(), bad)

	assert.Equal(t, "==> "+good+" <==\nPONG\n(integer) 1\n"+
		"==> "+bad+" <==\n(integer) 7\n", out)
}

func TestAOF(t *testing.T) {
	path := writeFile(t, "appendonly.aof",
		"*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$5\r\nv a l\r\n*2\r\n$3\r\nDEL\r\n$1\r\nk\r\n")

	out, err := run(t, "", "aof", path)
	require.NoError(t, err)
	assert.Equal(t, "SET \"k\" \"v a l\"\nDEL \"k\"\n", out)
}

func TestDoAgainstServer(t *testing.T) {
	lst, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := server.New(server.Inspector{}, server.Options{})
	done := taskgroup.Go(func() error {
		return srv.Serve(ctx, lst)
	})
	defer func() {
		cancel()
		assert.NoError(t, done.Wait())
	}()

	addr := lst.Addr().String()
	aof := filepath.Join(t.TempDir(), "appendonly.aof")

	out, err := run(t, "", "do", "--addr", addr, "--timeout", "1s", "--aof", aof, "--fsync", "always", "ECHO", "hello")
	require.NoError(t, err)
	assert.Equal(t, "\"hello\"\n", out)

	out, err = run(t, "", "do", "--addr", addr, "--aof", aof, "PING", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "(error) ERR wrong number of arguments for 'PING' command\n", out)

	// only the accepted command is recorded
	out, err = run(t, "", "aof", aof)
	require.NoError(t, err)
	assert.Equal(t, "ECHO \"hello\"\n", out)
}
