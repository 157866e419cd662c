package testpipeline

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/creachadair/taskgroup"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eternalApril/inhale/internal/client"
	"github.com/eternalApril/inhale/internal/resp"
	"github.com/eternalApril/inhale/internal/server"
)

func startInspector(t *testing.T) string {
	t.Helper()

	lst, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := server.New(server.Inspector{}, server.Options{})
	done := taskgroup.Go(func() error {
		return srv.Serve(ctx, lst)
	})
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, done.Wait())
	})

	return lst.Addr().String()
}

// TestPipelining drives the inspecting server with a pipeline written by go-redis
func TestPipelining(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            startInspector(t),
		Protocol:        2,
		DisableIdentity: true,
	})
	defer rdb.Close()

	ctx := t.Context()

	count := 10_000
	pipe := rdb.Pipeline()

	setResults := make([]*redis.StatusCmd, count)
	for i := 0; i < count; i++ {
		setResults[i] = pipe.Set(ctx, fmt.Sprintf("pipe_key_%d", i), fmt.Sprintf("val_%d", i), 0)
	}

	echoResults := make([]*redis.StringCmd, count)
	for i := 0; i < count; i++ {
		msg := ""
		if i%2 == 0 {
			msg = fmt.Sprintf("val_%d\r\n", i)
		}
		echoResults[i] = pipe.Echo(ctx, msg)
	}

	start := time.Now()
	_, err := pipe.Exec(ctx)
	elapsed := time.Since(start)

	require.NoError(t, err, "Pipeline execution failed")
	t.Logf("Pipeline executed in %v", elapsed)

	for i := 0; i < count; i++ {
		assert.Equal(t, "OK", setResults[i].Val(), "Set %d mismatch", i)

		val, err := echoResults[i].Result()
		assert.NoError(t, err)
		want := ""
		if i%2 == 0 {
			want = fmt.Sprintf("val_%d\r\n", i)
		}
		assert.Equal(t, want, val, "Echo %d mismatch", i)
	}
}

// TestAgainstRedis compares our decoding of real server replies with go-redis.
// It runs only when INHALE_REDIS_ADDR names a reachable server
func TestAgainstRedis(t *testing.T) {
	addr := os.Getenv("INHALE_REDIS_ADDR")
	if addr == "" {
		t.Skip("INHALE_REDIS_ADDR is not set")
	}

	ctx := t.Context()

	rdb := redis.NewClient(&redis.Options{Addr: addr, Protocol: 2})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis at %s is unreachable: %v", addr, err)
	}

	c, err := client.Dial(ctx, addr, client.Options{
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	defer c.Close()

	key := fmt.Sprintf("inhale:%d", time.Now().UnixNano())
	defer rdb.Del(context.Background(), key, key+":s")

	require.NoError(t, rdb.RPush(ctx, key, "a", "", "c\r\n").Err())
	require.NoError(t, rdb.Set(ctx, key+":s", "", 0).Err())

	want, err := rdb.LRange(ctx, key, 0, -1).Result()
	require.NoError(t, err)

	replies, err := c.Pipeline(ctx,
		[]string{"LRANGE", key, "0", "-1"},
		[]string{"LLEN", key},
		[]string{"GET", key + ":s"},
		[]string{"GET", key + ":missing"},
		[]string{"LPUSH", key + ":s", "x"},
	)
	require.NoError(t, err)

	got := make([]string, len(replies[0].Array))
	for i, v := range replies[0].Array {
		got[i] = string(v.String)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, resp.MakeInteger(int64(len(want))), replies[1])
	assert.Equal(t, resp.MakeBulkString(""), replies[2])
	assert.Equal(t, resp.MakeNilBulkString(), replies[3])
	assert.Equal(t, resp.TypeError, replies[4].Type)
}
