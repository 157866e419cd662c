package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Decoder.MaxDepth)
	assert.False(t, cfg.Decoder.PreserveEmpty)
	assert.Equal(t, 64<<20, cfg.Reader.MaxBuffer)
	assert.Equal(t, "127.0.0.1:6379", cfg.Client.Addr)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "127.0.0.1:6380", cfg.Server.Listen)
	assert.False(t, cfg.Server.ReusePort)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := []byte(`
decoder:
  max_depth: 16
  preserve_empty: true
client:
  addr: "10.0.0.1:6380"
server:
  reuseport: true
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), file, 0o644))

	t.Setenv("INHALE_LOG_FORMAT", "json")
	t.Setenv("INHALE_CLIENT_TIMEOUT", "250ms")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-depth", 0, "")
	flags.String("addr", "", "")
	require.NoError(t, flags.Parse([]string{"--max-depth=8"}))

	cfg, err := Load(dir, flags)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Decoder.MaxDepth, "flag wins over file")
	assert.True(t, cfg.Decoder.PreserveEmpty)
	assert.Equal(t, "10.0.0.1:6380", cfg.Client.Addr, "unset flag keeps file value")
	assert.Equal(t, 250*time.Millisecond, cfg.Client.Timeout)
	assert.True(t, cfg.Server.ReusePort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"Negative depth", "INHALE_DECODER_MAX_DEPTH", "-1"},
		{"Zero buffer", "INHALE_READER_MAX_BUFFER", "0"},
		{"Zero timeout", "INHALE_CLIENT_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)

			_, err := Load(t.TempDir(), nil)
			assert.Error(t, err)
		})
	}
}
