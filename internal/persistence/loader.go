package persistence

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/resp"
)

// LoadAOF reads the AOF file and returns the commands it holds, in order.
// The file is RESP2 as written by AOF, dec only contributes its nesting limit.
// A missing file is an empty log
func LoadAOF(filename string, dec *resp.Decoder, logger *zap.Logger) ([]resp.Value, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // Fresh start
		}
		return nil, err
	}
	defer file.Close() //nolint:errcheck

	reader := resp.NewReader(file, dec.Standard())
	var commands []resp.Value

	for {
		val, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				logger.Warn("AOF ends with an incomplete command",
					zap.String("file", filename),
					zap.Int("commands", len(commands)),
				)
			}
			return nil, fmt.Errorf("load %s: %w", filename, err)
		}
		commands = append(commands, val)
	}

	logger.Debug("AOF loaded", zap.String("file", filename), zap.Int("commands", len(commands)))
	return commands, nil
}

// Replay hands every command to fn as its name and arguments.
// Values that are not non-empty arrays are skipped, the number of replayed commands is returned
func Replay(cmds []resp.Value, fn func(name string, args []resp.Value) error) (int, error) {
	replayed := 0
	for _, cmdVal := range cmds {
		if cmdVal.Type != resp.TypeArray || len(cmdVal.Array) == 0 {
			continue
		}

		name := string(cmdVal.Array[0].String)
		if err := fn(name, cmdVal.Array[1:]); err != nil {
			return replayed, fmt.Errorf("replay %s: %w", name, err)
		}
		replayed++
	}
	return replayed, nil
}
