package persistence

import (
	"bufio"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/resp"
)

// ErrClosed is returned when a command is appended after Close
var ErrClosed = errors.New("aof: closed")

type fsyncStrategy int

const (
	fsyncAlways fsyncStrategy = iota + 1
	fsyncEverySec
	fsyncNo
)

// AOF records commands to an append only file in RESP form
type AOF struct {
	file     *os.File
	writer   *bufio.Writer
	filename string
	strategy fsyncStrategy

	commandsChan chan []byte

	stopChan chan struct{}
	mu       sync.RWMutex // held shared by writers, exclusively by Close
	closed   bool
	wg       sync.WaitGroup
	logger    *zap.Logger
}

// NewAOF construct AOF structure and starts its background writer
func NewAOF(filename string, strategyStr string, logger *zap.Logger) (*AOF, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	strategy := parseStrategy(strategyStr)

	// open file in Append mode, Create if not exists
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	aof := &AOF{
		file:         f,
		writer:       bufio.NewWriter(f), // default 4KB buffer
		filename:     filename,
		strategy:     strategy,
		commandsChan: make(chan []byte, 1024), // buffer for burst writes
		stopChan:     make(chan struct{}),
		logger:       logger,
	}

	// background disk writer
	aof.wg.Add(1)
	go aof.listen()

	return aof, nil
}

// Append serializes the command and queues it for writing
func (a *AOF) Append(cmd string, args ...string) error {
	payload, err := resp.SerializeCommand(cmd, args...)
	if err != nil {
		return err
	}
	return a.Write(payload)
}

// Write queues an already encoded command. It blocks while the queue is full
// and fails with ErrClosed once Close has been called
func (a *AOF) Write(payload []byte) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}
	// the writer keeps draining until Close gets the lock, so this send completes
	a.commandsChan <- payload
	return nil
}

func (a *AOF) listen() {
	defer a.wg.Done()

	var ticker = time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	if a.strategy != fsyncEverySec {
		ticker.Stop()
	}

	for {
		select {
		case p := <-a.commandsChan:
			a.write(p)

		case <-ticker.C:
			a.sync()

		case <-a.stopChan:
			// drain what was queued before Close
			for {
				select {
				case p := <-a.commandsChan:
					a.write(p)
				default:
					a.sync()
					return
				}
			}
		}
	}
}

func (a *AOF) write(p []byte) {
	if _, err := a.writer.Write(p); err != nil {
		a.logger.Error("AOF write error", zap.Error(err))
		return
	}

	if a.strategy == fsyncAlways {
		a.sync()
	}
}

// sync flushes the buffer and, unless fsync is disabled, forces it to disk
func (a *AOF) sync() {
	if err := a.writer.Flush(); err != nil {
		a.logger.Error("AOF flush error", zap.Error(err))
		return
	}
	if a.strategy == fsyncNo {
		return
	}
	if err := a.file.Sync(); err != nil {
		a.logger.Error("AOF fsync error", zap.Error(err))
	}
}

// Close AOF persistence
func (a *AOF) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	close(a.stopChan)
	a.wg.Wait() // wait for background routine to finish last flush
	return a.file.Close()
}

func parseStrategy(s string) fsyncStrategy {
	switch s {
	case "always":
		return fsyncAlways
	case "no":
		return fsyncNo
	default:
		return fsyncEverySec
	}
}
