package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/creachadair/taskgroup"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/resp"
)

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file...]",
		Short: "Decode pipelined RESP values from files or stdin",
		Long: `Decode pipelined RESP values from files or stdin

Every value found in the input is printed in the order it appears. With
several files they are decoded concurrently and printed one after another.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 || len(args) == 1 && args[0] == "-" {
				return a.streamValues(out, cmd.InOrStdin(), "stdin")
			}
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close() //nolint:errcheck
				return a.streamValues(out, f, args[0])
			}

			return a.decodeFiles(out, args)
		},
	}
}

// streamValues prints values as soon as they are decoded
func (a *app) streamValues(out io.Writer, in io.Reader, name string) error {
	r := resp.NewReader(in, a.decoder(), resp.WithMaxBuffer(a.cfg.Reader.MaxBuffer))

	count := 0
	for {
		v, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: value %d: %w", name, count+1, err)
		}
		if err := resp.Format(out, v); err != nil {
			return err
		}
		count++
	}

	a.log.Debug("input decoded", zap.String("input", name), zap.Int("values", count))
	return nil
}

type decoded struct {
	values []resp.Value
	err    error
}

// decodeFiles decodes every file concurrently and prints the results in argument order
func (a *app) decodeFiles(out io.Writer, names []string) error {
	results := make([]decoded, len(names))

	g := taskgroup.New(nil)
	for i, name := range names {
		g.Go(func() error {
			results[i].values, results[i].err = a.readFile(name)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	var errs error
	for i, name := range names {
		fmt.Fprintf(out, "==> %s <==\n", name)
		for _, v := range results[i].values {
			if err := resp.Format(out, v); err != nil {
				return err
			}
		}
		if err := results[i].err; err != nil {
			a.log.Error("decode failed", zap.String("file", name), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// readFile returns the values decoded before the first failure together with that failure
func (a *app) readFile(name string) ([]resp.Value, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	r := resp.NewReader(f, a.decoder(), resp.WithMaxBuffer(a.cfg.Reader.MaxBuffer))

	var values []resp.Value
	for {
		v, err := r.Read()
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return values, fmt.Errorf("%s: value %d: %w", name, len(values)+1, err)
		}
		values = append(values, v)
	}
}
