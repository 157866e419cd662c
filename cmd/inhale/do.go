package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/client"
	"github.com/eternalApril/inhale/internal/persistence"
	"github.com/eternalApril/inhale/internal/resp"
)

func newDoCmd(a *app) *cobra.Command {
	var (
		aofFile string
		fsync   string
	)

	cmd := &cobra.Command{
		Use:   "do COMMAND [ARG...]",
		Short: "Send one command to a server and print the decoded reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := client.Dial(ctx, a.cfg.Client.Addr, client.Options{
				Timeout:   a.cfg.Client.Timeout,
				Decoder:   a.decoder(),
				MaxBuffer: a.cfg.Reader.MaxBuffer,
				Logger:    a.log.Named("client"),
			})
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			reply, err := c.Do(ctx, args[0], args[1:]...)
			if err != nil {
				return err
			}

			if err := resp.Format(cmd.OutOrStdout(), reply); err != nil {
				return err
			}

			if aofFile == "" || reply.Type == resp.TypeError {
				return nil
			}

			aof, err := persistence.NewAOF(aofFile, fsync, a.log.Named("aof"))
			if err != nil {
				return fmt.Errorf("open aof: %w", err)
			}
			if err := aof.Append(args[0], args[1:]...); err != nil {
				aof.Close() //nolint:errcheck
				return err
			}
			a.log.Debug("command recorded", zap.String("file", aofFile), zap.String("cmd", args[0]))
			return aof.Close()
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "127.0.0.1:6379", "server address")
	flags.Duration("timeout", 0, "dial and call timeout (default from config, 5s)")
	flags.StringVar(&aofFile, "aof", "", "append the command to this file when the server accepts it")
	flags.StringVar(&fsync, "fsync", "everysec", "aof fsync strategy: always, everysec, no")

	return cmd
}
