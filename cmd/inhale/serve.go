package main

import (
	"net"
	"os/signal"
	"syscall"

	reuseport "github.com/kavu/go_reuseport"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept client connections and log every decoded command",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			listener, err := a.listen()
			if err != nil {
				return err
			}
			a.log.Info("listening on", zap.String("address", listener.Addr().String()))

			srv := server.New(server.Inspector{Logger: a.log.Named("inspect")}, server.Options{
				Decoder:   a.decoder(),
				MaxBuffer: a.cfg.Reader.MaxBuffer,
				Logger:    a.log.Named("server"),
			})

			if err := srv.Serve(ctx, listener); err != nil {
				return err
			}

			a.log.Info("inhale stopped")
			return nil
		},
	}

	cmd.Flags().String("listen", "127.0.0.1:6380", "address to accept connections on")
	cmd.Flags().Bool("reuseport", false, "bind with SO_REUSEPORT so several instances share the address")
	return cmd
}

func (a *app) listen() (net.Listener, error) {
	if a.cfg.Server.ReusePort {
		return reuseport.Listen("tcp", a.cfg.Server.Listen)
	}
	return net.Listen("tcp", a.cfg.Server.Listen)
}
