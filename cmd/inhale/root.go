package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eternalApril/inhale/internal/config"
	"github.com/eternalApril/inhale/internal/logger"
	"github.com/eternalApril/inhale/internal/resp"
)

// app carries what every subcommand needs once flags are parsed
type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "inhale",
		Short: "Decode RESP streams into readable values",
		Long: `Decode RESP streams into readable values

inhale reads the wire format spoken by Redis compatible servers and prints
every decoded value the way redis-cli does.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.log.Sync() //nolint:errcheck
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", ".", "directory holding config.yaml")
	flags.Int("max-depth", resp.DefaultMaxDepth, "maximum array nesting accepted by the decoder")
	flags.Bool("preserve-empty", false, "keep empty bulk strings and arrays apart from null ones when decoding input; connections and AOF files always use RESP2")
	flags.Int("max-buffer", resp.DefaultMaxBuffer, "maximum bytes buffered for one value")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")

	root.AddCommand(
		newDecodeCmd(a),
		newDoCmd(a),
		newAOFCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) decoder() *resp.Decoder {
	return resp.NewDecoder(
		resp.WithMaxDepth(a.cfg.Decoder.MaxDepth),
		resp.WithPreserveEmpty(a.cfg.Decoder.PreserveEmpty),
	)
}
