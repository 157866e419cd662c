package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eternalApril/inhale/internal/persistence"
	"github.com/eternalApril/inhale/internal/resp"
)

func newAOFCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aof FILE",
		Short: "Print the commands stored in an append only file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds, err := persistence.LoadAOF(args[0], a.decoder(), a.log.Named("aof"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, err = persistence.Replay(cmds, func(name string, args []resp.Value) error {
				var b strings.Builder
				b.WriteString(name)
				for _, arg := range args {
					b.WriteByte(' ')
					b.WriteString(strconv.Quote(string(arg.String)))
				}
				_, err := fmt.Fprintln(out, b.String())
				return err
			})
			return err
		},
	}
}
