package main

import (
	"errors"
	"fmt"

	"github.com/kellegous/poop"
	"github.com/spf13/cobra"

	"github.com/DeanP-R/nm3"
)

func newPingCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping <addr>",
		Short: "Measure the distance to a peer modem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := parsePeerAddress(args[0])
			if err != nil {
				return poop.Chain(err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			conn, err := o.connect(ctx)
			if err != nil {
				return poop.Chain(err)
			}
			defer conn.Disconnect()

			r, err := conn.Ping(ctx, peer)
			if errors.Is(err, nm3.ErrNoReply) {
				fmt.Fprintf(cmd.OutOrStdout(), "No reply from modem %d\n", peer)
				return nil
			} else if err != nil {
				return poop.Chain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Distance to modem %d: %.2f m (delay %s)\n", peer, r.Distance, r.Delay)
			return nil
		},
	}
}
