package main

import (
	"errors"
	"fmt"

	"github.com/kellegous/poop"
	"github.com/spf13/cobra"

	"github.com/DeanP-R/nm3"
)

func newSendCommand(o *options) *cobra.Command {
	var withAck bool

	cmd := &cobra.Command{
		Use:   "send <addr> <text>",
		Short: "Send a unicast message to a peer modem",
		Args:  cobra.ExactArgs(2),
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

			if withAck {
				r, err := conn.SendUnicastMessageWithAck(ctx, peer, []byte(args[1]))
				if errors.Is(err, nm3.ErrNoReply) {
					fmt.Fprintf(cmd.OutOrStdout(), "Sent, but modem %d did not acknowledge\n", peer)
					return nil
				} else if err != nil {
					return poop.Chain(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged by modem %d at %.2f m\n", peer, r.Distance)
				return nil
			}

			receipt, err := conn.SendUnicastMessage(ctx, peer, []byte(args[1]))
			if err != nil {
				return poop.Chain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d bytes to modem %d\n", receipt.Length, peer)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withAck, "ack", false, "wait for the peer's acoustic acknowledgement")

	return cmd
}

func newBroadcastCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <text>",
		Short: "Broadcast a message to every modem in range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			conn, err := o.connect(ctx)
			if err != nil {
				return poop.Chain(err)
			}
			defer conn.Disconnect()

			receipt, err := conn.SendBroadcastMessage(ctx, []byte(args[0]))
			if err != nil {
				return poop.Chain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Broadcast %d bytes\n", receipt.Length)
			return nil
		},
	}
}
