package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/kellegous/poop"
	"github.com/spf13/cobra"

	"github.com/DeanP-R/nm3"
)

func newDemoCommand(o *options) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "demo <addr>",
		Short: "Run the ropeless gear demonstrator sequence against a peer",
		Long: "Reads the battery voltage, ranges the peer modem and sends the\n" +
			"measured distance back to it as a unicast message.",
		Args: cobra.ExactArgs(1),
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

			return runDemo(ctx, conn, peer, message, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&message, "message", "Ocean Lab Test", "message reported alongside the send")

	return cmd
}

// runDemo performs the demonstrator's fixed sequence: one voltage
// query, one ping, one unicast of the distance string. The first
// failure aborts the remainder.
func runDemo(ctx context.Context, conn *nm3.Conn, peer nm3.Address, message string, out io.Writer) error {
	voltage, err := conn.GetVoltage(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	fmt.Fprintf(out, "Voltage: %s\n", strconv.FormatFloat(voltage, 'g', -1, 64))

	r, err := conn.Ping(ctx, peer)
	if err != nil {
		return poop.Chain(err)
	}
	distance := strconv.FormatFloat(r.Distance, 'g', -1, 64)
	fmt.Fprintf(out, "Distance to modem %d: %s\n", peer, distance)

	receipt, err := conn.SendUnicastMessage(ctx, peer, []byte(distance))
	if err != nil {
		return poop.Chain(err)
	}
	fmt.Fprintf(out, "Sending message: %s. To modem: %d. Returning: %s.\n", message, peer, receipt)

	return nil
}
