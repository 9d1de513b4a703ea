package main

import (
	"fmt"

	"github.com/kellegous/poop"
	"github.com/spf13/cobra"
)

func newStatusCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the modem's address and battery voltage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			conn, err := o.connect(ctx)
			if err != nil {
				return poop.Chain(err)
			}
			defer conn.Disconnect()

			status, err := conn.QueryStatus(ctx)
			if err != nil {
				return poop.Chain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Address: %d\n", status.Address)
			fmt.Fprintf(cmd.OutOrStdout(), "Voltage: %v\n", status.Voltage)
			return nil
		},
	}
}

func newVoltageCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "voltage",
		Short: "Report the modem's battery voltage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			conn, err := o.connect(ctx)
			if err != nil {
				return poop.Chain(err)
			}
			defer conn.Disconnect()

			voltage, err := conn.GetVoltage(ctx)
			if err != nil {
				return poop.Chain(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Voltage: %v\n", voltage)
			return nil
		},
	}
}
