package main

import (
	"context"
	"errors"

	"github.com/kellegous/poop"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/DeanP-R/nm3"
)

func newListenCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print inbound messages until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			conn, err := o.connect(ctx)
			if err != nil {
				return poop.Chain(err)
			}
			defer conn.Disconnect()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				for msg, err := range conn.Messages(ctx) {
					if errors.Is(err, context.Canceled) || errors.Is(err, nm3.ErrDisconnected) {
						return nil
					} else if err != nil {
						logrus.WithError(err).Warn("dropping message")
						continue
					}

					entry := logrus.WithField("payload", string(msg.Payload))
					switch msg.Type {
					case nm3.MessageTypeUnicast:
						entry.Info("unicast received")
					case nm3.MessageTypeBroadcast:
						entry.WithField("source", msg.Source).Info("broadcast received")
					}
				}
				return nil
			})

			return g.Wait()
		},
	}
}
