// Prints every message the modem hears until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/kellegous/poop"
	"golang.org/x/sync/errgroup"

	"github.com/DeanP-R/nm3"
	nm3_serial "github.com/DeanP-R/nm3/serial"
)

func main() {
	if err := run(context.Background()); err != nil {
		poop.HitFan(err)
	}
}

func run(ctx context.Context) error {
	flag.Parse()

	if flag.NArg() != 1 {
		return poop.Newf("expected 1 argument, got %d", flag.NArg())
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	conn, err := nm3_serial.Connect(ctx, flag.Arg(0))
	if err != nil {
		return poop.Chain(err)
	}
	defer conn.Disconnect()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for msg, err := range conn.Messages(ctx) {
			if err != nil {
				return poop.Chain(err)
			}

			switch msg.Type {
			case nm3.MessageTypeUnicast:
				fmt.Printf("unicast: %q\n", msg.Payload)
			case nm3.MessageTypeBroadcast:
				fmt.Printf("broadcast from %d: %q\n", msg.Source, msg.Payload)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return poop.Chain(err)
	}
	return nil
}
