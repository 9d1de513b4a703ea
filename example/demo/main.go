// The original ropeless fishing gear demonstrator: read the battery
// voltage, range the peer modem and send the distance back to it.
package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/kellegous/poop"

	"github.com/DeanP-R/nm3"
	nm3_serial "github.com/DeanP-R/nm3/serial"
)

func main() {
	if err := run(context.Background()); err != nil {
		poop.HitFan(err)
	}
}

func run(ctx context.Context) error {
	var peer int
	flag.IntVar(&peer, "peer", 169, "address of the peer modem")
	flag.Parse()

	if flag.NArg() != 1 {
		return poop.Newf("expected 1 argument, got %d", flag.NArg())
	}

	conn, err := nm3_serial.Connect(ctx, flag.Arg(0))
	if err != nil {
		return poop.Chain(err)
	}
	defer conn.Disconnect()

	message := "Ocean Lab Test"
	modem := nm3.Address(peer)

	voltage, err := conn.GetVoltage(ctx)
	if err != nil {
		return poop.Chain(err)
	}
	fmt.Printf("Voltage: %s\n", strconv.FormatFloat(voltage, 'g', -1, 64))

	r, err := conn.Ping(ctx, modem)
	if err != nil {
		return poop.Chain(err)
	}
	distance := strconv.FormatFloat(r.Distance, 'g', -1, 64)
	fmt.Printf("Distance to modem %d: %s\n", modem, distance)

	receipt, err := conn.SendUnicastMessage(ctx, modem, []byte(distance))
	if err != nil {
		return poop.Chain(err)
	}
	fmt.Printf("Sending message: %s. To modem: %d. Returning: %s.\n", message, modem, receipt)

	return nil
}
