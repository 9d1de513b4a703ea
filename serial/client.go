// Package serial connects to an NM3 modem over its UART interface.
package serial

import (
	"context"

	"github.com/kellegous/poop"
	"go.bug.st/serial"

	"github.com/DeanP-R/nm3"
)

// Connect opens the serial device and returns a connection to the
// modem attached to it. The returned connection owns the port; use
// Disconnect to release it.
func Connect(ctx context.Context, device string, opts ...ConnectOption) (*nm3.Conn, error) {
	o := ConnectOptions{
		baudRate: DefaultBaudRate,
	}
	for _, opt := range opts {
		opt(&o)
	}

	port, err := serial.Open(device, &serial.Mode{
		BaudRate: o.baudRate,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	})
	if err != nil {
		return nil, poop.Chain(err)
	}

	t := &tx{
		port:   port,
		center: nm3.NewNotificationCenter(),
		onSend: o.onSend,
	}

	go t.readLoop(o.onRecv)

	return nm3.NewConnection(t, o.connOpts...), nil
}
