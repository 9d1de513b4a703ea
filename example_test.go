package nm3_test

import (
	"context"
	"fmt"
	"log"

	"github.com/DeanP-R/nm3"
	"github.com/DeanP-R/nm3/serial"
)

func ExampleConn_Ping() {
	// Measure the distance to modem 169.
	ctx := context.Background()

	conn, err := serial.Connect(ctx, "/dev/ttyACM0")
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Disconnect()

	r, err := conn.Ping(ctx, 169)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("distance: %.2f m\n", r.Distance)
}

func ExampleConn_SendUnicastMessage() {
	// Send an encrypted message to modem 169.
	ctx := context.Background()

	cipher, err := nm3.NewMessageCipher(make([]byte, nm3.KeyLen))
	if err != nil {
		log.Fatal(err)
	}

	conn, err := serial.Connect(
		ctx,
		"/dev/ttyACM0",
		serial.WithConnOptions(nm3.WithCipher(cipher)),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Disconnect()

	receipt, err := conn.SendUnicastMessage(ctx, 169, []byte("Ocean Lab Test"))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("sent: %v\n", receipt)
}
