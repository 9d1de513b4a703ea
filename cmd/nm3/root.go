package main

import (
	"context"
	"encoding/hex"
	"os"
	"os/signal"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/kellegous/poop"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DeanP-R/nm3"
	"github.com/DeanP-R/nm3/serial"
)

// options are shared by every sub-command. Values come from flags,
// falling back to the environment (optionally loaded from a .env
// file).
type options struct {
	device     string
	keyHex     string
	soundSpeed float64
	verbose    bool
}

func (o *options) resolve() {
	// A missing .env file is fine; flags and the process environment
	// still apply.
	godotenv.Load()

	if o.device == "" {
		o.device = os.Getenv("NM3_DEVICE")
	}
	if o.keyHex == "" {
		o.keyHex = os.Getenv("NM3_KEY")
	}
	if o.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func (o *options) connect(ctx context.Context) (*nm3.Conn, error) {
	if o.device == "" {
		return nil, poop.New("no serial device: pass --device or set NM3_DEVICE")
	}

	connOpts := []nm3.Option{
		nm3.WithSoundSpeed(o.soundSpeed),
	}

	if o.keyHex != "" {
		key, err := hex.DecodeString(o.keyHex)
		if err != nil {
			return nil, poop.Chain(err)
		}
		cipher, err := nm3.NewMessageCipher(key)
		if err != nil {
			return nil, poop.Chain(err)
		}
		connOpts = append(connOpts, nm3.WithCipher(cipher))
	}

	opts := []serial.ConnectOption{
		serial.WithConnOptions(connOpts...),
		serial.OnSend(func(code nm3.CommandCode, data []byte) {
			logrus.WithFields(logrus.Fields{
				"command": code.String(),
				"data":    string(data),
			}).Debug("tx")
		}),
		serial.OnRecv(func(code nm3.ResponseCode, data []byte) {
			logrus.WithFields(logrus.Fields{
				"response": code.String(),
				"data":     string(data),
			}).Debug("rx")
		}),
	}

	return serial.Connect(ctx, o.device, opts...)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func parsePeerAddress(arg string) (nm3.Address, error) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, poop.Chain(err)
	}
	if v < 0 || v > 255 {
		return 0, poop.Newf("address %d out of range 0-255", v)
	}
	return nm3.Address(v), nil
}

func newRootCommand() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:           "nm3",
		Short:         "Control an NM3 underwater acoustic modem",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			o.resolve()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.device, "device", "", "serial device of the modem (env NM3_DEVICE)")
	flags.StringVar(&o.keyHex, "key", "", "hex encoded AES-256 payload key (env NM3_KEY)")
	flags.Float64Var(&o.soundSpeed, "sound-speed", nm3.SpeedOfSound, "speed of sound in m/s for distance conversion")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "log every sentence on the serial line")

	cmd.AddCommand(
		newStatusCommand(o),
		newVoltageCommand(o),
		newPingCommand(o),
		newSendCommand(o),
		newBroadcastCommand(o),
		newListenCommand(o),
		newDemoCommand(o),
	)

	return cmd
}
