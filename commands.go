package nm3

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kellegous/poop"
)

// Address identifies a modem on the acoustic network. The wire format
// is always three decimal digits.
type Address uint8

func (a Address) String() string {
	return fmt.Sprintf("%03d", uint8(a))
}

// MinPayloadLen and MaxPayloadLen bound the payload the modem will
// accept in a single unicast or broadcast packet.
const (
	MinPayloadLen = 2
	MaxPayloadLen = 64
)

type CommandCode byte

const (
	CommandQueryStatus        CommandCode = '?'
	CommandSetAddress         CommandCode = 'A'
	CommandPing               CommandCode = 'P'
	CommandSendUnicast        CommandCode = 'U'
	CommandSendUnicastWithAck CommandCode = 'M'
	CommandSendBroadcast      CommandCode = 'B'
)

var commandCodeText = map[CommandCode]string{
	CommandQueryStatus:        "QueryStatus",
	CommandSetAddress:         "SetAddress",
	CommandPing:               "Ping",
	CommandSendUnicast:        "SendUnicast",
	CommandSendUnicastWithAck: "SendUnicastWithAck",
	CommandSendBroadcast:      "SendBroadcast",
}

func (c CommandCode) String() string {
	return commandCodeText[c]
}

func checkPayload(payload []byte) error {
	if len(payload) < MinPayloadLen {
		return poop.Newf("payload length %d is below the %d byte minimum",
			len(payload), MinPayloadLen)
	}
	if len(payload) > MaxPayloadLen {
		return poop.Newf("payload length %d exceeds %d", len(payload), MaxPayloadLen)
	}
	return nil
}

func writeQueryStatusCommand(w io.Writer) error {
	if _, err := w.Write([]byte{'$', byte(CommandQueryStatus)}); err != nil {
		return poop.Chain(err)
	}
	return nil
}

func writeSetAddressCommand(w io.Writer, addr Address) error {
	if _, err := fmt.Fprintf(w, "$%c%03d", CommandSetAddress, addr); err != nil {
		return poop.Chain(err)
	}
	return nil
}

func writePingCommand(w io.Writer, addr Address) error {
	if _, err := fmt.Fprintf(w, "$%c%03d", CommandPing, addr); err != nil {
		return poop.Chain(err)
	}
	return nil
}

func writeSendUnicastCommand(w io.Writer, code CommandCode, addr Address, payload []byte) error {
	if err := checkPayload(payload); err != nil {
		return poop.Chain(err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "$%c%03d%02d", code, addr, len(payload))
	buf.Write(payload)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return poop.Chain(err)
	}
	return nil
}

func writeSendBroadcastCommand(w io.Writer, payload []byte) error {
	if err := checkPayload(payload); err != nil {
		return poop.Chain(err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "$%c%02d", CommandSendBroadcast, len(payload))
	buf.Write(payload)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return poop.Chain(err)
	}
	return nil
}
