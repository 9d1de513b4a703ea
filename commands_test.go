package nm3

import (
	"bytes"
	"testing"
)

func TestWriteCommands(t *testing.T) {
	tests := []struct {
		Name     string
		Write    func(w *bytes.Buffer) error
		Expected string
	}{
		{
			Name: "query status",
			Write: func(w *bytes.Buffer) error {
				return writeQueryStatusCommand(w)
			},
			Expected: "$?",
		},
		{
			Name: "set address",
			Write: func(w *bytes.Buffer) error {
				return writeSetAddressCommand(w, 7)
			},
			Expected: "$A007",
		},
		{
			Name: "ping",
			Write: func(w *bytes.Buffer) error {
				return writePingCommand(w, 169)
			},
			Expected: "$P169",
		},
		{
			Name: "send unicast",
			Write: func(w *bytes.Buffer) error {
				return writeSendUnicastCommand(w, CommandSendUnicast, 169, []byte("hello"))
			},
			Expected: "$U16905hello",
		},
		{
			Name: "send unicast with ack",
			Write: func(w *bytes.Buffer) error {
				return writeSendUnicastCommand(w, CommandSendUnicastWithAck, 169, []byte("hello"))
			},
			Expected: "$M16905hello",
		},
		{
			Name: "send broadcast",
			Write: func(w *bytes.Buffer) error {
				return writeSendBroadcastCommand(w, []byte("hello"))
			},
			Expected: "$B05hello",
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := test.Write(&buf); err != nil {
				t.Fatal(err)
			}
			if got := buf.String(); got != test.Expected {
				t.Fatalf("expected %q, got %q", test.Expected, got)
			}
		})
	}
}

func TestWriteCommandsRejectsBadPayloads(t *testing.T) {
	var buf bytes.Buffer

	if err := writeSendUnicastCommand(&buf, CommandSendUnicast, 169, nil); err == nil {
		t.Fatal("expected an error for an empty payload")
	}

	if err := writeSendUnicastCommand(&buf, CommandSendUnicast, 169, []byte("x")); err == nil {
		t.Fatal("expected an error for a one byte payload")
	}
	if err := writeSendBroadcastCommand(&buf, []byte("x")); err == nil {
		t.Fatal("expected an error for a one byte payload")
	}

	long := bytes.Repeat([]byte{'x'}, MaxPayloadLen+1)
	if err := writeSendUnicastCommand(&buf, CommandSendUnicast, 169, long); err == nil {
		t.Fatal("expected an error for an oversized payload")
	}
	if err := writeSendBroadcastCommand(&buf, long); err == nil {
		t.Fatal("expected an error for an oversized payload")
	}

	if buf.Len() != 0 {
		t.Fatalf("nothing should be written, got %q", buf.Bytes())
	}
}
