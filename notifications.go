package nm3

import (
	"errors"

	"github.com/kellegous/poop"
)

// Notification is a single sentence reported by the modem, either in
// response to a command or unsolicited (an inbound packet).
type Notification interface {
	ResponseCode() ResponseCode
}

type ResponseCode byte

const (
	// Response sentences, arrive in response to a command.
	ResponseStatus          ResponseCode = iota // #AxxxVyyyyy
	ResponseAddressSet                          // #Axxx
	ResponseRangeReport                         // #RxxxTttttt
	ResponseNoReply                             // #TO
	ResponsePingSent                            // $Pxxx
	ResponseUnicastSent                         // $Uxxxnn
	ResponseAckRequestSent                      // $Mxxxnn
	ResponseBroadcastSent                       // $Bnn
	ResponseCommandRejected                     // E
	// Push sentences, can arrive without a corresponding command.
	ResponseUnicastReceived   // #Unn<data>
	ResponseBroadcastReceived // #Bxxxnn<data>
)

var responseCodeText = map[ResponseCode]string{
	ResponseStatus:            "Status",
	ResponseAddressSet:        "AddressSet",
	ResponseRangeReport:       "RangeReport",
	ResponseNoReply:           "NoReply",
	ResponsePingSent:          "PingSent",
	ResponseUnicastSent:       "UnicastSent",
	ResponseAckRequestSent:    "AckRequestSent",
	ResponseBroadcastSent:     "BroadcastSent",
	ResponseCommandRejected:   "CommandRejected",
	ResponseUnicastReceived:   "UnicastReceived",
	ResponseBroadcastReceived: "BroadcastReceived",
}

func (c ResponseCode) String() string {
	return responseCodeText[c]
}

// ErrNoReply is returned when the peer modem does not answer a ping or
// an acknowledged unicast within the modem's reply window.
var ErrNoReply = errors.New("no reply from peer modem")

// CommandError indicates the modem rejected the last command with an
// E sentence.
type CommandError struct{}

func (e *CommandError) Error() string {
	return "command rejected by modem"
}

// parseDigits reads an unsigned decimal field. The widest field in the
// modem's grammar is the 5 digit propagation count, so anything past 9
// digits is noise and would overflow a 32 bit int anyway.
func parseDigits(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, poop.New("empty digit field")
	}
	if len(b) > 9 {
		return 0, poop.Newf("digit field %q is too long", b)
	}
	v := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, poop.Newf("invalid digit %q", c)
		}
		v = v*10 + int(c-'0')
	}
	return v, nil
}

func parseAddress(b []byte) (Address, error) {
	if len(b) != 3 {
		return 0, poop.Newf("address field has %d digits, want 3", len(b))
	}
	v, err := parseDigits(b)
	if err != nil {
		return 0, poop.Chain(err)
	}
	if v > 255 {
		return 0, poop.Newf("address %d out of range", v)
	}
	return Address(v), nil
}

func readNotification(code ResponseCode, data []byte) (Notification, error) {
	switch code {
	case ResponseStatus:
		return readStatusNotification(data)
	case ResponseAddressSet:
		return readAddressSetNotification(data)
	case ResponseRangeReport:
		return readRangeReportNotification(data)
	case ResponseNoReply:
		return &NoReplyNotification{}, nil
	case ResponsePingSent:
		return readPingSentNotification(data)
	case ResponseUnicastSent:
		return readSentNotification(ResponseUnicastSent, data)
	case ResponseAckRequestSent:
		return readSentNotification(ResponseAckRequestSent, data)
	case ResponseBroadcastSent:
		return readBroadcastSentNotification(data)
	case ResponseCommandRejected:
		return &CommandRejectedNotification{}, nil
	case ResponseUnicastReceived:
		return readUnicastReceivedNotification(data)
	case ResponseBroadcastReceived:
		return readBroadcastReceivedNotification(data)
	}
	return nil, poop.New("unknown response code")
}

// StatusNotification reports the modem's own address and battery
// level, as answered to a status query.
type StatusNotification struct {
	Address Address
	Count   uint16
}

func (n *StatusNotification) ResponseCode() ResponseCode {
	return ResponseStatus
}

// Voltage converts the raw ADC count to volts.
func (n *StatusNotification) Voltage() float64 {
	return float64(n.Count) * 15.0 / 65536.0
}

func readStatusNotification(data []byte) (*StatusNotification, error) {
	if len(data) < 5 || data[3] != 'V' {
		return nil, poop.Newf("malformed status sentence %q", data)
	}
	addr, err := parseAddress(data[:3])
	if err != nil {
		return nil, poop.Chain(err)
	}
	count, err := parseDigits(data[4:])
	if err != nil {
		return nil, poop.Chain(err)
	}
	if count > 0xffff {
		return nil, poop.Newf("battery count %d out of range", count)
	}
	return &StatusNotification{Address: addr, Count: uint16(count)}, nil
}

// AddressSetNotification acknowledges a set address command.
type AddressSetNotification struct {
	Address Address
}

func (n *AddressSetNotification) ResponseCode() ResponseCode {
	return ResponseAddressSet
}

func readAddressSetNotification(data []byte) (*AddressSetNotification, error) {
	addr, err := parseAddress(data)
	if err != nil {
		return nil, poop.Chain(err)
	}
	return &AddressSetNotification{Address: addr}, nil
}

// RangeReportNotification carries the propagation delay measured by a
// ping or an acknowledged unicast. Count is in units of 31.25us,
// one-way.
type RangeReportNotification struct {
	Address Address
	Count   uint32
}

func (n *RangeReportNotification) ResponseCode() ResponseCode {
	return ResponseRangeReport
}

func readRangeReportNotification(data []byte) (*RangeReportNotification, error) {
	if len(data) < 5 || data[3] != 'T' {
		return nil, poop.Newf("malformed range sentence %q", data)
	}
	addr, err := parseAddress(data[:3])
	if err != nil {
		return nil, poop.Chain(err)
	}
	count, err := parseDigits(data[4:])
	if err != nil {
		return nil, poop.Chain(err)
	}
	return &RangeReportNotification{Address: addr, Count: uint32(count)}, nil
}

// NoReplyNotification arrives when the peer did not answer in time.
type NoReplyNotification struct{}

func (n *NoReplyNotification) ResponseCode() ResponseCode {
	return ResponseNoReply
}

// PingSentNotification acknowledges that a ping went out over the
// acoustic channel.
type PingSentNotification struct {
	Address Address
}

func (n *PingSentNotification) ResponseCode() ResponseCode {
	return ResponsePingSent
}

func readPingSentNotification(data []byte) (*PingSentNotification, error) {
	addr, err := parseAddress(data)
	if err != nil {
		return nil, poop.Chain(err)
	}
	return &PingSentNotification{Address: addr}, nil
}

// SentNotification acknowledges that an addressed packet went out over
// the acoustic channel.
type SentNotification struct {
	code    ResponseCode
	Address Address
	Length  int
}

func (n *SentNotification) ResponseCode() ResponseCode {
	return n.code
}

func readSentNotification(code ResponseCode, data []byte) (*SentNotification, error) {
	if len(data) != 5 {
		return nil, poop.Newf("malformed sent sentence %q", data)
	}
	addr, err := parseAddress(data[:3])
	if err != nil {
		return nil, poop.Chain(err)
	}
	length, err := parseDigits(data[3:])
	if err != nil {
		return nil, poop.Chain(err)
	}
	return &SentNotification{code: code, Address: addr, Length: length}, nil
}

// BroadcastSentNotification acknowledges that a broadcast packet went
// out over the acoustic channel.
type BroadcastSentNotification struct {
	Length int
}

func (n *BroadcastSentNotification) ResponseCode() ResponseCode {
	return ResponseBroadcastSent
}

func readBroadcastSentNotification(data []byte) (*BroadcastSentNotification, error) {
	if len(data) != 2 {
		return nil, poop.Newf("malformed broadcast sent sentence %q", data)
	}
	length, err := parseDigits(data)
	if err != nil {
		return nil, poop.Chain(err)
	}
	return &BroadcastSentNotification{Length: length}, nil
}

// CommandRejectedNotification arrives when the modem refuses the last
// command.
type CommandRejectedNotification struct{}

func (n *CommandRejectedNotification) ResponseCode() ResponseCode {
	return ResponseCommandRejected
}

func (n *CommandRejectedNotification) Error() error {
	return &CommandError{}
}

// UnicastReceivedNotification carries an inbound packet addressed to
// this modem. The sender is not identified on the wire.
type UnicastReceivedNotification struct {
	Payload []byte
}

func (n *UnicastReceivedNotification) ResponseCode() ResponseCode {
	return ResponseUnicastReceived
}

func readUnicastReceivedNotification(data []byte) (*UnicastReceivedNotification, error) {
	if len(data) < 2 {
		return nil, poop.Newf("malformed unicast sentence %q", data)
	}
	length, err := parseDigits(data[:2])
	if err != nil {
		return nil, poop.Chain(err)
	}
	if len(data) != 2+length {
		return nil, poop.Newf("unicast payload has %d bytes, header says %d", len(data)-2, length)
	}
	return &UnicastReceivedNotification{Payload: data[2:]}, nil
}

// BroadcastReceivedNotification carries an inbound broadcast packet
// along with the sender's address.
type BroadcastReceivedNotification struct {
	Source  Address
	Payload []byte
}

func (n *BroadcastReceivedNotification) ResponseCode() ResponseCode {
	return ResponseBroadcastReceived
}

func readBroadcastReceivedNotification(data []byte) (*BroadcastReceivedNotification, error) {
	if len(data) < 5 {
		return nil, poop.Newf("malformed broadcast sentence %q", data)
	}
	addr, err := parseAddress(data[:3])
	if err != nil {
		return nil, poop.Chain(err)
	}
	length, err := parseDigits(data[3:5])
	if err != nil {
		return nil, poop.Chain(err)
	}
	if len(data) != 5+length {
		return nil, poop.Newf("broadcast payload has %d bytes, header says %d", len(data)-5, length)
	}
	return &BroadcastReceivedNotification{Source: addr, Payload: data[5:]}, nil
}
