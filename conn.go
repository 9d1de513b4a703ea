package nm3

import (
	"context"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/kellegous/poop"
)

// SpeedOfSound is the default speed of sound in seawater, in meters
// per second, used to turn propagation delays into distances.
const SpeedOfSound = 1500.0

// tickDuration is the unit of the modem's range report counter.
const tickDuration = 31250 * time.Nanosecond

type Transport interface {
	io.Writer
	Disconnect() error
	Subscribe(ctx context.Context, codes ...ResponseCode) iter.Seq2[Notification, error]
}

type Conn struct {
	tx         Transport
	soundSpeed float64
	cipher     *MessageCipher
}

type Option func(*Conn)

// WithSoundSpeed overrides the speed of sound used for distance
// conversion, in meters per second.
func WithSoundSpeed(mps float64) Option {
	return func(c *Conn) {
		c.soundSpeed = mps
	}
}

// WithCipher encrypts outbound message payloads and decrypts inbound
// ones with the given cipher. Pings and status queries are unaffected.
func WithCipher(mc *MessageCipher) Option {
	return func(c *Conn) {
		c.cipher = mc
	}
}

func NewConnection(tx Transport, opts ...Option) *Conn {
	c := &Conn{
		tx:         tx,
		soundSpeed: SpeedOfSound,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Conn) Disconnect() error {
	return c.tx.Disconnect()
}

// Status is the modem's answer to a status query.
type Status struct {
	Address Address
	Voltage float64
}

// QueryStatus returns the modem's own address and battery voltage.
func (c *Conn) QueryStatus(ctx context.Context) (*Status, error) {
	next, done := iter.Pull2(
		c.tx.Subscribe(ctx, ResponseStatus, ResponseCommandRejected),
	)
	defer done()

	if err := writeQueryStatusCommand(c.tx); err != nil {
		return nil, poop.Chain(err)
	}

	res, err, ok := next()
	if !ok {
		return nil, poop.Chain(io.ErrUnexpectedEOF)
	} else if err != nil {
		return nil, poop.Chain(err)
	}

	switch t := res.(type) {
	case *StatusNotification:
		return &Status{Address: t.Address, Voltage: t.Voltage()}, nil
	case *CommandRejectedNotification:
		return nil, poop.Chain(t.Error())
	}

	panic("unreachable")
}

// GetAddress returns the modem's own address.
func (c *Conn) GetAddress(ctx context.Context) (Address, error) {
	status, err := c.QueryStatus(ctx)
	if err != nil {
		return 0, poop.Chain(err)
	}
	return status.Address, nil
}

// GetVoltage returns the modem's battery voltage in volts.
func (c *Conn) GetVoltage(ctx context.Context) (float64, error) {
	status, err := c.QueryStatus(ctx)
	if err != nil {
		return 0, poop.Chain(err)
	}
	return status.Voltage, nil
}

// SetAddress assigns a new address to the modem.
func (c *Conn) SetAddress(ctx context.Context, addr Address) error {
	next, done := iter.Pull2(
		c.tx.Subscribe(ctx, ResponseAddressSet, ResponseCommandRejected),
	)
	defer done()

	if err := writeSetAddressCommand(c.tx, addr); err != nil {
		return poop.Chain(err)
	}

	for {
		res, err, _ := next()
		if err != nil {
			return poop.Chain(err)
		}

		switch t := res.(type) {
		case *AddressSetNotification:
			if t.Address != addr {
				continue
			}
			return nil
		case *CommandRejectedNotification:
			return poop.Chain(t.Error())
		}
	}
}

// Range is the result of a ranging operation against a peer modem.
type Range struct {
	Address  Address
	Count    uint32
	Delay    time.Duration
	Distance float64
}

func (c *Conn) rangeFrom(n *RangeReportNotification) *Range {
	delay := time.Duration(n.Count) * tickDuration
	return &Range{
		Address:  n.Address,
		Count:    n.Count,
		Delay:    delay,
		Distance: delay.Seconds() * c.soundSpeed,
	}
}

// Ping measures the distance to the peer modem. ErrNoReply is
// returned when the peer does not answer within the modem's reply
// window.
func (c *Conn) Ping(ctx context.Context, addr Address) (*Range, error) {
	next, done := iter.Pull2(
		c.tx.Subscribe(ctx, ResponseRangeReport, ResponseNoReply, ResponseCommandRejected),
	)
	defer done()

	if err := writePingCommand(c.tx, addr); err != nil {
		return nil, poop.Chain(err)
	}

	for {
		res, err, _ := next()
		if err != nil {
			return nil, poop.Chain(err)
		}

		switch t := res.(type) {
		case *RangeReportNotification:
			if t.Address != addr {
				continue
			}
			return c.rangeFrom(t), nil
		case *NoReplyNotification:
			return nil, poop.Chain(ErrNoReply)
		case *CommandRejectedNotification:
			return nil, poop.Chain(t.Error())
		}
	}
}

// SendReceipt reports that the modem accepted a packet for
// transmission.
type SendReceipt struct {
	Address Address
	Length  int
}

// String renders the receipt the way the modem echoed it.
func (r *SendReceipt) String() string {
	return fmt.Sprintf("$U%03d%02d", r.Address, r.Length)
}

func (c *Conn) seal(payload []byte) ([]byte, error) {
	if c.cipher == nil {
		return payload, nil
	}
	sealed, err := c.cipher.Seal(payload)
	if err != nil {
		return nil, poop.Chain(err)
	}
	if len(sealed) > MaxPayloadLen {
		return nil, poop.Newf("encrypted payload is %d bytes, exceeds %d", len(sealed), MaxPayloadLen)
	}
	return sealed, nil
}

func (c *Conn) open(payload []byte) ([]byte, error) {
	if c.cipher == nil {
		return payload, nil
	}
	opened, err := c.cipher.Open(payload)
	if err != nil {
		return nil, poop.Chain(err)
	}
	return opened, nil
}

// SendUnicastMessage sends payload to the peer modem. The receipt
// confirms transmission, not delivery.
func (c *Conn) SendUnicastMessage(ctx context.Context, addr Address, payload []byte) (*SendReceipt, error) {
	data, err := c.seal(payload)
	if err != nil {
		return nil, poop.Chain(err)
	}

	next, done := iter.Pull2(
		c.tx.Subscribe(ctx, ResponseUnicastSent, ResponseCommandRejected),
	)
	defer done()

	if err := writeSendUnicastCommand(c.tx, CommandSendUnicast, addr, data); err != nil {
		return nil, poop.Chain(err)
	}

	for {
		res, err, _ := next()
		if err != nil {
			return nil, poop.Chain(err)
		}

		switch t := res.(type) {
		case *SentNotification:
			if t.Address != addr {
				continue
			}
			return &SendReceipt{Address: t.Address, Length: t.Length}, nil
		case *CommandRejectedNotification:
			return nil, poop.Chain(t.Error())
		}
	}
}

// SendUnicastMessageWithAck sends payload to the peer modem and waits
// for the peer's acoustic acknowledgement, which doubles as a range
// measurement. ErrNoReply is returned when no acknowledgement
// arrives.
func (c *Conn) SendUnicastMessageWithAck(ctx context.Context, addr Address, payload []byte) (*Range, error) {
	data, err := c.seal(payload)
	if err != nil {
		return nil, poop.Chain(err)
	}

	next, done := iter.Pull2(
		c.tx.Subscribe(ctx, ResponseRangeReport, ResponseNoReply, ResponseCommandRejected),
	)
	defer done()

	if err := writeSendUnicastCommand(c.tx, CommandSendUnicastWithAck, addr, data); err != nil {
		return nil, poop.Chain(err)
	}

	for {
		res, err, _ := next()
		if err != nil {
			return nil, poop.Chain(err)
		}

		switch t := res.(type) {
		case *RangeReportNotification:
			if t.Address != addr {
				continue
			}
			return c.rangeFrom(t), nil
		case *NoReplyNotification:
			return nil, poop.Chain(ErrNoReply)
		case *CommandRejectedNotification:
			return nil, poop.Chain(t.Error())
		}
	}
}

// SendBroadcastMessage sends payload to every modem in acoustic range.
func (c *Conn) SendBroadcastMessage(ctx context.Context, payload []byte) (*SendReceipt, error) {
	data, err := c.seal(payload)
	if err != nil {
		return nil, poop.Chain(err)
	}

	next, done := iter.Pull2(
		c.tx.Subscribe(ctx, ResponseBroadcastSent, ResponseCommandRejected),
	)
	defer done()

	if err := writeSendBroadcastCommand(c.tx, data); err != nil {
		return nil, poop.Chain(err)
	}

	res, err, _ := next()
	if err != nil {
		return nil, poop.Chain(err)
	}

	switch t := res.(type) {
	case *BroadcastSentNotification:
		return &SendReceipt{Length: t.Length}, nil
	case *CommandRejectedNotification:
		return nil, poop.Chain(t.Error())
	}

	panic("unreachable")
}

type MessageType byte

const (
	MessageTypeUnicast MessageType = iota
	MessageTypeBroadcast
)

// Message is an inbound payload from another modem. Source is only
// known for broadcasts; the wire format of a unicast does not carry
// the sender.
type Message struct {
	Type    MessageType
	Source  Address
	Payload []byte
}

// Messages yields inbound messages until the context is cancelled or
// the transport disconnects. When a cipher is configured, payloads
// that fail to decrypt are yielded as errors and the stream
// continues.
func (c *Conn) Messages(ctx context.Context) iter.Seq2[*Message, error] {
	return func(yield func(*Message, error) bool) {
		for res, err := range c.tx.Subscribe(ctx, ResponseUnicastReceived, ResponseBroadcastReceived) {
			if err != nil {
				yield(nil, poop.Chain(err))
				return
			}

			var msg Message
			switch t := res.(type) {
			case *UnicastReceivedNotification:
				msg = Message{Type: MessageTypeUnicast, Payload: t.Payload}
			case *BroadcastReceivedNotification:
				msg = Message{Type: MessageTypeBroadcast, Source: t.Source, Payload: t.Payload}
			default:
				continue
			}

			payload, err := c.open(msg.Payload)
			if err != nil {
				if !yield(nil, poop.Chain(err)) {
					return
				}
				continue
			}
			msg.Payload = payload

			if !yield(&msg, nil) {
				return
			}
		}
	}
}
