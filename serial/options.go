package serial

import "github.com/DeanP-R/nm3"

// DefaultBaudRate is the UART rate of the NM3's serial interface.
const DefaultBaudRate = 9600

type ConnectOptions struct {
	baudRate int
	onRecv   func(code nm3.ResponseCode, data []byte)
	onSend   func(code nm3.CommandCode, data []byte)
	connOpts []nm3.Option
}

type ConnectOption func(*ConnectOptions)

// WithBaudRate overrides the UART rate.
func WithBaudRate(rate int) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.baudRate = rate
	}
}

// OnRecv observes every sentence read from the modem.
func OnRecv(fn func(code nm3.ResponseCode, data []byte)) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.onRecv = fn
	}
}

// OnSend observes every command written to the modem.
func OnSend(fn func(code nm3.CommandCode, data []byte)) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.onSend = fn
	}
}

// WithConnOptions passes options through to the connection.
func WithConnOptions(connOpts ...nm3.Option) ConnectOption {
	return func(opts *ConnectOptions) {
		opts.connOpts = append(opts.connOpts, connOpts...)
	}
}
