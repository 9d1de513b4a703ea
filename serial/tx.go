package serial

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/kellegous/poop"
	"go.bug.st/serial"

	"github.com/DeanP-R/nm3"
)

type tx struct {
	port           serial.Port
	center         *nm3.NotificationCenter
	isDisconnected atomic.Bool
	onSend         func(code nm3.CommandCode, data []byte)
}

var _ nm3.Transport = (*tx)(nil)

func (t *tx) Write(p []byte) (int, error) {
	if t.onSend != nil && len(p) >= 2 && p[0] == '$' {
		t.onSend(nm3.CommandCode(p[1]), p[2:])
	}
	n, err := t.port.Write(p)
	if err != nil {
		return n, poop.Chain(err)
	}
	return n, nil
}

func (t *tx) Disconnect() error {
	if !t.isDisconnected.CompareAndSwap(false, true) {
		return nil
	}
	err := t.port.Close()
	t.center.Shutdown()
	if err != nil {
		return poop.Chain(err)
	}
	return nil
}

func (t *tx) Subscribe(ctx context.Context, codes ...nm3.ResponseCode) iter.Seq2[nm3.Notification, error] {
	return t.center.Subscribe(ctx, codes...)
}

func (t *tx) readLoop(onRecv func(code nm3.ResponseCode, data []byte)) {
	var scanner nm3.Scanner
	var buf [256]byte

	for {
		n, err := t.port.Read(buf[:])
		if err != nil {
			t.Disconnect()
			return
		}

		for _, sen := range scanner.Feed(buf[:n]) {
			if onRecv != nil {
				onRecv(sen.Code, sen.Data)
			}
			t.center.Publish(sen.Code, sen.Data)
		}
	}
}
