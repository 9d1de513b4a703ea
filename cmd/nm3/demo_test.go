package main

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeanP-R/nm3"
)

// fakeModem scripts the modem side of the demonstrator: it answers a
// status query, a ping and a unicast send, and records every command
// in arrival order.
type fakeModem struct {
	center *nm3.NotificationCenter

	mu       sync.Mutex
	commands []string

	rejectStatus bool
}

var _ nm3.Transport = (*fakeModem)(nil)

func newFakeModem() *fakeModem {
	return &fakeModem{center: nm3.NewNotificationCenter()}
}

func (m *fakeModem) Write(p []byte) (int, error) {
	cmd := string(p)

	m.mu.Lock()
	m.commands = append(m.commands, cmd)
	m.mu.Unlock()

	// The caller only starts consuming after Write returns.
	go m.respond(cmd)

	return len(p), nil
}

func (m *fakeModem) respond(cmd string) {
	switch {
	case cmd == "$?":
		if m.rejectStatus {
			m.center.Publish(nm3.ResponseCommandRejected, nil)
			return
		}
		m.center.Publish(nm3.ResponseStatus, []byte("169V13797"))
	case strings.HasPrefix(cmd, "$P"):
		m.center.Publish(nm3.ResponseRangeReport, []byte(cmd[2:]+"T04388"))
	case strings.HasPrefix(cmd, "$U"):
		m.center.Publish(nm3.ResponseUnicastSent, []byte(cmd[2:7]))
	}
}

func (m *fakeModem) Disconnect() error {
	m.center.Shutdown()
	return nil
}

func (m *fakeModem) Subscribe(ctx context.Context, codes ...nm3.ResponseCode) iter.Seq2[nm3.Notification, error] {
	return m.center.Subscribe(ctx, codes...)
}

func (m *fakeModem) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

func TestRunDemoSequence(t *testing.T) {
	modem := newFakeModem()
	conn := nm3.NewConnection(modem)

	var out bytes.Buffer
	require.NoError(t, runDemo(t.Context(), conn, 169, "Ocean Lab Test", &out))

	voltage := strconv.FormatFloat(13797*15.0/65536.0, 'g', -1, 64)

	delay := 4388 * 31250 * time.Nanosecond
	distance := strconv.FormatFloat(delay.Seconds()*nm3.SpeedOfSound, 'g', -1, 64)

	// One status query, one ping, one send, in that order, and the
	// transmitted payload is exactly the printed distance string.
	assert.Equal(t, []string{
		"$?",
		"$P169",
		fmt.Sprintf("$U169%02d%s", len(distance), distance),
	}, modem.Commands())

	expected := fmt.Sprintf("Voltage: %s\n", voltage) +
		fmt.Sprintf("Distance to modem 169: %s\n", distance) +
		fmt.Sprintf("Sending message: Ocean Lab Test. To modem: 169. Returning: $U169%02d.\n", len(distance))
	assert.Equal(t, expected, out.String())
}

func TestRunDemoHaltsOnFirstError(t *testing.T) {
	modem := newFakeModem()
	modem.rejectStatus = true
	conn := nm3.NewConnection(modem)

	var out bytes.Buffer
	require.Error(t, runDemo(t.Context(), conn, 169, "Ocean Lab Test", &out))

	assert.Equal(t, []string{"$?"}, modem.Commands(), "nothing may follow the failed call")
	assert.Empty(t, out.String())
}

func TestRunDemoIsDeterministic(t *testing.T) {
	run := func() string {
		modem := newFakeModem()
		conn := nm3.NewConnection(modem)

		var out bytes.Buffer
		require.NoError(t, runDemo(t.Context(), conn, 169, "Ocean Lab Test", &out))
		return out.String()
	}

	assert.Equal(t, run(), run())
}
