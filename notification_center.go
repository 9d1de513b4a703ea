package nm3

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrDisconnected is delivered to subscribers when the transport shuts
// down underneath them.
var ErrDisconnected = errors.New("disconnected")

type notificationData struct {
	Notification Notification
	Error        error
}

type subscription struct {
	isClosed atomic.Bool
	ch       chan *notificationData
	done     chan struct{}
}

func newSubscription() *subscription {
	return &subscription{
		ch:   make(chan *notificationData),
		done: make(chan struct{}),
	}
}

func (s *subscription) cancel() {
	if s.isClosed.CompareAndSwap(false, true) {
		close(s.done)
	}
}

// publish blocks until the subscriber accepts the notification or the
// subscription is cancelled. It must never block on a subscriber that
// is already tearing down, otherwise the teardown's write lock and the
// publisher's read lock would wait on each other.
func (s *subscription) publish(notification Notification, err error) {
	select {
	case s.ch <- &notificationData{Notification: notification, Error: err}:
	case <-s.done:
	}
}

// NotificationCenter routes parsed modem sentences to subscribers by
// response code. Transports publish into it from their read loop.
type NotificationCenter struct {
	lck           sync.RWMutex
	subscriptions map[ResponseCode][]*subscription
}

func NewNotificationCenter() *NotificationCenter {
	return &NotificationCenter{
		subscriptions: make(map[ResponseCode][]*subscription),
	}
}

func (c *NotificationCenter) register(codes []ResponseCode, s *subscription) func() {
	c.lck.Lock()
	defer c.lck.Unlock()

	for _, code := range codes {
		c.subscriptions[code] = append(c.subscriptions[code], s)
	}

	return func() {
		// Cancel before taking the lock so a publisher currently
		// holding the read lock cannot block us forever.
		s.cancel()

		c.lck.Lock()
		defer c.lck.Unlock()

		for _, code := range codes {
			c.subscriptions[code] = slices.DeleteFunc(c.subscriptions[code], func(ss *subscription) bool {
				return s == ss
			})
		}
	}
}

// Subscribe yields every notification published for the given codes
// until the context is cancelled, the iterator is dropped, or the
// center shuts down.
func (c *NotificationCenter) Subscribe(
	ctx context.Context,
	codes ...ResponseCode,
) iter.Seq2[Notification, error] {
	s := newSubscription()

	release := c.register(codes, s)

	return func(yield func(Notification, error) bool) {
		defer release()

		for {
			select {
			case data := <-s.ch:
				if !yield(data.Notification, data.Error) {
					return
				}
			case <-s.done:
				yield(nil, ErrDisconnected)
				return
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			}
		}
	}
}

// Publish parses the sentence body and delivers it to every
// subscriber of its code. Sentences nobody is waiting for are
// discarded without being parsed.
func (c *NotificationCenter) Publish(code ResponseCode, data []byte) {
	c.lck.RLock()
	defer c.lck.RUnlock()

	subs := c.subscriptions[code]
	if len(subs) == 0 {
		return
	}

	notification, err := readNotification(code, data)
	for _, s := range subs {
		s.publish(notification, err)
	}
}

// Shutdown cancels every outstanding subscription.
func (c *NotificationCenter) Shutdown() {
	c.lck.Lock()
	defer c.lck.Unlock()

	for _, subs := range c.subscriptions {
		for _, sub := range subs {
			sub.cancel()
		}
	}

	c.subscriptions = make(map[ResponseCode][]*subscription)
}
