package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 64

// LocalBus 單一程序內的事件匯流排
type LocalBus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subscribers: make(map[chan Event]struct{})}
}

// Publish 將事件送給所有訂閱者；訂閱者緩衝已滿時丟棄該事件
func (b *LocalBus) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			logrus.WithFields(logrus.Fields{
				"room_id": event.RoomID,
				"type":    event.Type,
			}).Warn("Event subscriber is full, dropping event")
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, nil
	}
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.unsubscribe(ch)
	}()
	return ch, nil
}

func (b *LocalBus) unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// Close 關閉所有訂閱通道
func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.closed = true
	return nil
}
