package memhost

import (
	"strings"
	"sync"
)

// Handler receives one broadcast.
type Handler func(channel, payload string)

type subscriber struct {
	id        uint64
	namespace string
	handler   Handler
}

// Bus is a synchronous, in-process broadcast medium. A payload broadcast on
// channel "ns:rest" reaches every subscriber of namespace "ns", in
// subscription order, before Broadcast returns.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h for channels in namespace. The returned func removes
// the subscription.
func (b *Bus) Subscribe(namespace string, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, namespace: namespace, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Broadcast implements host.Broadcaster.
func (b *Bus) Broadcast(channel, payload string) {
	ns := Namespace(channel)

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.namespace == ns {
			targets = append(targets, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range targets {
		h(channel, payload)
	}
}

// Namespace returns the part of channel before the first ':' (or the whole
// channel when it has none).
func Namespace(channel string) string {
	if i := strings.IndexByte(channel, ':'); i >= 0 {
		return channel[:i]
	}
	return channel
}
