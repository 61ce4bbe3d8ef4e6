package packet

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/addonbridge/logging"
)

// ReceiveEvent is one inbound request as seen by listeners. A listener
// answers by setting Response; when no listener does, no reply is sent.
type ReceiveEvent struct {
	// ID is the sender's logical request identifier, e.g. "bridge:<uuid>".
	ID string
	// Channel is the transport channel the request arrived on.
	Channel string
	// Body is the decoded request body.
	Body Body
	// Response is the body to send back, if any.
	Response Body
}

// Namespace returns the part of ID before the first ':'.
func (e *ReceiveEvent) Namespace() string {
	if i := strings.IndexByte(e.ID, ':'); i >= 0 {
		return e.ID[:i]
	}
	return e.ID
}

// Respond sets the response body, replacing any earlier one.
func (e *ReceiveEvent) Respond(b Body) { e.Response = b }

// Listener handles an inbound request. A returned error is logged; it does
// not stop other listeners.
type Listener func(ev *ReceiveEvent) error

// SubscribeOptions narrows which events a listener sees.
type SubscribeOptions struct {
	// Namespaces lists the request namespaces delivered to the listener.
	// Empty means all.
	Namespaces []string
}

// WithNamespaces restricts a subscription to the given namespaces.
func WithNamespaces(ns ...string) func(o *SubscribeOptions) {
	return func(o *SubscribeOptions) { o.Namespaces = append(o.Namespaces, ns...) }
}

// Subscription identifies a registered listener.
type Subscription struct {
	id     uint64
	signal *Signal
}

// Unsubscribe removes the listener. It is safe to call more than once.
func (s Subscription) Unsubscribe() {
	if s.signal != nil {
		s.signal.unsubscribe(s.id)
	}
}

type entry struct {
	id         uint64
	listener   Listener
	namespaces []string
}

func (e entry) accepts(ns string) bool {
	return len(e.namespaces) == 0 || slices.Contains(e.namespaces, ns)
}

// Signal is the dispatch registry for inbound requests.
type Signal struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []entry
	logger  logging.Logger
	metrics Metrics
}

// NewSignal returns an empty signal. Nil logger or metrics fall back to no-ops.
func NewSignal(logger logging.Logger, metrics Metrics) *Signal {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Signal{logger: logging.OrNoOp(logger), metrics: metrics}
}

// Subscribe appends a listener.
func (s *Signal) Subscribe(l Listener, optFns ...func(o *SubscribeOptions)) Subscription {
	var opts SubscribeOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.entries = append(s.entries, entry{id: s.nextID, listener: l, namespaces: opts.Namespaces})
	return Subscription{id: s.nextID, signal: s}
}

func (s *Signal) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.DeleteFunc(s.entries, func(e entry) bool { return e.id == id })
}

// Len reports the number of registered listeners.
func (s *Signal) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Publish delivers ev to every listener accepting its namespace, in
// registration order.
func (s *Signal) Publish(ev *ReceiveEvent) {
	s.mu.RLock()
	snapshot := slices.Clone(s.entries)
	s.mu.RUnlock()

	ns := ev.Namespace()
	for _, e := range snapshot {
		if !e.accepts(ns) {
			continue
		}
		if err := s.invoke(e, ev); err != nil {
			s.metrics.ListenerFailed(ns)
			s.logger.Error("packet.signal.listener_failed", "namespace", ns, "id", ev.ID, "error", err)
		}
	}
}

func (s *Signal) invoke(e entry, ev *ReceiveEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return e.listener(ev)
}
