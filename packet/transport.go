package packet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/addonbridge/envelope"
	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/logging"
)

const (
	// DefaultNamespace is the channel namespace transports listen on.
	DefaultNamespace = "packet"
	// DefaultTimeoutTicks is the tick budget of a request.
	DefaultTimeoutTicks = 20
)

// Options configures a Transport.
type Options struct {
	// Namespace prefixes every channel id. Defaults to DefaultNamespace.
	Namespace string
	// TimeoutTicks is the default tick budget per request.
	TimeoutTicks int
	// Origin distinguishes this transport's channel ids from those of other
	// processes on the same host. Defaults to a random UUID.
	Origin string
	// Signal receives inbound requests. A new one is created when nil.
	Signal *Signal
	// Logger defaults to a no-op logger.
	Logger logging.Logger
	// Metrics defaults to NopMetrics.
	Metrics Metrics
}

// SendOptions tunes a single Send.
type SendOptions struct {
	TimeoutTicks int
}

// WithTimeout overrides the tick budget of one request.
func WithTimeout(ticks int) func(o *SendOptions) {
	return func(o *SendOptions) { o.TimeoutTicks = ticks }
}

type pendingRequest struct {
	identifier string
	namespace  string
	elapsed    int
	timeout    int
	responded  bool
	response   Body
	future     *Future[Body]
	stop       func()
}

// Transport correlates request and response envelopes over the host
// broadcast primitive.
//
// Each Send broadcasts a request on a fresh channel id and registers a
// pending entry under that id, together with a per-tick poll on the host
// scheduler. Responses are stored against the pending entry as they arrive
// and handed to the caller on the next poll. A request settles exactly once:
// resolved with the response body, rejected with a *TimeoutError when the
// poll count reaches the tick budget, or rejected with ErrCanceled. The
// pending entry and the poll are removed on every one of these paths.
type Transport struct {
	broadcaster host.Broadcaster
	scheduler   host.Scheduler
	signal      *Signal
	logger      logging.Logger
	metrics     Metrics
	namespace   string
	origin      string
	timeout     int

	mu      sync.Mutex
	seq     uint64
	pending map[string]*pendingRequest
}

// NewTransport builds a transport on top of the host primitives. The host
// must route inbound broadcasts of the transport's namespace to Receive.
func NewTransport(b host.Broadcaster, s host.Scheduler, optFns ...func(o *Options)) *Transport {
	opts := Options{
		Namespace:    DefaultNamespace,
		TimeoutTicks: DefaultTimeoutTicks,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.TimeoutTicks <= 0 {
		opts.TimeoutTicks = DefaultTimeoutTicks
	}
	if opts.Origin == "" {
		opts.Origin = uuid.NewString()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics{}
	}
	logger := logging.OrNoOp(opts.Logger)
	if opts.Signal == nil {
		opts.Signal = NewSignal(logger, opts.Metrics)
	}

	return &Transport{
		broadcaster: b,
		scheduler:   s,
		signal:      opts.Signal,
		logger:      logger,
		metrics:     opts.Metrics,
		namespace:   opts.Namespace,
		origin:      opts.Origin,
		timeout:     opts.TimeoutTicks,
		pending:     make(map[string]*pendingRequest),
	}
}

// Signal returns the dispatch registry inbound requests are published on.
func (t *Transport) Signal() *Signal { return t.signal }

// Namespace returns the channel namespace.
func (t *Transport) Namespace() string { return t.namespace }

// Pending reports the number of in-flight requests.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// IsPending reports whether a request is in flight on channel.
func (t *Transport) IsPending(channel string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[channel]
	return ok
}

func (t *Transport) nextChannel() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	return fmt.Sprintf("%s:%s.%d", t.namespace, t.origin, t.seq)
}

// Send broadcasts a request and returns a future for its response body.
// identifier is the logical request id listeners see, conventionally
// "<namespace>:<unique token>".
func (t *Transport) Send(identifier string, body Body, optFns ...func(o *SendOptions)) *Future[Body] {
	opts := SendOptions{TimeoutTicks: t.timeout}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TimeoutTicks <= 0 {
		opts.TimeoutTicks = t.timeout
	}

	ns := namespaceOf(identifier)
	channel := t.nextChannel()

	payload, err := envelope.Encode(envelope.Headers{ID: identifier, Type: envelope.TypeRequest}, body)
	if err != nil {
		t.metrics.RequestSettled(ns, OutcomeFailed, 0)
		t.logger.Error("packet.send.encode_failed", "identifier", identifier, "error", err)
		return Rejected[Body](err)
	}

	f := newFuture[Body]()
	p := &pendingRequest{identifier: identifier, namespace: ns, timeout: opts.TimeoutTicks, future: f}

	// A poll that runs before the entry is stored finds nothing and waits
	// for the next tick.
	p.stop = t.scheduler.EveryTick(func() { t.poll(channel) })

	t.mu.Lock()
	t.pending[channel] = p
	n := len(t.pending)
	t.mu.Unlock()

	f.setCancelHook(func() { t.cancel(channel) })

	t.metrics.RequestSent(ns)
	t.metrics.PendingRequests(n)
	t.logger.Debug("packet.send", "identifier", identifier, "channel", channel, "timeout_ticks", opts.TimeoutTicks)

	t.broadcaster.Broadcast(channel, payload)
	return f
}

// poll runs once per tick for one pending request.
func (t *Transport) poll(channel string) {
	t.mu.Lock()
	p, ok := t.pending[channel]
	if !ok {
		t.mu.Unlock()
		return
	}
	p.elapsed++

	var outcome Outcome
	switch {
	case p.responded:
		outcome = OutcomeResolved
	case p.elapsed >= p.timeout:
		outcome = OutcomeTimeout
	default:
		t.mu.Unlock()
		return
	}
	delete(t.pending, channel)
	n := len(t.pending)
	stop := p.stop
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	t.metrics.RequestSettled(p.namespace, outcome, p.elapsed)
	t.metrics.PendingRequests(n)

	if outcome == OutcomeResolved {
		t.logRoundTrip(p, channel, nil)
		p.future.settle(p.response, nil)
		return
	}

	err := &TimeoutError{Identifier: p.identifier, Channel: channel, Ticks: p.elapsed}
	t.logRoundTrip(p, channel, err)
	p.future.settle(nil, err)
}

type roundTripLogger interface {
	LogRoundTrip(identifier string, ticks int, success bool, err error)
}

func (t *Transport) logRoundTrip(p *pendingRequest, channel string, err error) {
	if rl, ok := t.logger.(roundTripLogger); ok {
		rl.LogRoundTrip(p.identifier, p.elapsed, err == nil, err)
		return
	}
	if err != nil {
		t.logger.Warn("packet.timeout", "identifier", p.identifier, "channel", channel, "ticks", p.elapsed)
		return
	}
	t.logger.Debug("packet.resolved", "identifier", p.identifier, "channel", channel, "ticks", p.elapsed)
}

func (t *Transport) cancel(channel string) {
	t.mu.Lock()
	p, ok := t.pending[channel]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.pending, channel)
	n := len(t.pending)
	stop := p.stop
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	t.metrics.RequestSettled(p.namespace, OutcomeCanceled, p.elapsed)
	t.metrics.PendingRequests(n)
	t.logger.Debug("packet.canceled", "identifier", p.identifier, "channel", channel)
}

// Receive handles one inbound broadcast. Requests are published on the
// signal and answered on the same channel when a listener responds.
// Responses are matched to pending requests by channel. A message that
// cannot be decoded, or carries an unknown type, is dropped and reported as
// a *ProtocolError; it never disturbs other messages.
func (t *Transport) Receive(channel, raw string) error {
	env, err := envelope.Decode(raw)
	if err != nil {
		return t.protocolError(channel, "decode failed", err)
	}

	switch env.Headers.Type {
	case envelope.TypeRequest:
		t.metrics.MessageReceived(string(env.Headers.Type))
		return t.handleRequest(channel, env)
	case envelope.TypeResponse:
		t.metrics.MessageReceived(string(env.Headers.Type))
		t.handleResponse(channel, Body(env.Body))
		return nil
	default:
		return t.protocolError(channel, fmt.Sprintf("'%s' is not a valid packet type", env.Headers.Type), nil)
	}
}

func (t *Transport) handleRequest(channel string, env envelope.Envelope) error {
	ev := &ReceiveEvent{ID: env.Headers.ID, Channel: channel, Body: Body(env.Body)}
	t.signal.Publish(ev)
	if ev.Response == nil {
		return nil
	}

	headers := envelope.Headers{ID: channel, Type: envelope.TypeResponse}
	payload, err := envelope.Encode(headers, ev.Response)
	if err == nil {
		t.broadcaster.Broadcast(channel, payload)
		return nil
	}

	// An answered request always gets a reply; an unencodable body becomes an
	// error body.
	t.logger.Error("packet.respond.encode_failed", "identifier", ev.ID, "channel", channel, "error", err)
	fallback := NewBody().Set("error", true).Set("message", fmt.Sprintf("Response could not be encoded: %v", err))
	if payload, ferr := envelope.Encode(headers, fallback); ferr == nil {
		t.broadcaster.Broadcast(channel, payload)
	}
	return fmt.Errorf("respond on %s: %w", channel, err)
}

func (t *Transport) handleResponse(channel string, body Body) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[channel]
	if !ok {
		t.logger.Debug("packet.response.unclaimed", "channel", channel)
		return
	}
	p.responded = true
	p.response = body
}

func (t *Transport) protocolError(channel, reason string, cause error) error {
	err := &ProtocolError{Channel: channel, Reason: reason, Err: cause}
	t.metrics.ProtocolError()
	t.logger.Error("packet.receive.protocol_error", "channel", channel, "error", err)
	return err
}

func namespaceOf(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}
