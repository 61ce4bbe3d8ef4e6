// Package addonbridge wires the packet transport, the bridge registry and
// the client connection into one runtime per host process. Most add-ons
// interact with this package by:
//  1. Creating a Runtime via New() on top of the host primitives
//  2. Publishing properties with NewBridge and DefineProperty
//  3. Reaching other add-ons with Connect and the returned Connection
//
// The host must deliver every broadcast in the runtime's namespace to
// Receive. All defaults are safe for local development and testing;
// production hosts typically supply a structured logger and a metrics
// registerer.
package addonbridge

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/addonbridge/bridge"
	"github.com/hupe1980/addonbridge/client"
	"github.com/hupe1980/addonbridge/config"
	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/logging"
	"github.com/hupe1980/addonbridge/metrics"
	"github.com/hupe1980/addonbridge/packet"
	"github.com/hupe1980/addonbridge/ui"
)

// ErrClosed is returned by Receive after Close.
var ErrClosed = errors.New("addonbridge: runtime closed")

// Host bundles the collaborators the runtime needs from the host process.
type Host struct {
	World       host.World
	Scheduler   host.Scheduler
	Broadcaster host.Broadcaster
	// Presenter shows docs forms. Defaults to ui.NopPresenter.
	Presenter ui.Presenter
}

// Options configures the Runtime.
type Options struct {
	// Config defaults to config.Default().
	Config config.Config
	// Logger defaults to a logger built from Config.
	Logger logging.Logger
	// Metrics overrides the collector built when Config.MetricsEnabled.
	Metrics packet.Metrics
	// Registerer receives the Prometheus collectors. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Origin overrides the random channel origin of the transport.
	Origin string
}

// Runtime is one host process's view of the bridge network.
type Runtime struct {
	cfg       config.Config
	logger    logging.Logger
	world     host.World
	transport *packet.Transport
	registry  *bridge.Registry
	sub       packet.Subscription
	closed    atomic.Bool
}

// New validates the configuration and builds a runtime. The bridge
// registry is subscribed to the configured bridge namespace.
func New(h Host, optFns ...func(o *Options)) (*Runtime, error) {
	opts := Options{Config: config.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}

	if h.World == nil || h.Scheduler == nil || h.Broadcaster == nil {
		return nil, errors.New("addonbridge: host world, scheduler and broadcaster are required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.FromConfig(opts.Config.LoggerConfig())
	}

	m := opts.Metrics
	if m == nil && opts.Config.MetricsEnabled {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		c, err := metrics.New(opts.Config.MetricsPrefix, reg)
		if err != nil {
			return nil, fmt.Errorf("addonbridge: metrics: %w", err)
		}
		m = c
	}

	t := packet.NewTransport(h.Broadcaster, h.Scheduler, func(o *packet.Options) {
		o.Namespace = opts.Config.Namespace
		o.TimeoutTicks = opts.Config.TimeoutTicks
		o.Origin = opts.Origin
		o.Logger = component(logger, "packet")
		o.Metrics = m
	})

	reg := bridge.NewRegistry(h.World, func(o *bridge.RegistryOptions) {
		o.Logger = component(logger, "bridge")
		o.Presenter = h.Presenter
	})

	rt := &Runtime{
		cfg:       opts.Config,
		logger:    logger,
		world:     h.World,
		transport: t,
		registry:  reg,
	}
	rt.sub = t.Signal().Subscribe(reg.Handle, packet.WithNamespaces(opts.Config.BridgeNamespace))

	logger.Info("addonbridge.started",
		"namespace", opts.Config.Namespace,
		"bridge_namespace", opts.Config.BridgeNamespace,
		"timeout_ticks", opts.Config.TimeoutTicks,
	)
	return rt, nil
}

func component(l logging.Logger, name string) logging.Logger {
	switch tl := l.(type) {
	case *logging.BridgeLogger:
		return tl.WithComponent(name)
	case *logging.ZerologAdapter:
		return tl.WithComponent(name)
	}
	return l
}

// Config returns the effective configuration.
func (r *Runtime) Config() config.Config { return r.cfg }

// Namespace returns the broadcast namespace the host must route to Receive.
func (r *Runtime) Namespace() string { return r.transport.Namespace() }

// Transport returns the underlying packet transport.
func (r *Runtime) Transport() *packet.Transport { return r.transport }

// Bridges returns the registry of locally published bridges.
func (r *Runtime) Bridges() *bridge.Registry { return r.registry }

// Receive handles one inbound broadcast.
func (r *Runtime) Receive(channel, payload string) error {
	if r.closed.Load() {
		return ErrClosed
	}
	return r.transport.Receive(channel, payload)
}

// NewBridge creates a bridge for addonID and registers it, replacing any
// bridge previously registered under the same id.
func (r *Runtime) NewBridge(addonID string, optFns ...func(o *bridge.Options)) *bridge.Bridge {
	b := bridge.New(addonID, optFns...)
	if prev := r.registry.Register(b); prev != nil {
		r.logger.Warn("addonbridge.bridge_replaced", "addon", addonID)
	}
	return b
}

// Connection returns a handle on addonID without checking it exists.
func (r *Runtime) Connection(addonID string) *client.Connection {
	return client.New(r.transport, addonID, r.clientOptions)
}

// Connect resolves to a connection once addonID acknowledges, or rejects
// with client.ErrUnavailable.
func (r *Runtime) Connect(addonID string) *packet.Future[*client.Connection] {
	return client.Connect(r.transport, addonID, r.clientOptions)
}

func (r *Runtime) clientOptions(o *client.Options) {
	o.Namespace = r.cfg.BridgeNamespace
	o.Lookup = r.world
	o.Logger = component(r.logger, "client")
}

// Close stops answering bridge requests and drops all later inbound
// traffic. Requests already in flight time out on their own ticks.
func (r *Runtime) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.sub.Unsubscribe()
	r.logger.Info("addonbridge.closed")
}
