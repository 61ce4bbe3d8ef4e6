package bridge

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/logging"
	"github.com/hupe1980/addonbridge/packet"
	"github.com/hupe1980/addonbridge/ui"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger defaults to a no-op logger.
	Logger logging.Logger
	// Presenter shows docs forms. Defaults to ui.NopPresenter.
	Presenter ui.Presenter
}

// Registry maps add-on ids to bridges and answers bridge requests. Handle
// is meant to be subscribed to a packet.Signal for the "bridge" namespace.
type Registry struct {
	world     host.World
	logger    logging.Logger
	presenter ui.Presenter
	handlers  map[Verb]handler

	mu      sync.RWMutex
	bridges map[string]*Bridge
}

// NewRegistry creates an empty registry resolving request targets in world.
func NewRegistry(world host.World, optFns ...func(o *RegistryOptions)) *Registry {
	var opts RegistryOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Presenter == nil {
		opts.Presenter = ui.NopPresenter{}
	}

	r := &Registry{
		world:     world,
		logger:    logging.OrNoOp(opts.Logger),
		presenter: opts.Presenter,
		bridges:   make(map[string]*Bridge),
	}
	r.handlers = r.verbHandlers()
	return r
}

// Register adds b under its add-on id and returns the bridge it replaced,
// if any.
func (r *Registry) Register(b *Bridge) *Bridge {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.bridges[b.AddonID()]
	r.bridges[b.AddonID()] = b
	if prev != nil && prev != b {
		r.logger.Warn("bridge.registry.replaced", "addon", b.AddonID())
	}
	return prev
}

// Unregister removes the bridge registered under addonID.
func (r *Registry) Unregister(addonID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bridges[addonID]
	delete(r.bridges, addonID)
	return ok
}

// Lookup returns the bridge registered under addonID.
func (r *Registry) Lookup(addonID string) (*Bridge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bridges[addonID]
	return b, ok
}

// IDs lists the registered add-on ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.bridges))
	for id := range r.bridges {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Handle answers one bridge request. Requests for unregistered add-ons are
// ignored. Every other request gets a response; application failures are
// answered as {error: true, message} and only internal failures (an unknown
// verb or a panicking handler) are returned.
func (r *Registry) Handle(ev *packet.ReceiveEvent) error {
	addonID := ev.Body.GetString("addon")
	b, ok := r.Lookup(addonID)
	if !ok {
		r.logger.Debug("bridge.dispatch.unknown_addon", "addon", addonID, "id", ev.ID)
		return nil
	}

	verb := Verb(ev.Body.GetString("method"))
	start := time.Now()
	resp, err := r.dispatch(b, verb, ev.Body)
	ev.Respond(resp)
	r.logDispatch(verb, addonID, time.Since(start), err)

	var f failure
	if err != nil && !errors.As(err, &f) {
		return err
	}
	return nil
}

func (r *Registry) dispatch(b *Bridge, verb Verb, body packet.Body) (resp packet.Body, err error) {
	h, ok := r.handlers[verb]
	if !ok {
		return errorBody(fmt.Sprintf("Unknown method \"%s\"", verb)), fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, verb, rec)
			resp = errorBody(fmt.Sprintf("Internal error in %s: %v", verb, rec))
		}
	}()
	return h(b, body)
}

type dispatchLogger interface {
	LogDispatch(verb, addonID string, dur time.Duration, err error)
}

func (r *Registry) logDispatch(verb Verb, addonID string, dur time.Duration, err error) {
	if dl, ok := r.logger.(dispatchLogger); ok {
		dl.LogDispatch(string(verb), addonID, dur, err)
		return
	}
	if err != nil {
		r.logger.Warn("bridge.dispatch.rejected", "verb", verb, "addon", addonID, "error", err)
		return
	}
	r.logger.Debug("bridge.dispatch", "verb", verb, "addon", addonID, "duration", dur)
}
