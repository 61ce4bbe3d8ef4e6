package bridge

import (
	"errors"
	"fmt"

	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/packet"
)

// Verb is the method of a bridge request.
type Verb string

const (
	VerbConnect Verb = "connect"
	VerbGet     Verb = "get"
	VerbSet     Verb = "set"
	VerbHas     Verb = "has"
	VerbCall    Verb = "call"
	VerbDocs    Verb = "docs"
)

// Verbs lists every supported verb.
func Verbs() []Verb {
	return []Verb{VerbConnect, VerbGet, VerbSet, VerbHas, VerbCall, VerbDocs}
}

// Valid reports whether v is a supported verb.
func (v Verb) Valid() bool {
	switch v {
	case VerbConnect, VerbGet, VerbSet, VerbHas, VerbCall, VerbDocs:
		return true
	}
	return false
}

var (
	// ErrUnknownVerb is reported for a request whose method is not a Verb.
	ErrUnknownVerb = errors.New("unknown bridge verb")
	// ErrHandlerPanic is reported when a verb handler panics.
	ErrHandlerPanic = errors.New("bridge handler panic")
)

// failure is an application error answered as {error: true, message}.
type failure string

func (f failure) Error() string { return string(f) }

func failuref(format string, args ...any) failure {
	return failure(fmt.Sprintf(format, args...))
}

type handler func(b *Bridge, body packet.Body) (packet.Body, error)

func okBody() packet.Body {
	return packet.NewBody().Set("error", false)
}

func errorBody(message string) packet.Body {
	return packet.NewBody().Set("error", true).Set("message", message)
}

func fail(err error) (packet.Body, error) {
	return errorBody(err.Error()), err
}

func (r *Registry) verbHandlers() map[Verb]handler {
	return map[Verb]handler{
		VerbConnect: r.onConnect,
		VerbGet:     r.onGet,
		VerbSet:     r.onSet,
		VerbHas:     r.onHas,
		VerbCall:    r.onCall,
		VerbDocs:    r.onDocs,
	}
}

func (r *Registry) onConnect(b *Bridge, body packet.Body) (packet.Body, error) {
	if body.GetString("addon") != b.AddonID() {
		return fail(failure("Not found!"))
	}
	return okBody().Set("message", "Connected!").Set("version", b.Version()), nil
}

func (r *Registry) onGet(b *Bridge, body packet.Body) (packet.Body, error) {
	obj, d, err := r.target(b, body)
	if err != nil {
		return fail(err)
	}
	kind, name := obj.Kind(), body.GetString("property")

	var value any
	switch s := d.Slot.(type) {
	case AccessorSlot:
		if s.Get != nil {
			if value, err = s.Get(obj); err != nil {
				return fail(failure(err.Error()))
			}
		}
	case DataSlot:
		if _, ok := asFunction(s.Value); ok {
			return fail(failuref("Property \"%s\" is a function on object: %s", name, kind))
		}
		props, ok := obj.(host.DynamicProperties)
		if !ok {
			return fail(failuref("Unsupported object %s", kind))
		}
		stored, ok := props.DynamicProperty(name)
		if ok {
			value = stored
		} else {
			value = s.Value
		}
	}

	return okBody().Set("value", packet.EncodeValue(value)), nil
}

func (r *Registry) onSet(b *Bridge, body packet.Body) (packet.Body, error) {
	obj, d, err := r.target(b, body)
	if err != nil {
		return fail(err)
	}
	kind, name := obj.Kind(), body.GetString("property")
	value := body.Get("value")

	if !d.Writable() {
		return fail(failuref("Property \"%s\" is not writable on object: %s", name, kind))
	}

	switch s := d.Slot.(type) {
	case AccessorSlot:
		if err := s.Set(obj, packet.DecodeValue(value, r.lookup())); err != nil {
			return fail(failure(err.Error()))
		}
	case DataSlot:
		props, ok := obj.(host.DynamicProperties)
		if !ok {
			return fail(failuref("Unsupported object %s", kind))
		}
		if err := props.SetDynamicProperty(name, value); err != nil {
			return fail(failuref("Failed to set %s on %s: %v", name, kind, err))
		}
	}

	return okBody(), nil
}

func (r *Registry) onHas(b *Bridge, body packet.Body) (packet.Body, error) {
	_, _, err := r.target(b, body)
	return packet.NewBody().Set("value", err == nil), nil
}

func (r *Registry) onCall(b *Bridge, body packet.Body) (packet.Body, error) {
	obj, d, err := r.target(b, body)
	if err != nil {
		return fail(err)
	}
	kind, name := obj.Kind(), body.GetString("property")

	fn, ok := d.Callable()
	if !ok {
		return fail(failuref("Property \"%s\" is not a function on object: %s", name, kind))
	}

	raw, _ := body.Get("args").([]any)
	args := make([]any, len(raw))
	for i, arg := range raw {
		args[i] = packet.DecodeValue(arg, r.lookup())
	}

	result, err := fn.Invoke(obj, args)
	if err != nil {
		return fail(failure(err.Error()))
	}
	return okBody().Set("value", packet.EncodeValue(result)), nil
}

func (r *Registry) onDocs(b *Bridge, body packet.Body) (packet.Body, error) {
	ent, ok := packet.DecodeEntity(body.Get("player"), r.lookup())
	if !ok {
		return fail(failure("Player not found!"))
	}
	player, ok := ent.(host.Player)
	if !ok {
		return fail(failure("Player not found!"))
	}

	b.ShowDocs(player, r.presenter)
	return okBody(), nil
}

// target resolves the descriptor and the object a request addresses.
func (r *Registry) target(b *Bridge, body packet.Body) (host.Object, Descriptor, error) {
	kind := host.ObjectKind(body.GetString("object"))
	d, err := b.lookup(kind, body.GetString("property"))
	if err != nil {
		return nil, Descriptor{}, err
	}
	obj, ok := r.resolve(kind, body)
	if !ok {
		return nil, Descriptor{}, failuref("Object %s not found", kind)
	}
	return obj, d, nil
}

func (r *Registry) resolve(kind host.ObjectKind, body packet.Body) (host.Object, bool) {
	if r.world == nil {
		return nil, false
	}
	switch kind {
	case host.KindWorld:
		return r.world, true
	case host.KindEntity:
		id := body.GetString("entityId")
		if id == "" {
			return nil, false
		}
		e, ok := r.world.Entity(id)
		if !ok {
			return nil, false
		}
		return e, true
	}
	return nil, false
}

func (r *Registry) lookup() host.Lookup {
	if r.world == nil {
		return nil
	}
	return r.world
}
