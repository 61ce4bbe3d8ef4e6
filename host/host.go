// Package host declares the collaborators addonbridge needs from the host
// application: its object model (world, dimensions, blocks, entities), the
// dynamic-property persistence layer, the tick scheduler and the string
// broadcast primitive used to move envelopes between add-ons.
//
// Nothing in this package has behavior. Concrete hosts implement these
// interfaces; host/memhost provides an in-memory reference implementation used
// by tests and examples.
package host

// ObjectKind names a category of host object properties can be bridged on.
type ObjectKind string

const (
	// KindWorld is the singleton world object.
	KindWorld ObjectKind = "World"
	// KindEntity is any live entity, players included.
	KindEntity ObjectKind = "Entity"
)

// Object is anything a bridge property can be attached to.
type Object interface {
	Kind() ObjectKind
}

// DynamicProperties is the host's string-keyed property storage attached to an
// object. A missing property reports ok == false. Setting a nil value clears
// the property.
type DynamicProperties interface {
	DynamicProperty(name string) (value any, ok bool)
	SetDynamicProperty(name string, value any) error
}

// Location is an integer block coordinate inside a dimension.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Dimension is a named space blocks live in.
type Dimension interface {
	ID() string
	Block(loc Location) (Block, bool)
}

// Block is a location-in-world reference.
type Block interface {
	Dimension() Dimension
	Location() Location
}

// BlockPermutation is a block type together with its state values.
type BlockPermutation interface {
	TypeID() string
	States() map[string]any
}

// Entity is a live host entity. Entities may disappear at any time; holders
// should resolve them again by ID instead of caching.
type Entity interface {
	Object
	DynamicProperties
	ID() string
}

// Player is an entity controlled by a human who can be shown forms.
type Player interface {
	Entity
	Name() string
}

// Lookup resolves references received over the wire back into live host
// objects.
type Lookup interface {
	Dimension(id string) (Dimension, bool)
	Entity(id string) (Entity, bool)
	ResolvePermutation(blockName string, states map[string]any) (BlockPermutation, error)
}

// World is the root host object.
type World interface {
	Object
	DynamicProperties
	Lookup
}

// Scheduler is the host's tick clock. EveryTick runs fn once per tick,
// starting with the next tick, until the returned cancel func is called.
type Scheduler interface {
	CurrentTick() uint64
	EveryTick(fn func()) (cancel func())
}

// Broadcaster delivers payload to every process subscribed to the namespace
// of channel (the part before the first ':').
type Broadcaster interface {
	Broadcast(channel, payload string)
}
