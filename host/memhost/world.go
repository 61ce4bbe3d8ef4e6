package memhost

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/addonbridge/host"
)

var (
	// ErrUnknownBlockType is returned when resolving a permutation of a block
	// type that was never registered.
	ErrUnknownBlockType = errors.New("unknown block type")
	// ErrInvalidState is returned when a permutation names a state the block
	// type does not have, or a value the state does not allow.
	ErrInvalidState = errors.New("invalid block state")
)

// Properties is a mutex guarded in-memory host.DynamicProperties.
type Properties struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewProperties returns empty property storage.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]any)}
}

// DynamicProperty implements host.DynamicProperties.
func (p *Properties) DynamicProperty(name string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[name]
	return v, ok
}

// SetDynamicProperty implements host.DynamicProperties.
func (p *Properties) SetDynamicProperty(name string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if value == nil {
		delete(p.values, name)
		return nil
	}
	p.values[name] = value
	return nil
}

// PropertyFactory creates the property storage for a newly spawned entity.
type PropertyFactory func(entityID string) host.DynamicProperties

// WorldOptions configures a World.
type WorldOptions struct {
	// Properties backs the world's own dynamic properties.
	Properties host.DynamicProperties
	// EntityProperties backs the dynamic properties of every spawned entity.
	EntityProperties PropertyFactory
}

// World is an in-memory host.World.
type World struct {
	host.DynamicProperties

	mu          sync.RWMutex
	dimensions  map[string]*Dimension
	entities    map[string]host.Entity
	blockTypes  map[string]map[string][]any
	newEntProps PropertyFactory
}

var _ host.World = (*World)(nil)

// NewWorld creates an empty world. By default all properties live in memory.
func NewWorld(optFns ...func(o *WorldOptions)) *World {
	opts := WorldOptions{
		EntityProperties: func(string) host.DynamicProperties { return NewProperties() },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Properties == nil {
		opts.Properties = NewProperties()
	}

	return &World{
		DynamicProperties: opts.Properties,
		dimensions:        make(map[string]*Dimension),
		entities:          make(map[string]host.Entity),
		blockTypes:        make(map[string]map[string][]any),
		newEntProps:       opts.EntityProperties,
	}
}

// Kind implements host.Object.
func (w *World) Kind() host.ObjectKind { return host.KindWorld }

// AddDimension creates (or returns the existing) dimension with the given id.
func (w *World) AddDimension(id string) *Dimension {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d, ok := w.dimensions[id]; ok {
		return d
	}
	d := &Dimension{id: id, blocks: make(map[host.Location]*Block)}
	w.dimensions[id] = d
	return d
}

// Dimension implements host.Lookup.
func (w *World) Dimension(id string) (host.Dimension, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.dimensions[id]
	if !ok {
		return nil, false
	}
	return d, true
}

// SpawnEntity adds a non-player entity.
func (w *World) SpawnEntity(id string) *Entity {
	e := &Entity{id: id, DynamicProperties: w.newEntProps(id)}
	w.mu.Lock()
	w.entities[id] = e
	w.mu.Unlock()
	return e
}

// SpawnPlayer adds a player entity.
func (w *World) SpawnPlayer(id, name string) *Player {
	p := &Player{Entity: Entity{id: id, DynamicProperties: w.newEntProps(id)}, name: name}
	w.mu.Lock()
	w.entities[id] = p
	w.mu.Unlock()
	return p
}

// Despawn removes an entity; later lookups by its id fail.
func (w *World) Despawn(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.entities, id)
}

// Entity implements host.Lookup.
func (w *World) Entity(id string) (host.Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[id]
	return e, ok
}

// RegisterBlockType declares a block type and the values each of its states
// accepts. The first listed value of a state is its default.
func (w *World) RegisterBlockType(name string, states map[string][]any) {
	copied := make(map[string][]any, len(states))
	for k, v := range states {
		copied[k] = append([]any(nil), v...)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blockTypes[name] = copied
}

// ResolvePermutation implements host.Lookup. Missing states take their
// default value.
func (w *World) ResolvePermutation(blockName string, states map[string]any) (host.BlockPermutation, error) {
	w.mu.RLock()
	schema, ok := w.blockTypes[blockName]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlockType, blockName)
	}

	resolved := make(map[string]any, len(schema))
	for key, value := range states {
		allowed, ok := schema[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no state %q", ErrInvalidState, blockName, key)
		}
		match, ok := matchState(allowed, value)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a valid %s.%s", ErrInvalidState, value, blockName, key)
		}
		resolved[key] = match
	}
	for key, allowed := range schema {
		if _, ok := resolved[key]; !ok && len(allowed) > 0 {
			resolved[key] = allowed[0]
		}
	}

	return &Permutation{typeID: blockName, states: resolved}, nil
}

// matchState finds value among allowed, treating all numeric kinds alike
// since wire values arrive as float64.
func matchState(allowed []any, value any) (any, bool) {
	for _, a := range allowed {
		if a == value {
			return a, true
		}
		af, aok := toFloat(a)
		vf, vok := toFloat(value)
		if aok && vok && af == vf {
			return a, true
		}
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Dimension is an in-memory host.Dimension. Every location holds a block;
// locations never written hold air.
type Dimension struct {
	id     string
	mu     sync.Mutex
	blocks map[host.Location]*Block
}

// ID implements host.Dimension.
func (d *Dimension) ID() string { return d.id }

// Block implements host.Dimension.
func (d *Dimension) Block(loc host.Location) (host.Block, bool) {
	return d.BlockAt(loc), true
}

// BlockAt returns the concrete block at loc, creating it on first access.
func (d *Dimension) BlockAt(loc host.Location) *Block {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.blocks[loc]
	if !ok {
		b = &Block{dimension: d, loc: loc, permutation: &Permutation{typeID: "minecraft:air", states: map[string]any{}}}
		d.blocks[loc] = b
	}
	return b
}

// Block is an in-memory host.Block.
type Block struct {
	dimension   *Dimension
	loc         host.Location
	mu          sync.RWMutex
	permutation host.BlockPermutation
}

// Dimension implements host.Block.
func (b *Block) Dimension() host.Dimension { return b.dimension }

// Location implements host.Block.
func (b *Block) Location() host.Location { return b.loc }

// Permutation returns the block's current type and states.
func (b *Block) Permutation() host.BlockPermutation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.permutation
}

// SetPermutation replaces the block's type and states.
func (b *Block) SetPermutation(p host.BlockPermutation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.permutation = p
}

// Permutation is an immutable host.BlockPermutation.
type Permutation struct {
	typeID string
	states map[string]any
}

// TypeID implements host.BlockPermutation.
func (p *Permutation) TypeID() string { return p.typeID }

// States implements host.BlockPermutation. The returned map is a copy.
func (p *Permutation) States() map[string]any {
	out := make(map[string]any, len(p.states))
	for k, v := range p.states {
		out[k] = v
	}
	return out
}

// Entity is an in-memory host.Entity.
type Entity struct {
	host.DynamicProperties
	id string
}

// Kind implements host.Object.
func (e *Entity) Kind() host.ObjectKind { return host.KindEntity }

// ID implements host.Entity.
func (e *Entity) ID() string { return e.id }

// Player is an in-memory host.Player.
type Player struct {
	Entity
	name string
}

// Name implements host.Player.
func (p *Player) Name() string { return p.name }
