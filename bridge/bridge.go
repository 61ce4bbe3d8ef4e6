package bridge

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/addonbridge/host"
)

// DefaultVersion is the version of a bridge created without one.
const DefaultVersion = "1.0.0"

var (
	// ErrPropertyNotFound is returned for an unknown kind or property.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrNotConfigurable is returned when deleting a non-configurable property.
	ErrNotConfigurable = errors.New("property is not configurable")
)

// Options configures a Bridge.
type Options struct {
	// Version defaults to DefaultVersion.
	Version string
	// Description is shown on the first docs page.
	Description string
}

type propertyTable struct {
	names       []string
	descriptors map[string]Descriptor
}

// PropertyRef names one defined property.
type PropertyRef struct {
	Kind host.ObjectKind
	Name string
}

func (r PropertyRef) String() string { return fmt.Sprintf("%s (%s)", r.Name, r.Kind) }

// Bridge is the property table of one add-on. Kinds and properties keep the
// order they were first defined in. A Bridge is safe for concurrent use.
type Bridge struct {
	addonID string
	version string

	mu          sync.RWMutex
	description string
	kinds       []host.ObjectKind
	tables      map[host.ObjectKind]*propertyTable
}

// New creates an empty bridge for addonID. The bridge answers requests once
// it is registered with a Registry.
func New(addonID string, optFns ...func(o *Options)) *Bridge {
	opts := Options{Version: DefaultVersion}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}

	return &Bridge{
		addonID:     addonID,
		version:     opts.Version,
		description: opts.Description,
		tables:      make(map[host.ObjectKind]*propertyTable),
	}
}

// AddonID returns the id requests address this bridge by.
func (b *Bridge) AddonID() string { return b.addonID }

// Version returns the bridge version.
func (b *Bridge) Version() string { return b.version }

// Description returns the docs description.
func (b *Bridge) Description() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.description
}

// SetDescription replaces the docs description.
func (b *Bridge) SetDescription(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.description = s
}

// DefineProperty defines name on the kind of obj.
func (b *Bridge) DefineProperty(obj host.Object, name string, d Descriptor) {
	b.DefineKindProperty(obj.Kind(), name, d)
}

// DefineKindProperty defines name on kind. Defining an existing property
// replaces its descriptor wholesale and keeps its position.
func (b *Bridge) DefineKindProperty(kind host.ObjectKind, name string, d Descriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tables[kind]
	if !ok {
		t = &propertyTable{descriptors: make(map[string]Descriptor)}
		b.tables[kind] = t
		b.kinds = append(b.kinds, kind)
	}
	if _, exists := t.descriptors[name]; !exists {
		t.names = append(t.names, name)
	}
	t.descriptors[name] = d.normalized()
}

// Property returns the descriptor of name on kind.
func (b *Bridge) Property(kind host.ObjectKind, name string) (Descriptor, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tables[kind]
	if !ok {
		return Descriptor{}, false
	}
	d, ok := t.descriptors[name]
	return d, ok
}

// lookup resolves a property and reports failures with the messages sent
// back to callers.
func (b *Bridge) lookup(kind host.ObjectKind, name string) (Descriptor, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tables[kind]
	if !ok {
		return Descriptor{}, failuref("No properties found for %s", kind)
	}
	d, ok := t.descriptors[name]
	if !ok {
		return Descriptor{}, failuref("Property %s not found on %s", name, kind)
	}
	return d, nil
}

// DeleteProperty removes a configurable property.
func (b *Bridge) DeleteProperty(kind host.ObjectKind, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tables[kind]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, kind, name)
	}
	d, ok := t.descriptors[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, kind, name)
	}
	if !d.Configurable {
		return fmt.Errorf("%w: %s.%s", ErrNotConfigurable, kind, name)
	}

	delete(t.descriptors, name)
	t.names = slices.DeleteFunc(t.names, func(n string) bool { return n == name })
	if len(t.names) == 0 {
		delete(b.tables, kind)
		b.kinds = slices.DeleteFunc(b.kinds, func(k host.ObjectKind) bool { return k == kind })
	}
	return nil
}

// Keys lists the enumerable property names of kind in definition order.
func (b *Bridge) Keys(kind host.ObjectKind) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tables[kind]
	if !ok {
		return nil
	}
	var keys []string
	for _, name := range t.names {
		if t.descriptors[name].Enumerable {
			keys = append(keys, name)
		}
	}
	return keys
}

// Kinds lists the object kinds with at least one property.
func (b *Bridge) Kinds() []host.ObjectKind {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.kinds)
}

// Properties lists every defined property, grouped by kind, in definition
// order.
func (b *Bridge) Properties() []PropertyRef {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var refs []PropertyRef
	for _, kind := range b.kinds {
		for _, name := range b.tables[kind].names {
			refs = append(refs, PropertyRef{Kind: kind, Name: name})
		}
	}
	return refs
}
