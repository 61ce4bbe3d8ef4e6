package bridge

import (
	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/internal/util"
)

// Slot is the access part of a Descriptor: either a DataSlot or an
// AccessorSlot.
type Slot interface {
	isSlot()
}

// DataSlot is a plain value. Writable allows set to replace it.
type DataSlot struct {
	Value    any
	Writable bool
}

func (DataSlot) isSlot() {}

// AccessorSlot computes reads and handles writes. A nil Get reads as nil; a
// nil Set makes the property read-only.
type AccessorSlot struct {
	Get func(obj host.Object) (any, error)
	Set func(obj host.Object, value any) error
}

func (AccessorSlot) isSlot() {}

// Descriptor describes one bridged property.
type Descriptor struct {
	Slot Slot
	// Enumerable properties are listed by Bridge.Keys.
	Enumerable bool
	// Configurable properties can be removed with Bridge.DeleteProperty.
	Configurable bool
	// Description is shown in the docs.
	Description string
}

// Value returns a descriptor for a data property.
func Value(v any, writable bool) Descriptor {
	return Descriptor{Slot: DataSlot{Value: v, Writable: writable}}
}

// Accessor returns a descriptor for a computed property.
func Accessor(get func(host.Object) (any, error), set func(host.Object, any) error) Descriptor {
	return Descriptor{Slot: AccessorSlot{Get: get, Set: set}}
}

// Method returns a descriptor for a callable property.
func Method(fn Func, params ...Param) Descriptor {
	return Descriptor{Slot: DataSlot{Value: &Function{Fn: fn, Params: params}}}
}

// Writable reports whether set may change the property.
func (d Descriptor) Writable() bool {
	switch s := d.Slot.(type) {
	case DataSlot:
		return s.Writable
	case AccessorSlot:
		return s.Set != nil
	}
	return false
}

// Callable returns the function stored in a data slot.
func (d Descriptor) Callable() (*Function, bool) {
	s, ok := d.Slot.(DataSlot)
	if !ok {
		return nil, false
	}
	return asFunction(s.Value)
}

// TypeName describes the property for the docs: "function" for callables,
// "setter / getter" for accessors and the JSON type of a data value otherwise.
func (d Descriptor) TypeName() string {
	switch s := d.Slot.(type) {
	case AccessorSlot:
		return "setter / getter"
	case DataSlot:
		if _, ok := asFunction(s.Value); ok {
			return "function"
		}
		return util.JSONType(s.Value)
	}
	return util.TypeNull
}

func (d Descriptor) normalized() Descriptor {
	if d.Slot == nil {
		d.Slot = DataSlot{}
	}
	return d
}
