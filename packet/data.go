package packet

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/hupe1980/addonbridge/host"
)

// Tags of the structured value records.
const (
	TagBlock            = "block"
	TagBlockPermutation = "block_permutation"
	TagDate             = "date"
	TagEntity           = "entity"
)

// Body is the plain-data payload of an envelope.
type Body map[string]any

// NewBody returns an empty body.
func NewBody() Body { return Body{} }

// Get returns the raw value stored under name.
func (b Body) Get(name string) any { return b[name] }

// Set stores value under name and returns b for chaining.
func (b Body) Set(name string, value any) Body {
	b[name] = value
	return b
}

// Has reports whether name is present.
func (b Body) Has(name string) bool {
	_, ok := b[name]
	return ok
}

// IsEmpty reports whether the body has no entries.
func (b Body) IsEmpty() bool { return len(b) == 0 }

// GetString returns the string under name, or "" when absent or not a string.
func (b Body) GetString(name string) string {
	s, _ := b[name].(string)
	return s
}

// GetBool returns the bool under name, or false when absent or not a bool.
func (b Body) GetBool(name string) bool {
	v, _ := b[name].(bool)
	return v
}

// String renders the body as JSON.
func (b Body) String() string {
	raw, err := json.Marshal(map[string]any(b))
	if err != nil {
		return fmt.Sprintf("<unserializable body: %v>", err)
	}
	return string(raw)
}

// WriteBlock stores a location-in-world reference.
func (b Body) WriteBlock(name string, v host.Block) Body { return b.Set(name, EncodeBlock(v)) }

// ReadBlock resolves a block reference. It reports false when the dimension
// is unknown or the record is malformed.
func (b Body) ReadBlock(name string, lookup host.Lookup) (host.Block, bool) {
	return DecodeBlock(b[name], lookup)
}

// WritePermutation stores a block type with its states.
func (b Body) WritePermutation(name string, v host.BlockPermutation) Body {
	return b.Set(name, EncodePermutation(v))
}

// ReadPermutation resolves a permutation through the host schema.
func (b Body) ReadPermutation(name string, lookup host.Lookup) (host.BlockPermutation, error) {
	return DecodePermutation(b[name], lookup)
}

// WriteDate stores a timestamp with millisecond precision.
func (b Body) WriteDate(name string, v time.Time) Body { return b.Set(name, EncodeDate(v)) }

// ReadDate decodes a timestamp.
func (b Body) ReadDate(name string) (time.Time, bool) { return DecodeDate(b[name]) }

// WriteEntity stores an entity reference.
func (b Body) WriteEntity(name string, v host.Entity) Body { return b.Set(name, EncodeEntity(v)) }

// ReadEntity resolves an entity reference. It reports false when the entity
// no longer exists.
func (b Body) ReadEntity(name string, lookup host.Lookup) (host.Entity, bool) {
	return DecodeEntity(b[name], lookup)
}

// EncodeBlock converts a block into its tagged record.
func EncodeBlock(v host.Block) map[string]any {
	loc := v.Location()
	return map[string]any{
		"type":      TagBlock,
		"dimension": v.Dimension().ID(),
		"x":         loc.X,
		"y":         loc.Y,
		"z":         loc.Z,
	}
}

// DecodeBlock resolves a block record.
func DecodeBlock(v any, lookup host.Lookup) (host.Block, bool) {
	rec, ok := record(v, TagBlock)
	if !ok || lookup == nil {
		return nil, false
	}
	dimID, _ := rec["dimension"].(string)
	x, okx := toInt64(rec["x"])
	y, oky := toInt64(rec["y"])
	z, okz := toInt64(rec["z"])
	if !okx || !oky || !okz {
		return nil, false
	}
	dim, ok := lookup.Dimension(dimID)
	if !ok {
		return nil, false
	}
	return dim.Block(host.Location{X: int(x), Y: int(y), Z: int(z)})
}

// EncodePermutation converts a permutation into its tagged record.
func EncodePermutation(v host.BlockPermutation) map[string]any {
	return map[string]any{
		"type":      TagBlockPermutation,
		"blockName": v.TypeID(),
		"states":    v.States(),
	}
}

// DecodePermutation resolves a permutation record through the host schema.
func DecodePermutation(v any, lookup host.Lookup) (host.BlockPermutation, error) {
	rec, ok := record(v, TagBlockPermutation)
	if !ok {
		return nil, fmt.Errorf("not a %s record", TagBlockPermutation)
	}
	if lookup == nil {
		return nil, fmt.Errorf("no host lookup to resolve %s", TagBlockPermutation)
	}
	name, _ := rec["blockName"].(string)
	states, _ := rec["states"].(map[string]any)
	return lookup.ResolvePermutation(name, states)
}

// EncodeDate converts a timestamp into its tagged record.
func EncodeDate(v time.Time) map[string]any {
	return map[string]any{"type": TagDate, "timestamp": v.UnixMilli()}
}

// DecodeDate converts a date record back into a time.
func DecodeDate(v any) (time.Time, bool) {
	rec, ok := record(v, TagDate)
	if !ok {
		return time.Time{}, false
	}
	ms, ok := toInt64(rec["timestamp"])
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// EncodeEntity converts an entity into its tagged record.
func EncodeEntity(v host.Entity) map[string]any {
	return map[string]any{"type": TagEntity, "id": v.ID()}
}

// DecodeEntity resolves an entity record against live entities.
func DecodeEntity(v any, lookup host.Lookup) (host.Entity, bool) {
	rec, ok := record(v, TagEntity)
	if !ok || lookup == nil {
		return nil, false
	}
	id, ok := rec["id"].(string)
	if !ok {
		return nil, false
	}
	return lookup.Entity(id)
}

// EncodeValue replaces host references anywhere inside v (including nested
// slices, arrays and string-keyed maps of any element type) with their
// tagged records. Other values pass through.
func EncodeValue(v any) any {
	switch val := v.(type) {
	case host.Block:
		return EncodeBlock(val)
	case host.BlockPermutation:
		return EncodePermutation(val)
	case time.Time:
		return EncodeDate(val)
	case host.Entity:
		return EncodeEntity(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = EncodeValue(item)
		}
		return out
	case Body:
		return EncodeValue(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = EncodeValue(item)
		}
		return out
	default:
		return encodeContainer(v)
	}
}

// encodeContainer walks typed containers such as []host.Entity or
// map[string]host.Block.
func encodeContainer(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		// []byte keeps its base64 JSON form.
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		return encodeElems(rv)
	case reflect.Array:
		return encodeElems(rv)
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = EncodeValue(iter.Value().Interface())
		}
		return out
	}
	return v
}

func encodeElems(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = EncodeValue(rv.Index(i).Interface())
	}
	return out
}

// DecodeValue is the inverse of EncodeValue. References to host objects that
// no longer exist decode to nil. With a nil lookup only dates are decoded.
func DecodeValue(v any, lookup host.Lookup) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = DecodeValue(item, lookup)
		}
		return out
	case map[string]any:
		tag, _ := val["type"].(string)
		switch {
		case tag == TagDate && isRecord(val, TagDate):
			t, _ := DecodeDate(val)
			return t
		case lookup == nil:
		case tag == TagBlock && isRecord(val, TagBlock):
			if blk, ok := DecodeBlock(val, lookup); ok {
				return blk
			}
			return nil
		case tag == TagBlockPermutation && isRecord(val, TagBlockPermutation):
			if perm, err := DecodePermutation(val, lookup); err == nil {
				return perm
			}
			return nil
		case tag == TagEntity && isRecord(val, TagEntity):
			if ent, ok := DecodeEntity(val, lookup); ok {
				return ent
			}
			return nil
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = DecodeValue(item, lookup)
		}
		return out
	default:
		return v
	}
}

func record(v any, tag string) (map[string]any, bool) {
	var m map[string]any
	switch val := v.(type) {
	case map[string]any:
		m = val
	case Body:
		m = val
	default:
		return nil, false
	}
	if !isRecord(m, tag) {
		return nil, false
	}
	return m, true
}

// isRecord checks the tag and the presence of the fields that make a map a
// structured value rather than user data that happens to carry "type".
func isRecord(m map[string]any, tag string) bool {
	if t, _ := m["type"].(string); t != tag {
		return false
	}
	switch tag {
	case TagBlock:
		_, okd := m["dimension"].(string)
		_, okx := toInt64(m["x"])
		_, oky := toInt64(m["y"])
		_, okz := toInt64(m["z"])
		return okd && okx && oky && okz
	case TagBlockPermutation:
		_, ok := m["blockName"].(string)
		return ok
	case TagDate:
		_, ok := toInt64(m["timestamp"])
		return ok
	case TagEntity:
		_, ok := m["id"].(string)
		return ok
	}
	return false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return int64(n), float64(n) == math.Trunc(float64(n))
	case float64:
		return int64(n), n == math.Trunc(n)
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
