package packet

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hupe1980/addonbridge/envelope"
	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/host/memhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorld() *memhost.World {
	w := memhost.NewWorld()
	w.AddDimension("minecraft:overworld")
	w.RegisterBlockType("minecraft:wool", map[string][]any{"color": {"white", "red", "blue"}})
	w.RegisterBlockType("minecraft:wheat", map[string][]any{"growth": {0, 1, 2, 3, 4, 5, 6, 7}})
	return w
}

// wire passes a body through the envelope codec, as a transport would.
func wire(t *testing.T, b Body) Body {
	t.Helper()
	raw, err := envelope.Encode(envelope.Headers{ID: "t:1", Type: envelope.TypeRequest}, b)
	require.NoError(t, err)
	env, err := envelope.Decode(raw)
	require.NoError(t, err)
	return Body(env.Body)
}

func TestBody_Accessors(t *testing.T) {
	b := NewBody().Set("name", "Steve").Set("flag", true).Set("n", 1.5)

	assert.False(t, b.IsEmpty())
	assert.True(t, b.Has("name"))
	assert.False(t, b.Has("missing"))
	assert.Equal(t, "Steve", b.GetString("name"))
	assert.Equal(t, "", b.GetString("n"))
	assert.True(t, b.GetBool("flag"))
	assert.False(t, b.GetBool("name"))
	assert.Equal(t, 1.5, b.Get("n"))
	assert.JSONEq(t, `{"name":"Steve","flag":true,"n":1.5}`, b.String())
	assert.True(t, NewBody().IsEmpty())
}

func TestBody_BlockRoundTrip(t *testing.T) {
	w := newWorld()
	dim, _ := w.Dimension("minecraft:overworld")
	blk, ok := dim.Block(host.Location{X: 1, Y: -64, Z: 3})
	require.True(t, ok)

	b := wire(t, NewBody().WriteBlock("target", blk))
	assert.Equal(t, map[string]any{
		"type":      "block",
		"dimension": "minecraft:overworld",
		"x":         1.0,
		"y":         -64.0,
		"z":         3.0,
	}, b.Get("target"))

	got, ok := b.ReadBlock("target", w)
	require.True(t, ok)
	assert.Equal(t, host.Location{X: 1, Y: -64, Z: 3}, got.Location())
	assert.Equal(t, "minecraft:overworld", got.Dimension().ID())
}

func TestBody_BlockUnknownDimension(t *testing.T) {
	w := newWorld()
	b := NewBody().Set("target", map[string]any{"type": "block", "dimension": "minecraft:nether", "x": 0, "y": 0, "z": 0})

	_, ok := b.ReadBlock("target", w)
	assert.False(t, ok)
}

func TestBody_PermutationRoundTrip(t *testing.T) {
	w := newWorld()
	perm, err := w.ResolvePermutation("minecraft:wheat", map[string]any{"growth": 3})
	require.NoError(t, err)

	b := wire(t, NewBody().WritePermutation("p", perm))
	got, err := b.ReadPermutation("p", w)
	require.NoError(t, err)
	assert.Equal(t, "minecraft:wheat", got.TypeID())
	assert.Equal(t, map[string]any{"growth": 3}, got.States())
}

func TestBody_PermutationInvalidState(t *testing.T) {
	w := newWorld()
	b := NewBody().Set("p", map[string]any{
		"type":      "block_permutation",
		"blockName": "minecraft:wool",
		"states":    map[string]any{"color": "plaid"},
	})

	_, err := b.ReadPermutation("p", w)
	assert.ErrorIs(t, err, memhost.ErrInvalidState)

	_, err = NewBody().Set("p", "nope").ReadPermutation("p", w)
	assert.Error(t, err)
}

func TestBody_DateRoundTrip(t *testing.T) {
	ts := time.UnixMilli(1700000000123)

	b := wire(t, NewBody().WriteDate("at", ts))
	assert.Equal(t, map[string]any{"type": "date", "timestamp": 1700000000123.0}, b.Get("at"))

	got, ok := b.ReadDate("at")
	require.True(t, ok)
	assert.True(t, ts.Equal(got))
}

func TestBody_DateTruncatesToMillis(t *testing.T) {
	ts := time.Unix(10, 123456789)
	got, ok := DecodeDate(EncodeDate(ts))
	require.True(t, ok)
	assert.Equal(t, int64(10123), got.UnixMilli())
	assert.Equal(t, 123000000, got.Nanosecond())
}

func TestBody_EntityRoundTrip(t *testing.T) {
	w := newWorld()
	w.SpawnEntity("-42")

	ent, ok := w.Entity("-42")
	require.True(t, ok)

	b := wire(t, NewBody().WriteEntity("who", ent))
	assert.Equal(t, map[string]any{"type": "entity", "id": "-42"}, b.Get("who"))

	got, ok := b.ReadEntity("who", w)
	require.True(t, ok)
	assert.Equal(t, "-42", got.ID())

	w.Despawn("-42")
	_, ok = b.ReadEntity("who", w)
	assert.False(t, ok)
}

func TestEncodeValue_Nested(t *testing.T) {
	w := newWorld()
	player := w.SpawnPlayer("7", "Alex")
	ts := time.UnixMilli(5000)

	encoded := EncodeValue([]any{
		"plain",
		2.0,
		player,
		map[string]any{"when": ts, "tags": []any{"a"}},
	})

	raw, err := json.Marshal(encoded)
	require.NoError(t, err)
	assert.JSONEq(t, `["plain",2,{"type":"entity","id":"7"},{"when":{"type":"date","timestamp":5000},"tags":["a"]}]`, string(raw))

	var back any
	require.NoError(t, json.Unmarshal(raw, &back))

	decoded, ok := DecodeValue(back, w).([]any)
	require.True(t, ok)
	require.Len(t, decoded, 4)
	assert.Equal(t, "plain", decoded[0])

	ent, ok := decoded[2].(host.Entity)
	require.True(t, ok)
	assert.Equal(t, "7", ent.ID())

	inner := decoded[3].(map[string]any)
	assert.True(t, ts.Equal(inner["when"].(time.Time)))
	assert.Equal(t, []any{"a"}, inner["tags"])
}

func TestEncodeValue_TypedContainers(t *testing.T) {
	w := newWorld()
	steve := w.SpawnPlayer("1", "Steve")
	alex := w.SpawnEntity("2")
	dim, _ := w.Dimension("minecraft:overworld")
	blk, ok := dim.Block(host.Location{X: 4, Y: 5, Z: 6})
	require.True(t, ok)

	encoded := EncodeValue(map[string]any{
		"entities": []host.Entity{steve, alex},
		"blocks":   map[string]host.Block{"home": blk},
		"pair":     [2]time.Time{time.UnixMilli(1), time.UnixMilli(2)},
		"names":    []string{"a", "b"},
		"raw":      []byte("hi"),
	})

	raw, err := json.Marshal(encoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"entities": [{"type":"entity","id":"1"},{"type":"entity","id":"2"}],
		"blocks": {"home": {"type":"block","dimension":"minecraft:overworld","x":4,"y":5,"z":6}},
		"pair": [{"type":"date","timestamp":1},{"type":"date","timestamp":2}],
		"names": ["a","b"],
		"raw": "aGk="
	}`, string(raw))

	var nilEntities []host.Entity
	assert.Nil(t, EncodeValue(nilEntities))
	assert.Equal(t, map[int]string{1: "x"}, EncodeValue(map[int]string{1: "x"}))
}

func TestDecodeValue_UnresolvableIsNil(t *testing.T) {
	w := newWorld()
	v := DecodeValue(map[string]any{"type": "entity", "id": "gone"}, w)
	assert.Nil(t, v)
}

func TestDecodeValue_NilLookupKeepsReferences(t *testing.T) {
	rec := map[string]any{"type": "entity", "id": "1"}
	assert.Equal(t, rec, DecodeValue(rec, nil))

	date := DecodeValue(map[string]any{"type": "date", "timestamp": 1000.0}, nil)
	assert.Equal(t, int64(1000), date.(time.Time).UnixMilli())
}

func TestDecodeValue_UserDataWithTypeField(t *testing.T) {
	w := newWorld()
	v := map[string]any{"type": "entity", "name": "not a reference"}
	assert.Equal(t, v, DecodeValue(v, w))
}
