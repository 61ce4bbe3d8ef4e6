package memhost

import (
	"testing"

	"github.com/hupe1980/addonbridge/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_EveryTick(t *testing.T) {
	s := NewScheduler()
	calls := 0
	cancel := s.EveryTick(func() { calls++ })

	assert.Zero(t, calls)
	s.Run(3)
	assert.Equal(t, 3, calls)
	assert.Equal(t, uint64(3), s.CurrentTick())

	cancel()
	cancel()
	s.Tick()
	assert.Equal(t, 3, calls)
	assert.Zero(t, s.Active())
}

func TestScheduler_RegisteredDuringTickRunsNextTick(t *testing.T) {
	s := NewScheduler()
	inner := 0
	var once bool
	s.EveryTick(func() {
		if !once {
			once = true
			s.EveryTick(func() { inner++ })
		}
	})

	s.Tick()
	assert.Zero(t, inner)
	s.Tick()
	assert.Equal(t, 1, inner)
}

func TestScheduler_CancelMidTick(t *testing.T) {
	s := NewScheduler()
	second := 0
	var cancelSecond func()
	s.EveryTick(func() { cancelSecond() })
	cancelSecond = s.EveryTick(func() { second++ })

	s.Tick()
	assert.Zero(t, second)
}

func TestBus_RoutesByNamespace(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe("a", func(channel, payload string) { got = append(got, "a1:"+channel+":"+payload) })
	unsub := b.Subscribe("a", func(channel, payload string) { got = append(got, "a2:"+payload) })
	b.Subscribe("b", func(_, payload string) { got = append(got, "b:"+payload) })

	b.Broadcast("a:1", "x")
	unsub()
	b.Broadcast("a:2", "y")
	b.Broadcast("c:3", "z")

	assert.Equal(t, []string{"a1:a:1:x", "a2:x", "a1:a:2:y"}, got)
	assert.Equal(t, "plain", Namespace("plain"))
}

func TestProperties_NilDeletes(t *testing.T) {
	p := NewProperties()
	require.NoError(t, p.SetDynamicProperty("name", "Steve"))

	v, ok := p.DynamicProperty("name")
	require.True(t, ok)
	assert.Equal(t, "Steve", v)

	require.NoError(t, p.SetDynamicProperty("name", nil))
	_, ok = p.DynamicProperty("name")
	assert.False(t, ok)
}

func TestWorld_Entities(t *testing.T) {
	w := NewWorld()
	w.SpawnEntity("1")
	player := w.SpawnPlayer("2", "Alex")

	e, ok := w.Entity("2")
	require.True(t, ok)
	p, ok := e.(host.Player)
	require.True(t, ok)
	assert.Equal(t, "Alex", p.Name())
	assert.Equal(t, host.KindEntity, player.Kind())

	w.Despawn("1")
	_, ok = w.Entity("1")
	assert.False(t, ok)
	assert.Equal(t, host.KindWorld, w.Kind())
}

func TestWorld_EntityPropertyFactory(t *testing.T) {
	shared := NewProperties()
	w := NewWorld(func(o *WorldOptions) {
		o.EntityProperties = func(string) host.DynamicProperties { return shared }
	})

	e := w.SpawnEntity("1")
	require.NoError(t, e.SetDynamicProperty("k", "v"))
	v, ok := shared.DynamicProperty("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestWorld_ResolvePermutation(t *testing.T) {
	w := NewWorld()
	w.RegisterBlockType("minecraft:wool", map[string][]any{"color": {"white", "red"}})
	w.RegisterBlockType("minecraft:wheat", map[string][]any{"growth": {0, 1, 2}})

	p, err := w.ResolvePermutation("minecraft:wool", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": "white"}, p.States())

	p, err = w.ResolvePermutation("minecraft:wheat", map[string]any{"growth": 2.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"growth": 2}, p.States())

	_, err = w.ResolvePermutation("minecraft:stone", nil)
	assert.ErrorIs(t, err, ErrUnknownBlockType)

	_, err = w.ResolvePermutation("minecraft:wool", map[string]any{"shape": "x"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = w.ResolvePermutation("minecraft:wool", map[string]any{"color": "plaid"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDimension_BlocksDefaultToAir(t *testing.T) {
	w := NewWorld()
	d := w.AddDimension("minecraft:overworld")
	assert.Same(t, d, w.AddDimension("minecraft:overworld"))

	blk := d.BlockAt(host.Location{X: 1, Y: 2, Z: 3})
	assert.Equal(t, "minecraft:air", blk.Permutation().TypeID())

	w.RegisterBlockType("minecraft:wool", map[string][]any{"color": {"white"}})
	wool, err := w.ResolvePermutation("minecraft:wool", nil)
	require.NoError(t, err)
	blk.SetPermutation(wool)

	again, ok := d.Block(host.Location{X: 1, Y: 2, Z: 3})
	require.True(t, ok)
	assert.Equal(t, "minecraft:wool", again.(*Block).Permutation().TypeID())

	_, ok = w.Dimension("minecraft:nether")
	assert.False(t, ok)
}
