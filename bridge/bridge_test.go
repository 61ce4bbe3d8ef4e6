package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/addonbridge/host"
	"github.com/hupe1980/addonbridge/host/memhost"
	"github.com/hupe1980/addonbridge/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	b := New("com.example.mypack")
	assert.Equal(t, "com.example.mypack", b.AddonID())
	assert.Equal(t, DefaultVersion, b.Version())
	assert.Empty(t, b.Description())
	assert.Empty(t, b.Kinds())

	b = New("x", func(o *Options) {
		o.Version = "2.1.0"
		o.Description = "An example"
	})
	assert.Equal(t, "2.1.0", b.Version())
	assert.Equal(t, "An example", b.Description())

	b.SetDescription("changed")
	assert.Equal(t, "changed", b.Description())
}

func TestDefineProperty_Idempotent(t *testing.T) {
	w := memhost.NewWorld()
	d := Descriptor{Slot: DataSlot{Value: "Steve", Writable: true}, Enumerable: true}

	once := New("a")
	once.DefineProperty(w, "name", d)

	twice := New("a")
	twice.DefineProperty(w, "name", d)
	twice.DefineProperty(w, "name", d)

	assert.Equal(t, once.Properties(), twice.Properties())
	got1, ok1 := once.Property(host.KindWorld, "name")
	got2, ok2 := twice.Property(host.KindWorld, "name")
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, got1, got2)
}

func TestDefineProperty_ReplacesWholesale(t *testing.T) {
	b := New("a")
	b.DefineKindProperty(host.KindWorld, "first", Descriptor{Slot: DataSlot{Value: 1, Writable: true}, Enumerable: true, Description: "old"})
	b.DefineKindProperty(host.KindWorld, "second", Value(2, false))
	b.DefineKindProperty(host.KindWorld, "first", Value("new", false))

	d, ok := b.Property(host.KindWorld, "first")
	require.True(t, ok)
	assert.Equal(t, DataSlot{Value: "new"}, d.Slot)
	assert.False(t, d.Enumerable)
	assert.Empty(t, d.Description)

	assert.Equal(t, []PropertyRef{
		{Kind: host.KindWorld, Name: "first"},
		{Kind: host.KindWorld, Name: "second"},
	}, b.Properties())
}

func TestDefineProperty_NilSlotIsData(t *testing.T) {
	b := New("a")
	b.DefineKindProperty(host.KindWorld, "p", Descriptor{})
	d, _ := b.Property(host.KindWorld, "p")
	assert.Equal(t, DataSlot{}, d.Slot)
}

func TestKinds_OrderAndPerEntity(t *testing.T) {
	w := memhost.NewWorld()
	b := New("a")
	b.DefineProperty(w.SpawnEntity("1"), "health", Value(20, false))
	b.DefineProperty(w, "name", Value("Steve", false))
	b.DefineProperty(w.SpawnPlayer("2", "Alex"), "mana", Value(5, false))

	assert.Equal(t, []host.ObjectKind{host.KindEntity, host.KindWorld}, b.Kinds())
	assert.Equal(t, []PropertyRef{
		{Kind: host.KindEntity, Name: "health"},
		{Kind: host.KindEntity, Name: "mana"},
		{Kind: host.KindWorld, Name: "name"},
	}, b.Properties())
	assert.Equal(t, "health (Entity)", b.Properties()[0].String())
}

func TestKeys_EnumerableOnly(t *testing.T) {
	b := New("a")
	b.DefineKindProperty(host.KindWorld, "visible", Descriptor{Slot: DataSlot{}, Enumerable: true})
	b.DefineKindProperty(host.KindWorld, "hidden", Descriptor{Slot: DataSlot{}})
	b.DefineKindProperty(host.KindWorld, "alsoVisible", Descriptor{Slot: AccessorSlot{}, Enumerable: true})

	assert.Equal(t, []string{"visible", "alsoVisible"}, b.Keys(host.KindWorld))
	assert.Nil(t, b.Keys(host.KindEntity))
}

func TestDeleteProperty(t *testing.T) {
	b := New("a")
	b.DefineKindProperty(host.KindWorld, "locked", Value(1, true))
	b.DefineKindProperty(host.KindWorld, "loose", Descriptor{Slot: DataSlot{}, Configurable: true})

	err := b.DeleteProperty(host.KindWorld, "locked")
	assert.ErrorIs(t, err, ErrNotConfigurable)
	_, ok := b.Property(host.KindWorld, "locked")
	assert.True(t, ok)

	require.NoError(t, b.DeleteProperty(host.KindWorld, "loose"))
	_, ok = b.Property(host.KindWorld, "loose")
	assert.False(t, ok)

	assert.ErrorIs(t, b.DeleteProperty(host.KindWorld, "loose"), ErrPropertyNotFound)
	assert.ErrorIs(t, b.DeleteProperty(host.KindEntity, "x"), ErrPropertyNotFound)
}

func TestDeleteProperty_LastPropertyDropsKind(t *testing.T) {
	b := New("a")
	b.DefineKindProperty(host.KindEntity, "p", Descriptor{Slot: DataSlot{}, Configurable: true})
	require.NoError(t, b.DeleteProperty(host.KindEntity, "p"))
	assert.Empty(t, b.Kinds())
}

func TestLookup_Messages(t *testing.T) {
	b := New("a")
	b.DefineKindProperty(host.KindWorld, "name", Value("Steve", true))

	_, err := b.lookup(host.KindEntity, "name")
	assert.EqualError(t, err, "No properties found for Entity")

	_, err = b.lookup(host.KindWorld, "age")
	assert.EqualError(t, err, "Property age not found on World")
}

func TestDescriptor_Writable(t *testing.T) {
	assert.True(t, Value(1, true).Writable())
	assert.False(t, Value(1, false).Writable())
	assert.False(t, Accessor(nil, nil).Writable())
	assert.True(t, Accessor(nil, func(host.Object, any) error { return nil }).Writable())
	assert.False(t, Descriptor{}.Writable())
}

func TestDescriptor_TypeName(t *testing.T) {
	fn := func(host.Object, []any) (any, error) { return nil, nil }

	assert.Equal(t, "string", Value("Steve", true).TypeName())
	assert.Equal(t, "integer", Value(3, true).TypeName())
	assert.Equal(t, "boolean", Value(false, true).TypeName())
	assert.Equal(t, "date", Value(time.UnixMilli(0), true).TypeName())
	assert.Equal(t, "function", Value(fn, true).TypeName())
	assert.Equal(t, "function", Method(fn).TypeName())
	assert.Equal(t, "setter / getter", Accessor(nil, nil).TypeName())
	assert.Equal(t, "null", Descriptor{}.TypeName())
}

func TestDescriptor_Callable(t *testing.T) {
	raw := func(host.Object, []any) (any, error) { return "raw", nil }

	for name, v := range map[string]any{
		"plain func": raw,
		"Func":       Func(raw),
		"Function":   Function{Fn: raw},
		"*Function":  &Function{Fn: raw},
	} {
		fn, ok := Value(v, false).Callable()
		require.True(t, ok, name)
		out, err := fn.Invoke(nil, nil)
		require.NoError(t, err, name)
		assert.Equal(t, "raw", out, name)
	}

	_, ok := Value("nope", false).Callable()
	assert.False(t, ok)
	_, ok = Value((*Function)(nil), false).Callable()
	assert.False(t, ok)
	_, ok = Accessor(nil, nil).Callable()
	assert.False(t, ok)
}

func TestFunction_Invoke(t *testing.T) {
	w := memhost.NewWorld()
	greet := &Function{
		Fn: func(obj host.Object, args []any) (any, error) {
			return "Hello, " + args[0].(string) + " from " + string(obj.Kind()), nil
		},
		Params: []Param{{Name: "name", Type: util.TypeString}},
	}

	out, err := greet.Invoke(w, []any{"Alex"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Alex from World", out)

	_, err = greet.Invoke(w, []any{42.0})
	var ve *util.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = greet.Invoke(w, nil)
	assert.Error(t, err)
}

func TestFunction_InvokeRecoversPanic(t *testing.T) {
	f := &Function{Fn: func(host.Object, []any) (any, error) { panic("boom") }}
	_, err := f.Invoke(nil, nil)
	assert.EqualError(t, err, "function panic: boom")

	var empty *Function
	_, err = empty.Invoke(nil, nil)
	assert.Error(t, err)
}

func TestVerb_Valid(t *testing.T) {
	for _, v := range Verbs() {
		assert.True(t, v.Valid(), v)
	}
	assert.False(t, Verb("delete").Valid())
	assert.Len(t, Verbs(), 6)
}
