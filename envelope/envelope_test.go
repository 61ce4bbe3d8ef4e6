package envelope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_WireFormat(t *testing.T) {
	raw, err := Encode(Headers{ID: "bridge:abc", Type: TypeRequest}, map[string]any{
		"method":   "get",
		"addon":    "com.example.pack",
		"property": "<name>",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"headers":{"id":"bridge:abc","type":"request"},"body":{"addon":"com.example.pack","method":"get","property":"<name>"}}`,
		raw,
	)
}

func TestEncode_KeyOrderIsDeterministic(t *testing.T) {
	body := map[string]any{
		"zeta":  1,
		"alpha": map[string]any{"y": true, "b": nil, "m": []any{"x"}},
		"mid":   "v",
	}
	first, err := Encode(Headers{ID: "x", Type: TypeResponse}, body)
	require.NoError(t, err)
	assert.Equal(t, `{"headers":{"id":"x","type":"response"},"body":{"alpha":{"b":null,"m":["x"],"y":true},"mid":"v","zeta":1}}`, first)

	for i := 0; i < 20; i++ {
		again, err := Encode(Headers{ID: "x", Type: TypeResponse}, body)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncode_NilBody(t *testing.T) {
	raw, err := Encode(Headers{ID: "x", Type: TypeResponse}, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"headers":{"id":"x","type":"response"},"body":{}}`, raw)
}

func TestEncode_Unserializable(t *testing.T) {
	_, err := Encode(Headers{ID: "x", Type: TypeRequest}, map[string]any{"fn": func() {}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncode))
}

func TestDecode_RoundTrip(t *testing.T) {
	body := map[string]any{
		"method": "call",
		"args":   []any{"Alex", 3.0, true, nil},
		"nested": map[string]any{"type": "date", "timestamp": 1700000000000.0},
	}
	raw, err := Encode(Headers{ID: "bridge:1", Type: TypeRequest}, body)
	require.NoError(t, err)

	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Headers{ID: "bridge:1", Type: TypeRequest}, env.Headers)
	assert.Equal(t, body, env.Body)
}

func TestDecode_MissingBody(t *testing.T) {
	env, err := Decode(`{"headers":{"id":"a","type":"response"}}`)
	require.NoError(t, err)
	assert.Empty(t, env.Body)
	assert.NotNil(t, env.Body)
}

func TestDecode_KeepsUnknownType(t *testing.T) {
	env, err := Decode(`{"headers":{"id":"a","type":"ping"},"body":{}}`)
	require.NoError(t, err)
	assert.False(t, env.Headers.Type.Valid())
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"headers":`,
		"array":           `[1,2]`,
		"no headers":      `{"body":{}}`,
		"headers string":  `{"headers":"x","body":{}}`,
		"numeric id":      `{"headers":{"id":1,"type":"request"},"body":{}}`,
		"missing type":    `{"headers":{"id":"a"},"body":{}}`,
		"body not object": `{"headers":{"id":"a","type":"request"},"body":[1]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestType_Valid(t *testing.T) {
	assert.True(t, TypeRequest.Valid())
	assert.True(t, TypeResponse.Valid())
	assert.False(t, Type("").Valid())
}
