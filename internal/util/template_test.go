package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate(`{{.Name}}: {{yesno .On}} {{default "none" .Desc}} [{{join ", " .Args}}]`, map[string]any{
		"Name": "greet",
		"On":   true,
		"Desc": "",
		"Args": []any{"name", 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "greet: Yes none [name, 2]", out)

	_, err = RenderTemplate("{{", nil)
	assert.Error(t, err)
}
