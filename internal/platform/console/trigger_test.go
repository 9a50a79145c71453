package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_PressesWhileEnabled(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(strings.NewReader("\n\n\n"), &out, "")
	presses := 0

	trigger, err := r.RenderTrigger(func() { presses++ })
	require.NoError(t, err)
	again, err := r.RenderTrigger(func() { presses += 100 })
	require.NoError(t, err)
	assert.Same(t, trigger, again)

	require.NoError(t, r.Run(context.Background(), func() bool { return presses >= 2 }))

	assert.Equal(t, 2, presses)
	assert.Contains(t, out.String(), "Buy with Google Pay")
}

func TestRenderer_DisabledTriggerIgnoresPress(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(strings.NewReader("\n"), &out, "Pay")
	presses := 0
	trigger, err := r.RenderTrigger(func() { presses++ })
	require.NoError(t, err)

	trigger.SetEnabled(false)
	require.NoError(t, r.Run(context.Background(), nil))

	assert.Equal(t, 0, presses)
	assert.Contains(t, out.String(), "(disabled)")
	assert.Contains(t, out.String(), "(payment in progress)")
}
