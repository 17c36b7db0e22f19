package speaker_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/speaker"
)

// registryRuns keeps registered names unique across -count runs.
var registryRuns atomic.Int64

func TestRegistry(t *testing.T) {
	b := newFakeBackend()
	b.formats = speaker.EncodingMask(speaker.EncodingSigned16, speaker.EncodingFloat32)

	name := fmt.Sprintf("test-registry-%d", registryRuns.Add(1))
	speaker.Register(name, b)

	assert.Contains(t, speaker.Backends(), name)

	got, err := speaker.Lookup(name)
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = speaker.Lookup("missing")
	assert.ErrorIs(t, err, speaker.ErrNoBackend)

	assert.Panics(t, func() { speaker.Register(name, b) })
	assert.Panics(t, func() { speaker.Register("test-nil", nil) })

	t.Setenv(speaker.BackendEnv, name)

	def, err := speaker.DefaultBackend()
	require.NoError(t, err)
	assert.Same(t, b, def)

	assert.True(t, speaker.IsSupported(speaker.EncodingSigned16))
	assert.True(t, speaker.IsSupported(speaker.EncodingFloat32))
	assert.False(t, speaker.IsSupported(speaker.EncodingSigned24))

	t.Setenv(speaker.BackendEnv, "missing")
	assert.False(t, speaker.IsSupported(speaker.EncodingSigned16))
}
