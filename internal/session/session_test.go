package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younghoyk/mr-daebak-order/internal/backend"
)

func TestSessionLifecycle(t *testing.T) {
	m := NewManager(backend.NewClient("http://127.0.0.1:1"))

	s := m.Create()
	require.NotEmpty(t, s.ID)
	require.NotNil(t, s.Store)
	require.NotNil(t, s.Flow)
	require.NotNil(t, s.Checkout)
	require.NotNil(t, s.Agent)

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	m.Close(s.ID)
	_, ok = m.Get(s.ID)
	assert.False(t, ok)

	m.Close(s.ID) // idempotent
}

func TestCloseReleasesVoiceCapture(t *testing.T) {
	m := NewManager(backend.NewClient("http://127.0.0.1:1"))
	s := m.Create()

	require.NoError(t, s.Agent.StartVoice())
	m.Close(s.ID)

	assert.Error(t, s.Agent.PushVoice("Zm9v"), "recording released even while in progress")
}

func TestCloseAll(t *testing.T) {
	m := NewManager(backend.NewClient("http://127.0.0.1:1"))
	a := m.Create()
	b := m.Create()

	m.CloseAll()

	_, ok := m.Get(a.ID)
	assert.False(t, ok)
	_, ok = m.Get(b.ID)
	assert.False(t, ok)
}
