package chathub_test

import (
	"context"
	"testing"

	"fitnest/client/internal/chathub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_OneSessionPerPartner(t *testing.T) {
	p := newPeer(t)
	m := chathub.NewManager(testSelf(), &fakeHistory{}, testOptions(p.srv.URL))
	t.Cleanup(m.CloseAll)
	ctx := context.Background()

	first, err := m.Open(ctx, partnerID)
	require.NoError(t, err)
	again, err := m.Open(ctx, partnerID)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, m.Len())

	m.Release(partnerID)
	assert.Equal(t, chathub.StateClosed, first.State())
	assert.Zero(t, m.Len())

	fresh, err := m.Open(ctx, partnerID)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
}

func TestManager_ReplacesClosedSession(t *testing.T) {
	p := newPeer(t)
	m := chathub.NewManager(testSelf(), &fakeHistory{}, testOptions(p.srv.URL))
	t.Cleanup(m.CloseAll)
	ctx := context.Background()

	first, err := m.Open(ctx, partnerID)
	require.NoError(t, err)
	waitState(t, first, chathub.StateOpen)
	require.NoError(t, p.accepted(t).Close())
	waitState(t, first, chathub.StateClosed)

	p.conn = nil
	second, err := m.Open(ctx, partnerID)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	waitState(t, second, chathub.StateOpen)
}

func TestManager_RejectsInvalidPartner(t *testing.T) {
	p := newPeer(t)
	m := chathub.NewManager(testSelf(), &fakeHistory{}, testOptions(p.srv.URL))

	_, err := m.Open(context.Background(), selfID)
	assert.ErrorIs(t, err, chathub.ErrInvalidPartner)
	assert.Zero(t, m.Len())
}

func TestManager_CloseAll(t *testing.T) {
	p := newPeer(t)
	m := chathub.NewManager(testSelf(), &fakeHistory{}, testOptions(p.srv.URL))
	ctx := context.Background()

	a, err := m.Open(ctx, 5)
	require.NoError(t, err)
	b, err := m.Open(ctx, 7)
	require.NoError(t, err)

	m.CloseAll()
	assert.Equal(t, chathub.StateClosed, a.State())
	assert.Equal(t, chathub.StateClosed, b.State())
	assert.Zero(t, m.Len())
}
