package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/cdrandin/SMS-Simple-Web-App/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSub struct {
	got  []push
	fail bool
}

func (f *fakeSub) deliver(p push) error {
	if f.fail {
		return errors.New("gone")
	}
	f.got = append(f.got, p)
	return nil
}

func TestHubBroadcast(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	a, b, c := &fakeSub{}, &fakeSub{}, &fakeSub{}
	hub.subscribe("alpha", a)
	hub.subscribe("alpha", b)
	hub.subscribe("beta", c)

	hub.broadcast(ctx, "alpha", "hello")
	require.Len(t, a.got, 1)
	require.Len(t, b.got, 1)
	require.Empty(t, c.got)

	env := a.got[0].Data.(publishEnvelope)
	assert.Equal(t, "alpha", env.Channel)
	assert.Equal(t, "hello", env.Data)
	assert.Equal(t, eventPublish, a.got[0].Event)
}

func TestHubUnsubscribeAll(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	a := &fakeSub{}
	hub.subscribe("alpha", a)
	hub.subscribe("beta", a)
	hub.unsubscribeAll(a)
	hub.broadcast(ctx, "alpha", 1)
	hub.broadcast(ctx, "beta", 2)
	require.Empty(t, a.got)
}

func TestHubDeadSubscriberDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	dead, live := &fakeSub{fail: true}, &fakeSub{}
	hub.subscribe("alpha", dead)
	hub.subscribe("alpha", live)
	hub.broadcast(ctx, "alpha", "still delivered")
	require.Len(t, live.got, 1)
}

func TestPublishInChain(t *testing.T) {
	hub := NewHub()
	gate := auth.NewService(nil, nil)
	hub.UsePublishIn(gate.Authorize)

	claim := &auth.Claim{Username: "ana", Channel: "chan-ana"}
	assert.NoError(t, hub.checkPublishIn(claim, "chan-ana"))
	assert.ErrorIs(t, hub.checkPublishIn(claim, "chan-bob"), auth.ErrUnauthorized)
	assert.ErrorIs(t, hub.checkPublishIn(nil, "chan-ana"), auth.ErrUnauthorized)
}

func TestPongCounter(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, uint64(1), hub.nextPong())
	assert.Equal(t, uint64(2), hub.nextPong())
}
