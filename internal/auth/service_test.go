package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cdrandin/SMS-Simple-Web-App/internal/credential"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/testutil"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/userdb"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// acquireService wires a Service to a throwaway store with the
// cheapest bcrypt cost so tests stay fast.
func acquireService(ctx context.Context, t *testing.T) (*Service, *userdb.Store, func()) {
	store, cleanup := testutil.AcquireStore(ctx, t)
	svc := NewService(store, NewSigner(testKey, acquireTokenStore(t)))
	svc.cost = func(time.Time) int { return bcrypt.MinCost }
	store.OnInsert(svc.FinalizeOnInsert())
	return svc, store, cleanup
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, store, cleanup := acquireService(ctx, t)
	defer cleanup()

	require.NoError(t, store.Register(ctx, "ana", "hunter2"))

	claim, err := svc.Login(ctx, "ana", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "ana", claim.Username)

	// the claim's channel is exactly the stored token, and that token
	// was derived from the stored password hash
	user, err := store.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	require.Equal(t, user.Channel, claim.Channel)
	require.True(t, credential.Verify("hunter2", user.PasswordHash))
	require.Equal(t, bcrypt.MinCost, mustCost(t, user.PasswordHash))
}

func mustCost(t *testing.T, hash string) int {
	t.Helper()
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	return cost
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, store, cleanup := acquireService(ctx, t)
	defer cleanup()
	require.NoError(t, store.Register(ctx, "ana", "hunter2"))

	_, err := svc.Login(ctx, "ana", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// a missing user is indistinguishable from a wrong password
	_, err = svc.Login(ctx, "ghost", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "", "hunter2")
	require.ErrorIs(t, err, ErrMalformedRequest)
	_, err = svc.Login(ctx, "ana", "")
	require.ErrorIs(t, err, ErrMalformedRequest)
}

func TestLoginBeforeFinalize(t *testing.T) {
	ctx := context.Background()
	store, cleanup := testutil.AcquireStore(ctx, t)
	defer cleanup()
	// no finalizer installed: the row stays in phase one forever
	svc := NewService(store, NewSigner(testKey, acquireTokenStore(t)))
	require.NoError(t, store.Register(ctx, "bob", "secret"))
	_, err := svc.Login(ctx, "bob", "secret")
	require.ErrorIs(t, err, ErrAccountNotReady)
}

func TestAuthorize(t *testing.T) {
	svc := &Service{}
	claim := &Claim{Username: "ana", Channel: "$2a$04$own-channel"}
	require.NoError(t, svc.Authorize(claim, "$2a$04$own-channel"))
	require.ErrorIs(t, svc.Authorize(claim, "$2a$04$other-channel"), ErrUnauthorized)
	require.ErrorIs(t, svc.Authorize(nil, "$2a$04$own-channel"), ErrUnauthorized)
	require.ErrorIs(t, svc.Authorize(claim, ""), ErrUnauthorized)
}

func TestDistinctUsersSamePassword(t *testing.T) {
	ctx := context.Background()
	svc, store, cleanup := acquireService(ctx, t)
	defer cleanup()
	require.NoError(t, store.Register(ctx, "ana", "same-password"))
	require.NoError(t, store.Register(ctx, "bob", "same-password"))
	a, err := svc.Login(ctx, "ana", "same-password")
	require.NoError(t, err)
	b, err := svc.Login(ctx, "bob", "same-password")
	require.NoError(t, err)
	require.NotEqual(t, a.Channel, b.Channel)
}
