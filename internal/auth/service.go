package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/cdrandin/SMS-Simple-Web-App/internal/credential"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/logutil"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/userdb"
	"github.com/cdrandin/SMS-Simple-Web-App/internal/workfactor"
)

type (
	// Claim is the identity bound to a live connection after a
	// successful login. It lives exactly as long as the connection
	// and is never persisted.
	Claim struct {
		Username string `json:"username"`
		Channel  string `json:"channel"`
	}

	Service struct {
		store  *userdb.Store
		signer *Signer

		now  func() time.Time
		cost func(time.Time) int

		// bounds concurrent bcrypt work so a login flood cannot
		// starve the connections that are just chatting
		sem chan struct{}
	}
)

func NewService(store *userdb.Store, signer *Signer) *Service {
	return &Service{
		store:  store,
		signer: signer,
		now:    time.Now,
		cost:   workfactor.Current,
		sem:    make(chan struct{}, runtime.NumCPU()),
	}
}

// FinalizeOnInsert returns the hook that turns a placeholder row into
// its final hashed form. Install it with store.OnInsert before the
// store takes any registration.
func (s *Service) FinalizeOnInsert() userdb.InsertHook {
	return func(ctx context.Context, username, plaintext string) error {
		cost := s.cost(s.now())
		hash, err := s.hashOffLoop(ctx, func() (string, error) {
			return credential.HashPassword(plaintext, cost)
		})
		if err != nil {
			return err
		}
		channel, err := s.hashOffLoop(ctx, func() (string, error) {
			return credential.DeriveChannelToken(username, hash, cost)
		})
		if err != nil {
			return err
		}
		return s.store.Finalize(ctx, username, hash, channel)
	}
}

// Login verifies the credentials and returns the claim for the
// caller's private channel. Unknown usernames and wrong passwords are
// indistinguishable from the outside.
func (s *Service) Login(ctx context.Context, username, password string) (*Claim, error) {
	if username == "" || password == "" {
		return nil, ErrMalformedRequest
	}
	user, err := s.store.FindByUsername(ctx, username)
	var missing userdb.UserNotFound
	var notReady userdb.UserNotReady
	switch {
	case errors.As(err, &missing):
		return nil, ErrInvalidCredentials
	case errors.As(err, &notReady):
		return nil, ErrAccountNotReady
	case err != nil:
		log := logutil.GetOrDefault(ctx)
		log.Error().Err(err).Str("username", username).Msg("User lookup failed")
		return nil, fmt.Errorf("unable to verify credentials, cause %w", err)
	}
	var ok bool
	_, err = s.hashOffLoop(ctx, func() (string, error) {
		ok = credential.Verify(password, user.PasswordHash)
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &Claim{Username: user.Username, Channel: user.Channel}, nil
}

// Authorize decides whether the holder of claim may publish to
// channel: only an authenticated connection, and only on its own
// channel. The original deployment let any authenticated socket
// publish anywhere; that gap is closed here.
func (s *Service) Authorize(claim *Claim, channel string) error {
	if claim == nil || claim.Channel != channel {
		return ErrUnauthorized
	}
	return nil
}

// Issue signs a resumable auth token for claim.
func (s *Service) Issue(ctx context.Context, claim *Claim) (string, error) {
	return s.signer.Issue(ctx, claim, s.now())
}

// Redeem rebuilds a claim from a token issued by this process.
func (s *Service) Redeem(ctx context.Context, token string) (*Claim, error) {
	return s.signer.Redeem(ctx, token)
}

// hashOffLoop runs one expensive hash under the worker semaphore,
// honoring ctx while waiting for a slot.
func (s *Service) hashOffLoop(ctx context.Context, fn func() (string, error)) (string, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-s.sem }()
	return fn()
}
