package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SigningKeyEnvVar holds the base64 encoded 32 byte key used to
	// sign auth tokens. The variable is wiped after being read.
	SigningKeyEnvVar = "SMSAPP_AUTH_SIGNING_KEY"

	tokenLifetime = 24 * time.Hour
)

type (
	// TokenStore remembers which auth tokens this process issued. A
	// token absent from the store is simply expired; clients redo the
	// login to obtain a new one. Tokens might be lost if they expire,
	// the service restarts, or the entry is evicted from cache.
	TokenStore interface {
		Save(ctx context.Context, token string) error
		Lookup(ctx context.Context, token string) (bool, error)
	}

	// Signer turns claims into signed, resumable auth tokens, the
	// same shape the realtime transport hands to clients on login.
	Signer struct {
		key    []byte
		tokens TokenStore
	}

	tokenClaims struct {
		Username string `json:"username"`
		Channel  string `json:"channel"`
		jwt.RegisteredClaims
	}
)

func NewSigner(key []byte, tokens TokenStore) *Signer {
	return &Signer{key: key, tokens: tokens}
}

// SigningKeyFromEnv decodes the signing key from the named
// environment variable and removes it from the environment so child
// processes cannot read it back.
func SigningKeyFromEnv(varname string, getfn func(string) string, setfn func(string, string) error) ([]byte, error) {
	if getfn == nil {
		getfn = os.Getenv
	}
	if setfn == nil {
		setfn = os.Setenv
	}
	val := getfn(varname)
	setfn(varname, "")
	buf := make([]byte, base64.StdEncoding.DecodedLen(len(val)))
	sz, err := base64.StdEncoding.Decode(buf, []byte(val))
	if err != nil {
		return nil, fmt.Errorf("auth: cannot decode string to valid key, cause %v", err)
	} else if sz != 32 {
		return nil, fmt.Errorf("auth: decoded key has %v bytes, expecting 32", sz)
	}
	return buf[:sz], nil
}

func (s *Signer) Issue(ctx context.Context, claim *Claim, now time.Time) (string, error) {
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: claim.Username,
		Channel:  claim.Channel,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	})
	signed, err := tk.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("unable to sign auth token, cause %w", err)
	}
	err = s.tokens.Save(ctx, signed)
	if err != nil {
		return "", fmt.Errorf("unable to save auth token, cause %w", err)
	}
	return signed, nil
}

func (s *Signer) Redeem(ctx context.Context, token string) (*Claim, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrUnauthorized
	}
	found, err := s.tokens.Lookup(ctx, token)
	if err != nil || !found {
		return nil, ErrUnauthorized
	}
	if claims.Username == "" || claims.Channel == "" {
		return nil, ErrUnauthorized
	}
	return &Claim{Username: claims.Username, Channel: claims.Channel}, nil
}
