package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/allegro/bigcache/v3"
)

type (
	memStore struct {
		cache *bigcache.BigCache
	}
)

// InMemoryTokenStore keeps issued tokens in a bigcache sized to the
// token lifetime, so cache eviction and token expiry coincide.
func InMemoryTokenStore() (TokenStore, error) {
	cache, err := bigcache.NewBigCache(bigcache.DefaultConfig(tokenLifetime))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize token cache, cause %w", err)
	}
	return &memStore{
		cache: cache,
	}, nil
}

func (m *memStore) Save(ctx context.Context, token string) error {
	return m.cache.Set(token, []byte{1})
}

func (m *memStore) Lookup(ctx context.Context, token string) (bool, error) {
	buf, err := m.cache.Get(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return (len(buf) > 0 && buf[0] == 1), nil
}
