package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/pkg/logger"
)

// ErrCredentialsExhausted is returned when every credential in the pool
// failed on quota grounds during a single call.
var ErrCredentialsExhausted = errors.New("all credentials exhausted")

// KeyPool is a fixed, ordered pool of upstream credentials with a rotating
// cursor. Rotation is the sole source of credential selection and advances
// on every Next call regardless of call outcome.
type KeyPool struct {
	keys   []string
	cursor atomic.Uint64
}

// NewKeyPool creates a pool from the ordered key list.
func NewKeyPool(keys []string) (*KeyPool, error) {
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("credential pool must not be empty")
	}
	return &KeyPool{keys: filtered}, nil
}

// Next returns the current credential and advances the cursor. Safe under
// concurrent callers: the advance is a single atomic increment.
func (p *KeyPool) Next() string {
	i := p.cursor.Add(1) - 1
	return p.keys[i%uint64(len(p.keys))]
}

// Size returns the pool size.
func (p *KeyPool) Size() int {
	return len(p.keys)
}

// ProviderFactory builds a Provider for one credential. Factories are called
// lazily, at most once per credential.
type ProviderFactory func(ctx context.Context, apiKey string) (Provider, error)

// Caller wraps the credential pool with retry-until-exhausted semantics.
// Quota failures rotate to the next credential; any other failure class
// propagates immediately.
type Caller struct {
	pool      *KeyPool
	factory   ProviderFactory
	mu        sync.Mutex
	providers map[string]Provider
}

// NewCaller creates a resilient caller over the pool. The default factory
// builds Gemini providers; tests inject their own.
func NewCaller(pool *KeyPool, factory ProviderFactory) *Caller {
	if factory == nil {
		factory = func(ctx context.Context, apiKey string) (Provider, error) {
			return NewGeminiProvider(ctx, apiKey)
		}
	}
	return &Caller{
		pool:      pool,
		factory:   factory,
		providers: make(map[string]Provider),
	}
}

// Generate performs one upstream call, rotating through up to pool-size
// credentials on quota failures. Returns ErrCredentialsExhausted (wrapped
// with the last quota error) when the whole pool is spent.
func (c *Caller) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	attempts := c.pool.Size()
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		key := c.pool.Next()

		provider, err := c.providerFor(ctx, key)
		if err != nil {
			return nil, err
		}

		result, err := provider.Generate(ctx, req)
		if err == nil {
			return result, nil
		}

		if !IsQuotaError(err) {
			return nil, err
		}

		lastErr = err
		logger.Warn("credential exhausted, rotating to next key",
			zap.Int("attempt", attempt+1),
			zap.Int("pool_size", attempts),
		)
	}

	return nil, fmt.Errorf("%w: %v", ErrCredentialsExhausted, lastErr)
}

// providerFor returns the cached provider for a credential, building it on
// first use.
func (c *Caller) providerFor(ctx context.Context, key string) (Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.providers[key]; ok {
		return p, nil
	}

	p, err := c.factory(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider: %w", err)
	}
	c.providers[key] = p
	return p, nil
}
