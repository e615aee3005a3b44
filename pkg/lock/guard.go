// Package lock serializes pipeline operations per access token. The label
// pipeline itself holds no locks; callers that may run operations from
// several goroutines or processes take a Guard first.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/boxnow-labels/pkg/parcel"
)

// ErrBusy is returned when another operation holds the lock for the token.
var ErrBusy = errors.New("another operation is in flight for this session")

var (
	lockAcquiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boxnow_lock_acquire_total",
		Help: "Lock acquisition attempts by backend and result",
	}, []string{"backend", "result"})
)

// Guard hands out exclusive access per access token.
type Guard interface {
	// Acquire takes the lock for token without waiting. The returned
	// release func is safe to call more than once.
	Acquire(ctx context.Context, token parcel.AccessToken) (release func(), err error)
}

// KeyFor derives the lock key from a token. The token itself is never
// stored.
func KeyFor(token parcel.AccessToken) string {
	sum := sha256.Sum256([]byte(token.Value()))
	return KeyPrefix + hex.EncodeToString(sum[:16])
}

// KeyPrefix namespaces lock keys in Redis.
const KeyPrefix = "boxnow:lock:"

// MemoryGuard is an in-process Guard.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard creates an in-process guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

// Acquire implements Guard.
func (g *MemoryGuard) Acquire(ctx context.Context, token parcel.AccessToken) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := KeyFor(token)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		lockAcquiredTotal.WithLabelValues("memory", "busy").Inc()
		return nil, ErrBusy
	}
	g.held[key] = struct{}{}
	lockAcquiredTotal.WithLabelValues("memory", "acquired").Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
