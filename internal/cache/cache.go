// Package cache keeps computed reports between ledger changes.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache stores derived values between ledger changes. Purge invalidates
// everything and starts a new generation; SetIfCurrent refuses values built
// under an older one.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Generation() uint64
	SetIfCurrent(key string, value T, gen uint64) bool
	Delete(key string)
	Purge()
	Len() int
}

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps expired entries out of registered caches.
type Janitor struct {
	interval time.Duration
	caches   []Cleaner
}

func NewJanitor(interval time.Duration, caches ...Cleaner) *Janitor {
	return &Janitor{interval: interval, caches: caches}
}

// Sweep cleans every cache once and returns the number of entries removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		}
	}
}
