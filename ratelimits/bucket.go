package ratelimits

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// How many keys a bucket may contain when created
	BUCKET_INITIAL_FILL = 8

	// The maximum amount of keys a user may possess
	BUCKET_UPPER_BOUND = 16

	// How often new keys drip into the buckets
	DROP_INTERVAL = 10 * time.Second

	// How many keys may drop at a time
	DROP_SIZE = 1
)

// ErrNoKeys is returned by Drain when a user ran dry
var ErrNoKeys = errors.New("No keys left")

// Global pointer to a container instance
var Container = &BucketContainer{}

// Container struct to lock the bucket map
type BucketContainer struct {
	sync.RWMutex

	// Maps discord ids to key-counts
	buckets map[string]int8
}

// Init allocates the map and refills buckets until ctx ends
func (b *BucketContainer) Init(ctx context.Context) {
	b.Lock()
	b.buckets = make(map[string]int8)
	b.Unlock()

	go func() {
		ticker := time.NewTicker(DROP_INTERVAL)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.Refill()
			}
		}
	}()
}

// Refill runs one drip over all buckets
func (b *BucketContainer) Refill() {
	b.Lock()
	defer b.Unlock()

	for user, keys := range b.buckets {
		switch {
		// Chill zone
		case keys == -1:
			b.buckets[user]++
		// Chill zone exit
		case keys == 0:
			b.buckets[user] = BUCKET_INITIAL_FILL
		case keys < BUCKET_UPPER_BOUND:
			b.buckets[user] += DROP_SIZE
		}
	}
}

// Drains $amount from $user if they have enough keys left
func (b *BucketContainer) Drain(amount int8, user string) error {
	b.Lock()
	defer b.Unlock()

	b.ensure(user)
	if amount > b.buckets[user] {
		return ErrNoKeys
	}

	b.buckets[user] -= amount
	return nil
}

// HasKeys checks if the user still has keys
func (b *BucketContainer) HasKeys(user string) bool {
	b.Lock()
	defer b.Unlock()

	b.ensure(user)
	return b.buckets[user] > 0
}

func (b *BucketContainer) Get(user string) int8 {
	b.RLock()
	defer b.RUnlock()

	return b.buckets[user]
}

func (b *BucketContainer) Set(user string, value int8) {
	b.Lock()
	defer b.Unlock()

	b.ensure(user)
	b.buckets[user] = value
}

// ensure creates a bucket for user, b must be locked
func (b *BucketContainer) ensure(user string) {
	if b.buckets == nil {
		b.buckets = make(map[string]int8)
	}
	if _, ok := b.buckets[user]; !ok {
		b.buckets[user] = BUCKET_INITIAL_FILL
	}
}
