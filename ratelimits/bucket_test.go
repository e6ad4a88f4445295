package ratelimits

import "testing"

func TestDrainUntilEmpty(t *testing.T) {
	b := &BucketContainer{}

	for i := 0; i < BUCKET_INITIAL_FILL; i++ {
		if err := b.Drain(1, "u1"); err != nil {
			t.Fatalf("ratelimits.Drain() failed early at key %d: %s", i, err)
		}
	}

	if b.HasKeys("u1") {
		t.Fatalf("ratelimits.HasKeys() reported keys on an empty bucket")
	}
	if err := b.Drain(1, "u1"); err != ErrNoKeys {
		t.Fatalf("ratelimits.Drain() should fail on an empty bucket, got %v", err)
	}
}

func TestRefillChillZone(t *testing.T) {
	b := &BucketContainer{}
	b.Set("u1", -1)

	b.Refill()
	if b.Get("u1") != 0 {
		t.Fatalf("ratelimits.Refill() should lift -1 to 0, got %d", b.Get("u1"))
	}

	b.Refill()
	if b.Get("u1") != BUCKET_INITIAL_FILL {
		t.Fatalf("ratelimits.Refill() should reset an empty bucket, got %d", b.Get("u1"))
	}
}

func TestRefillUpperBound(t *testing.T) {
	b := &BucketContainer{}
	b.Set("u1", BUCKET_UPPER_BOUND)

	b.Refill()
	if b.Get("u1") != BUCKET_UPPER_BOUND {
		t.Fatalf("ratelimits.Refill() overfilled a full bucket: %d", b.Get("u1"))
	}
}
