package cache

import (
	"testing"
	"time"
)

func TestDeleteIfExpiredKeepsReplacedItem(t *testing.T) {
	c := New[string](NoExpiration, NoCleanup)
	c.Set("org:mdn", "stale", time.Nanosecond)
	time.Sleep(time.Millisecond)

	// Same window as in Item: the stale item was seen as expired, but a
	// concurrent Set replaced it before the write lock was acquired.
	c.Set("org:mdn", "fresh", NoExpiration)
	c.deleteIfExpired("org:mdn")

	if got, found := c.Get("org:mdn"); !found || got != "fresh" {
		t.Errorf("Cache.Get() = (%q, %v), want (%q, true)", got, found, "fresh")
	}

	c.Set("org:w3c", "stale", time.Nanosecond)
	time.Sleep(time.Millisecond)
	c.deleteIfExpired("org:w3c")
	if got := c.Len(); got != 1 {
		t.Errorf("Cache.Len() = %d, want 1", got)
	}
}
