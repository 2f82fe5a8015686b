package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUSetGet(t *testing.T) {
	c := NewLRU[string](4, time.Hour)

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Fatalf("Get(a) = (%q, %v), want (alpha, true)", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) = true, want false")
	}
}

func TestLRUOverwrite(t *testing.T) {
	c := NewLRU[int](2, 0)

	c.Set("k", 1)
	c.Set("k", 2)
	if got, _ := c.Get("k"); got != 2 {
		t.Fatalf("Get(k) = %d, want 2", got)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](3, 0)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a")
	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %s to survive eviction", key)
		}
	}
}

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)

	c.Set("k", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to be gone")
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	c := NewLRU[int](10, 0)

	c.Set("k", 1)
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry with zero ttl should not expire")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired() = %d, want 0", n)
	}
}

func TestLRUCleanExpired(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	time.Sleep(20 * time.Millisecond)

	if n := c.CleanExpired(); n != 5 {
		t.Fatalf("CleanExpired() = %d, want 5", n)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUDeleteAndClear(t *testing.T) {
	c := NewLRU[int](10, 0)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a to be deleted")
	}

	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("Size() after Clear = %d, want 0", c.Size())
	}
}
