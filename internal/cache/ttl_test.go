package cache

import (
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestGetEvictsExpiredOnRead(t *testing.T) {
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewWithClock[string, int](time.Minute, clk.now)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	clk.advance(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired early")
	}

	clk.advance(time.Second)
	if c.Len() != 1 {
		t.Fatalf("Len before read = %d, want 1", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry returned")
	}
	if c.Len() != 0 {
		t.Fatalf("Len after read = %d, want 0", c.Len())
	}

	st := c.Stats()
	if st.Hits != 2 || st.Misses != 1 || st.Evictions != 1 {
		t.Errorf("stats = %+v, want 2 hits, 1 miss, 1 eviction", st)
	}
}

func TestSetRefreshesExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewWithClock[string, string](time.Minute, clk.now)

	c.Set("k", "v1")
	clk.advance(50 * time.Second)
	c.Set("k", "v2")
	clk.advance(50 * time.Second)

	if v, ok := c.Get("k"); !ok || v != "v2" {
		t.Errorf("Get(k) = %q, %v; want v2, true", v, ok)
	}
}

func TestDeleteAndPurge(t *testing.T) {
	c := New[int, string](time.Hour)
	c.Set(1, "one")
	c.Set(2, "two")
	c.Set(3, "three")

	c.Delete(2)
	if _, ok := c.Get(2); ok {
		t.Error("deleted key still present")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len after purge = %d, want 0", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](time.Hour)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				c.Set(i*100+j, j)
				c.Get(i*100 + j)
			}
		}()
	}
	wg.Wait()
	if c.Len() != 800 {
		t.Errorf("Len = %d, want 800", c.Len())
	}
}
