package cache

import (
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache[string](3, time.Hour)

	var evicted []string
	c.OnEvict(func(key string, _ string) { evicted = append(evicted, key) })

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4") // evicts key1

	if _, found := c.Get("key1"); found {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key2", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if len(evicted) != 1 || evicted[0] != "key1" {
		t.Errorf("evicted = %v, want [key1]", evicted)
	}
}

func TestLRUCacheRecentlyUsedSurvives(t *testing.T) {
	c, _ := newTestCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3) // evicts b, not a

	if _, found := c.Get("b"); found {
		t.Error("b should have been evicted")
	}
	if v, found := c.Get("a"); !found || v != 1 {
		t.Errorf("a = %v, %v; want 1, true", v, found)
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, clock := newTestCache[string](10, time.Minute)
	c.Set("short", "x")
	c.SetWithTTL("long", "y", time.Hour)

	clock.advance(2 * time.Minute)

	if _, found := c.Get("short"); found {
		t.Error("short should have expired")
	}
	if _, found := c.Get("long"); !found {
		t.Error("long should still be live")
	}

	clock.advance(2 * time.Hour)
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCacheDeleteSkipsCallback(t *testing.T) {
	c, _ := newTestCache[string](2, time.Hour)
	called := false
	c.OnEvict(func(string, string) { called = true })

	c.Set("k", "v")
	c.Delete("k")

	if called {
		t.Error("Delete should not run the eviction callback")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCacheRemoveReturnsExpiredValue(t *testing.T) {
	c, clock := newTestCache[string](2, time.Minute)
	c.Set("k", "v")
	clock.advance(time.Hour)

	v, ok := c.Remove("k")
	if !ok || v != "v" {
		t.Errorf("Remove() = %q, %v; want \"v\", true", v, ok)
	}
	if _, ok := c.Remove("k"); ok {
		t.Error("second Remove should report a missing key")
	}
}

func TestLRUCacheStats(t *testing.T) {
	c, _ := newTestCache[string](2, time.Hour)
	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Entries != 1 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, 1 entry", s)
	}
}

func TestManagerCleanAll(t *testing.T) {
	sessions, clock := newTestCache[string](10, time.Minute)
	sessions.Set("s1", "a")
	sessions.Set("s2", "b")
	clock.advance(time.Hour)

	m := NewManager(nil)
	m.Register("sessions", sessions)
	defer m.Stop()

	removed := m.CleanAll()
	if removed["sessions"] != 2 {
		t.Errorf("CleanAll() = %v, want sessions: 2", removed)
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	m.Stop()
	m.Stop()
}
