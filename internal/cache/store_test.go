package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_PutGet(t *testing.T) {
	store := NewStore[string]("devices-by-name")

	if _, ok := store.Get("missing"); ok {
		t.Error("Get() on empty store reported a hit")
	}

	store.Put("sensor-01", "dev-1")

	value, ok := store.Get("sensor-01")
	if !ok {
		t.Fatal("Get() after Put() reported a miss")
	}
	if value != "dev-1" {
		t.Errorf("Get() = %q, want %q", value, "dev-1")
	}
}

func TestStore_PutReplaces(t *testing.T) {
	store := NewStore[string]("devices-by-name")

	store.Put("sensor-01", "dev-1")
	store.Put("sensor-01", "dev-2")

	value, _ := store.Get("sensor-01")
	if value != "dev-2" {
		t.Errorf("Get() = %q, want replacement value %q", value, "dev-2")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestStore_EmptyKeyIgnored(t *testing.T) {
	store := NewStore[string]("gateways-by-hardware-id")

	store.Put("", "gw-1")

	if store.Len() != 0 {
		t.Errorf("Len() = %d after empty-key Put, want 0", store.Len())
	}
}

func TestStore_Evict(t *testing.T) {
	store := NewStore[string]("devices-by-id")
	store.Put("dev-1", "sensor-01")

	if !store.Evict("dev-1") {
		t.Error("Evict() of present key returned false")
	}
	if store.Evict("dev-1") {
		t.Error("Evict() of absent key returned true")
	}
	if _, ok := store.Get("dev-1"); ok {
		t.Error("Get() after Evict() reported a hit")
	}
}

func TestStore_Clear(t *testing.T) {
	store := NewStore[int]("spaces-by-name")
	store.Put("floor-1", 1)
	store.Put("floor-2", 2)

	if dropped := store.Clear(); dropped != 2 {
		t.Errorf("Clear() = %d, want 2", dropped)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after Clear(), want 0", store.Len())
	}
}

func TestStore_Stats(t *testing.T) {
	store := NewStore[string]("devices-by-name")

	store.Put("a", "1")
	store.Get("a")       // hit
	store.Get("b")       // miss
	store.Evict("a")     // eviction
	store.Evict("ghost") // no-op

	stats := store.Stats()
	if stats.Name != "devices-by-name" {
		t.Errorf("stats.Name = %q, want %q", stats.Name, "devices-by-name")
	}
	if stats.Hits != 1 || stats.Misses != 1 || stats.Puts != 1 || stats.Evictions != 1 {
		t.Errorf("stats = %+v, want hits/misses/puts/evictions all 1", stats)
	}
	if stats.Size != 0 {
		t.Errorf("stats.Size = %d, want 0", stats.Size)
	}
}

func TestStore_Keys(t *testing.T) {
	store := NewStore[string]("spaces-by-id")
	store.Put("s-1", "floor-1")
	store.Put("s-2", "floor-2")

	keys := store.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() returned %d keys, want 2", len(keys))
	}

	seen := map[string]bool{}
	for _, key := range keys {
		seen[key] = true
	}
	if !seen["s-1"] || !seen["s-2"] {
		t.Errorf("Keys() = %v, want s-1 and s-2", keys)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore[int]("devices-by-id")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("dev-%d-%d", worker, j)
				store.Put(key, j)
				store.Get(key)
				store.Evict(key)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 0 {
		t.Errorf("Len() = %d after balanced put/evict, want 0", store.Len())
	}

	stats := store.Stats()
	if stats.Puts != 800 || stats.Evictions != 800 {
		t.Errorf("stats = %+v, want 800 puts and evictions", stats)
	}
}
