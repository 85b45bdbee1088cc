package metacache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/denisAlshanov/audiograb/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache() (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewMemoryCache(DefaultTTL)
	cache.now = clock.Now
	return cache, clock
}

func TestGetAfterPut(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache()

	meta := &models.VideoMetadata{Title: "Song", Duration: 180}
	cache.Put(ctx, "https://youtu.be/abc", meta)

	got, ok := cache.Get(ctx, "https://youtu.be/abc")
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if got != meta {
		t.Error("Expected the same metadata value")
	}
}

func TestGetMissingKey(t *testing.T) {
	cache, _ := newTestCache()
	if _, ok := cache.Get(context.Background(), "https://youtu.be/none"); ok {
		t.Error("Expected cache miss")
	}
}

func TestGetAfterTTL(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestCache()

	cache.Put(ctx, "u", &models.VideoMetadata{Title: "Song"})

	clock.Advance(DefaultTTL - time.Second)
	if _, ok := cache.Get(ctx, "u"); !ok {
		t.Error("Expected hit just before TTL")
	}

	clock.Advance(time.Second)
	if _, ok := cache.Get(ctx, "u"); ok {
		t.Error("Expected miss once TTL elapsed")
	}

	// Expired but not yet swept.
	if cache.Len() != 1 {
		t.Errorf("Expected entry to remain stored until sweep, got %d", cache.Len())
	}
}

func TestPutSweepsOldEntries(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestCache()

	cache.Put(ctx, "old", &models.VideoMetadata{Title: "Old"})
	clock.Advance(2*DefaultTTL + time.Second)

	cache.Put(ctx, "new", &models.VideoMetadata{Title: "New"})

	if cache.Len() != 1 {
		t.Errorf("Expected old entry to be purged, got %d entries", cache.Len())
	}
	if _, ok := cache.Get(ctx, "new"); !ok {
		t.Error("Expected new entry to be present")
	}
}

func TestPutKeepsEntriesWithinTwoTTL(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestCache()

	cache.Put(ctx, "a", &models.VideoMetadata{Title: "A"})
	clock.Advance(DefaultTTL + time.Minute)
	cache.Put(ctx, "b", &models.VideoMetadata{Title: "B"})

	if cache.Len() != 2 {
		t.Errorf("Expected expired-but-young entry to survive sweep, got %d", cache.Len())
	}
}

func TestPutOverwritesWithFreshTimestamp(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestCache()

	cache.Put(ctx, "u", &models.VideoMetadata{Title: "First"})
	clock.Advance(4 * time.Minute)
	cache.Put(ctx, "u", &models.VideoMetadata{Title: "Second"})
	clock.Advance(4 * time.Minute)

	got, ok := cache.Get(ctx, "u")
	if !ok {
		t.Fatal("Expected hit after overwrite refreshed timestamp")
	}
	if got.Title != "Second" {
		t.Errorf("Expected overwritten value, got %s", got.Title)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected one entry per URL, got %d", cache.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(DefaultTTL)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cache.Put(ctx, "shared", &models.VideoMetadata{Title: "x"})
		}()
		go func() {
			defer wg.Done()
			cache.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	if _, ok := cache.Get(ctx, "shared"); !ok {
		t.Error("Expected entry after concurrent writes")
	}
}
