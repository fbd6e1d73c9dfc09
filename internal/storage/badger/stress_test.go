package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// --- Concurrent Access ---

// The refresh loop writes while request handlers read the same keys.
func TestConcurrent_KVCacheReadWrite(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	const goroutines = 20
	const opsPerGoroutine = 50

	for i := 0; i < goroutines; i++ {
		if err := cache.Save(ctx, fmt.Sprintf("realtime_stock:C%d", i), []byte(`{"price":1}`), time.Minute); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, goroutines*opsPerGoroutine)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("realtime_stock:C%d", id)
			for i := 0; i < opsPerGoroutine; i++ {
				if i%2 == 0 {
					_, ok, err := cache.Get(ctx, key)
					if err != nil {
						errCh <- fmt.Errorf("goroutine %d: Get failed: %w", id, err)
						return
					}
					if !ok {
						errCh <- fmt.Errorf("goroutine %d: key %s vanished", id, key)
						return
					}
				} else {
					value := []byte(fmt.Sprintf(`{"price":%d}`, i))
					if err := cache.Save(ctx, key, value, time.Minute); err != nil {
						errCh <- fmt.Errorf("goroutine %d: Save failed: %w", id, err)
						return
					}
				}
			}
		}(g)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Error(err)
	}

	keys := make([]string, goroutines)
	for i := range keys {
		keys[i] = fmt.Sprintf("realtime_stock:C%d", i)
	}
	values, err := cache.GetMany(ctx, keys)
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	for i, v := range values {
		if v == nil {
			t.Errorf("key %s missing after concurrent writes", keys[i])
		}
	}
}

func TestConcurrent_GetManyDuringWrites(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	keys := []string{"market_index:KOSPI", "market_index:NASDAQ", "market_index:DOW"}
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			cache.Save(ctx, keys[i%len(keys)], []byte(`{}`), time.Minute)
		}
	}()

	for i := 0; i < 200; i++ {
		values, err := cache.GetMany(ctx, keys)
		if err != nil {
			t.Fatalf("GetMany failed: %v", err)
		}
		if len(values) != len(keys) {
			t.Fatalf("expected %d values, got %d", len(keys), len(values))
		}
	}

	close(stop)
	wg.Wait()
}
