package cache

import (
	"sync"
	"testing"
	"time"
)

func TestTimed(t *testing.T) {
	c := NewTimed(5 * time.Minute)

	tstart := time.Now()

	c.set("key", []byte("value"), tstart)

	_, ok := c.get("key", tstart.Add(time.Minute))
	if !ok {
		t.Errorf("failed to get key that should not be expired")
	}

	_, ok = c.get("key", tstart.Add(10*time.Minute))
	if ok {
		t.Errorf("succeeded in getting expired key")
	}

	_, ok = c.get("key", tstart.Add(time.Minute))
	if ok {
		t.Errorf("succeeded in getting key that was previously evicted")
	}
}

func TestTimedConcurrent(t *testing.T) {
	c := NewTimed(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("key", []byte("value"))
				c.Get("key")
			}
		}()
	}
	wg.Wait()

	if _, ok := c.Get("key"); !ok {
		t.Error("key missing after concurrent writes")
	}
}
