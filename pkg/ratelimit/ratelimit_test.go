package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestWindow_AllowBasic(t *testing.T) {
	w := NewWindow(5, time.Hour)

	for i := 0; i < 5; i++ {
		if !w.Allow(time.Now()) {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	if w.Allow(time.Now()) {
		t.Fatal("6th request should be denied")
	}
}

func TestWindow_SlidesOverTime(t *testing.T) {
	w := NewWindow(1, 50*time.Millisecond)
	start := time.Now()

	if !w.Allow(start) {
		t.Fatal("first request should be allowed")
	}
	if w.Allow(start.Add(10 * time.Millisecond)) {
		t.Fatal("second request within the window should be denied")
	}
	if !w.Allow(start.Add(60 * time.Millisecond)) {
		t.Fatal("request after the window elapses should be allowed")
	}
}

func TestWindow_RetryAfter(t *testing.T) {
	w := NewWindow(1, time.Minute)
	start := time.Now()

	w.Allow(start)
	retry := w.RetryAfter(start.Add(10 * time.Second))
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("expected a retry-after between 0 and a minute, got %v", retry)
	}

	if got := w.RetryAfter(start.Add(time.Hour)); got != 0 {
		t.Fatalf("expected zero retry-after once the window has emptied, got %v", got)
	}
}

func TestClientLimiter_Allow(t *testing.T) {
	cl := NewClientLimiter(2, time.Second)

	if !cl.Allow("client1") {
		t.Fatal("first request from client1 should be allowed")
	}
	if !cl.Allow("client1") {
		t.Fatal("second request from client1 should be allowed")
	}
	if cl.Allow("client1") {
		t.Fatal("third request from client1 should be denied")
	}

	if !cl.Allow("client2") {
		t.Fatal("first request from client2 should be allowed on its own budget")
	}
}

func TestClientLimiter_AllowWithRetryAfter(t *testing.T) {
	cl := NewClientLimiter(1, time.Hour)

	allowed, retry := cl.AllowWithRetryAfter("client1")
	if !allowed || retry != 0 {
		t.Fatalf("first request should be allowed with no retry, got allowed=%v retry=%v", allowed, retry)
	}

	allowed, retry = cl.AllowWithRetryAfter("client1")
	if allowed || retry <= 0 {
		t.Fatalf("second request should be denied with a positive retry-after, got allowed=%v retry=%v", allowed, retry)
	}
}

func TestClientLimiter_Concurrent(t *testing.T) {
	cl := NewClientLimiter(100, time.Millisecond)

	var wg sync.WaitGroup
	allowed := make(chan bool, 1000)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			clientKey := string(rune(clientID))
			for j := 0; j < 100; j++ {
				allowed <- cl.Allow(clientKey)
			}
		}(i)
	}

	wg.Wait()
	close(allowed)

	count := 0
	for range allowed {
		count++
	}

	if count != 1000 {
		t.Fatalf("expected 1000 total requests, got %d", count)
	}
}

func TestClientLimiter_CleanupEvictsIdleClients(t *testing.T) {
	cl := NewClientLimiter(1, time.Millisecond)

	for i := 0; i < 50; i++ {
		cl.Allow(string(rune(i)))
	}
	time.Sleep(5 * time.Millisecond)
	cl.Cleanup()

	cl.mu.RLock()
	remaining := len(cl.windows)
	cl.mu.RUnlock()
	if remaining != 0 {
		t.Fatalf("expected all idle windows evicted, %d remain", remaining)
	}

	if !cl.Allow("new_client") {
		t.Fatal("new client should be allowed after cleanup")
	}
}
