package kev

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScheduler_DisabledNeverRefreshes(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "fallback.json")
	os.WriteFile(fallback, []byte(`{"updatedAt":"2024-01-01T00:00:00Z","items":[]}`), 0o644)

	c, err := NewCatalog(filepath.Join(dir, "cache.db"), fallback, "https://example.invalid/kev.json", time.Second)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	defer c.Close()
	fake := &fakeFetcher{results: []fetchResult{{body: []byte(`{"items":[{"cveId":"CVE-2024-0001"}]}`)}}}
	c.httpClient = fake

	sched := NewScheduler(c, 5*time.Millisecond, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Arm(ctx)
	time.Sleep(30 * time.Millisecond)
	sched.Stop()

	if fake.calls != 0 {
		t.Fatalf("disabled scheduler must never call the fetcher, got %d calls", fake.calls)
	}
}

func TestScheduler_ArmRunsPeriodicRefresh(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "fallback.json")
	os.WriteFile(fallback, []byte(`{"updatedAt":"2024-01-01T00:00:00Z","items":[]}`), 0o644)

	c, err := NewCatalog(filepath.Join(dir, "cache.db"), fallback, "https://example.invalid/kev.json", time.Second)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	defer c.Close()
	fake := &fakeFetcher{}
	c.httpClient = fake

	sched := NewScheduler(c, 5*time.Millisecond, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Arm(ctx)
	time.Sleep(40 * time.Millisecond)
	sched.Stop()

	if fake.calls == 0 {
		t.Fatal("expected the scheduler to have triggered at least one refresh")
	}
}

func TestScheduler_ArmIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "fallback.json")
	os.WriteFile(fallback, []byte(`{"updatedAt":"2024-01-01T00:00:00Z","items":[]}`), 0o644)
	c, err := NewCatalog(filepath.Join(dir, "cache.db"), fallback, "https://example.invalid/kev.json", time.Second)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	defer c.Close()

	sched := NewScheduler(c, time.Hour, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Arm(ctx)
	sched.Arm(ctx)
	sched.Arm(ctx)
	sched.Stop()
}
