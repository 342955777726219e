package cache

import (
	"testing"
	"time"
)

func TestCache_MissThenHit(t *testing.T) {
	c, err := New[string](4, time.Hour, "v1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := c.Get("cve:CVE-2024-0001"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("cve:CVE-2024-0001", "payload")
	v, ok := c.Get("cve:CVE-2024-0001")
	if !ok || v != "payload" {
		t.Fatalf("Get = %q, %v; want payload, true", v, ok)
	}
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	c, err := New[string](4, time.Millisecond, "v1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Set("k", "v")
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry must never be returned")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after expired entry is evicted on access", c.Len())
	}
}

func TestCache_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c, err := New[string](2, time.Hour, "v1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Set("a", "1")
	c.Set("b", "2")
	// touch "a" so "b" becomes the least-recently-used entry
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted as least-recently-used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("expected c to survive eviction")
	}
}

func TestCache_StaleModelVersionIsRewritten(t *testing.T) {
	c, err := New[string](4, time.Hour, "v1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Set("k", "v")
	c.modelVersion = "v2"

	v, ok := c.Get("k")
	if !ok || v != "v" {
		t.Fatalf("Get = %q, %v; want v, true (value survives a version bump)", v, ok)
	}

	c.inner.Get("k")
	entry, _ := c.inner.Peek("k")
	if entry.ModelVersion != "v2" {
		t.Fatalf("ModelVersion = %q, want rewritten to v2", entry.ModelVersion)
	}
}

func TestMetadataAndEnrichKeysAreDistinctNamespaces(t *testing.T) {
	if MetadataKey("CVE-2024-0001") == EnrichKey("CVE-2024-0001") {
		t.Fatal("metadata and enrichment keys must not collide for the same CVE")
	}
}
