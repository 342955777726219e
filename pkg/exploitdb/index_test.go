package exploitdb

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIndex_LookupIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exploitdb.json")
	os.WriteFile(path, []byte(`[{"cveId":"CVE-2021-44228","url":"https://example.invalid/1","publishedDate":"2021-12-10"}]`), 0o644)

	idx := New(path)
	evidences := idx.Lookup("cve-2021-44228")
	if len(evidences) != 1 {
		t.Fatalf("Lookup = %d entries, want 1", len(evidences))
	}
	if evidences[0].Source != "exploitdb" {
		t.Errorf("Source = %q, want exploitdb", evidences[0].Source)
	}
}

func TestIndex_LookupMissReturnsEmptyNotNil(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exploitdb.json")
	os.WriteFile(path, []byte(`[]`), 0o644)

	idx := New(path)
	evidences := idx.Lookup("CVE-2099-00001")
	if evidences == nil {
		t.Fatal("Lookup must never return nil")
	}
	if len(evidences) != 0 {
		t.Fatalf("Lookup = %d entries, want 0", len(evidences))
	}
}

func TestIndex_SkipsEntriesWithoutStringCVEID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exploitdb.json")
	os.WriteFile(path, []byte(`[{"url":"https://example.invalid/orphan"},{"cveId":"CVE-2020-0001"}]`), 0o644)

	idx := New(path)
	if len(idx.Lookup("CVE-2020-0001")) != 1 {
		t.Fatal("expected the well-formed entry to be indexed")
	}
}

func TestIndex_MissingFileDegradesToEmpty(t *testing.T) {
	idx := New(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if len(idx.Lookup("CVE-2021-44228")) != 0 {
		t.Fatal("expected a missing index file to degrade to an empty result set")
	}
	if idx.LoadError() == nil {
		t.Fatal("expected LoadError to be set after a failed load")
	}
}

func TestIndex_LoadsOnlyOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exploitdb.json")
	os.WriteFile(path, []byte(`[{"cveId":"CVE-2021-44228"}]`), 0o644)

	idx := New(path)
	idx.Lookup("CVE-2021-44228")
	// Remove the backing file; a second Lookup must still see the
	// already-loaded in-memory index rather than reloading.
	os.Remove(path)
	evidences := idx.Lookup("CVE-2021-44228")
	if len(evidences) != 1 {
		t.Fatal("expected the index to remain loaded after the file disappears")
	}
}
