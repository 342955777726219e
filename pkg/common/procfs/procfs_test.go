package procfs

import "testing"

func TestReadCPUUsage(t *testing.T) {
	total, err := ReadCPUUsage()
	if err != nil {
		t.Fatalf("ReadCPUUsage failed: %v", err)
	}
	if total < 0 {
		t.Errorf("cpu total should be non-negative, got %f", total)
	}
}

func TestReadMemoryUsage(t *testing.T) {
	pct, err := ReadMemoryUsage()
	if err != nil {
		t.Fatalf("ReadMemoryUsage failed: %v", err)
	}
	if pct < 0 || pct > 100 {
		t.Errorf("memory usage percentage out of range: %f", pct)
	}
}

func TestReadUptime(t *testing.T) {
	uptime, err := ReadUptime()
	if err != nil {
		t.Fatalf("ReadUptime failed: %v", err)
	}
	if uptime < 0 {
		t.Errorf("uptime should be non-negative, got %v", uptime)
	}
}
