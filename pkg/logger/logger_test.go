package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestDeduplicator_CollapsesRepeats(t *testing.T) {
	var buf bytes.Buffer
	d := NewDeduplicator(log.New(&buf, "", 0), time.Hour)

	d.Printf("Cache hit for %s", "milk")
	d.Printf("Cache hit for %s", "milk")
	d.Printf("Cache hit for %s", "milk")
	d.Printf("Cache hit for %s", "bread")
	d.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Cache hit for milk (3)" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if lines[1] != "Cache hit for bread" {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestDeduplicator_FlushesAfterDelay(t *testing.T) {
	var buf bytes.Buffer
	d := NewDeduplicator(log.New(&buf, "", 0), 10*time.Millisecond)

	d.Printf("ETA served from cache")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		out := buf.String()
		d.mu.Unlock()
		if out != "" {
			if strings.TrimSpace(out) != "ETA served from cache" {
				t.Errorf("unexpected output %q", out)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected line to be flushed after delay")
}
