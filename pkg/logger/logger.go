package logger

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Deduplicator collapses runs of identical log lines. Repeats are held back
// and printed once as "msg (N)" after flushDelay of quiet, or as soon as a
// different line arrives.
type Deduplicator struct {
	mu         sync.Mutex
	out        *log.Logger
	lastMsg    string
	count      int
	flushDelay time.Duration
	timer      *time.Timer
}

func NewDeduplicator(out *log.Logger, flushDelay time.Duration) *Deduplicator {
	return &Deduplicator{out: out, flushDelay: flushDelay}
}

var std = NewDeduplicator(log.Default(), 2*time.Second)

// Dedup logs through the process-wide deduplicator.
func Dedup(format string, args ...any) {
	std.Printf(format, args...)
}

// Flush prints whatever the process-wide deduplicator is holding back.
func Flush() {
	std.Flush()
}

func (d *Deduplicator) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	d.mu.Lock()
	defer d.mu.Unlock()

	if msg != d.lastMsg {
		d.flushLocked()
		d.lastMsg = msg
	}
	d.count++

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.flushDelay, d.Flush)
}

// Flush prints any held-back line immediately.
func (d *Deduplicator) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushLocked()
}

func (d *Deduplicator) flushLocked() {
	switch d.count {
	case 0:
		return
	case 1:
		d.out.Print(d.lastMsg)
	default:
		d.out.Printf("%s (%d)", d.lastMsg, d.count)
	}
	d.count = 0
	d.lastMsg = ""
}

