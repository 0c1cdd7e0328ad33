package coalesce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu   sync.Mutex
	got  []string
	seen chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 16)}
}

func (r *recorder) emit(v string) {
	r.mu.Lock()
	r.got = append(r.got, v)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *recorder) values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	copy(out, r.got)
	return out
}

func (r *recorder) waitOne(t *testing.T) {
	t.Helper()
	select {
	case <-r.seen:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for emit")
	}
}

func TestSchedule_CoalescesBurstToNewest(t *testing.T) {
	rec := newRecorder()
	c := New(30*time.Millisecond, rec.emit)
	defer c.Stop()

	c.Schedule("a")
	c.Schedule("ab")
	c.Schedule("abc")

	rec.waitOne(t)
	if got := rec.values(); len(got) != 1 || got[0] != "abc" {
		t.Fatalf("want one emit of newest value, got %v", got)
	}
}

func TestSchedule_ReschedulesWindow(t *testing.T) {
	rec := newRecorder()
	c := New(60*time.Millisecond, rec.emit)
	defer c.Stop()

	c.Schedule("first")
	time.Sleep(30 * time.Millisecond)
	c.Schedule("second") // restarts the window
	time.Sleep(40 * time.Millisecond)

	// 70ms after the first Schedule, but only 40ms after the second:
	// nothing has fired yet.
	if got := rec.values(); len(got) != 0 {
		t.Fatalf("fired before the quiet window elapsed: %v", got)
	}

	rec.waitOne(t)
	if got := rec.values(); len(got) != 1 || got[0] != "second" {
		t.Fatalf("want second only, got %v", got)
	}
}

func TestFlushNow(t *testing.T) {
	rec := newRecorder()
	c := New(time.Hour, rec.emit)
	defer c.Stop()

	c.Schedule("urgent")
	c.FlushNow()

	rec.waitOne(t)
	if got := rec.values(); len(got) != 1 || got[0] != "urgent" {
		t.Fatalf("flush mismatch: %v", got)
	}
	if c.Pending() {
		t.Fatalf("still pending after flush")
	}

	// Flushing with nothing pending is a no-op.
	c.FlushNow()
	if got := rec.values(); len(got) != 1 {
		t.Fatalf("empty flush emitted: %v", got)
	}
}

func TestStop_DiscardsPending(t *testing.T) {
	rec := newRecorder()
	c := New(20*time.Millisecond, rec.emit)

	c.Schedule("doomed")
	c.Stop()

	time.Sleep(60 * time.Millisecond)
	if got := rec.values(); len(got) != 0 {
		t.Fatalf("stop did not discard: %v", got)
	}
	if c.Pending() {
		t.Fatalf("pending after stop")
	}
}

func TestSchedule_SeparateBurstsEmitSeparately(t *testing.T) {
	rec := newRecorder()
	c := New(20*time.Millisecond, rec.emit)
	defer c.Stop()

	c.Schedule("one")
	rec.waitOne(t)
	c.Schedule("two")
	rec.waitOne(t)

	if got := rec.values(); len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("want [one two], got %v", got)
	}
}
