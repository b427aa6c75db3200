// Package progress tracks asset loading completion as a whole-number percentage.
//
// A Tracker only ever moves forward: reported values below the current one are
// ignored, values are clamped to [0,100], and 100 is reserved for Complete so a
// fully read but not yet decoded asset shows 99.
package progress

import (
	"io"
	"sync"
)

// Tracker publishes a monotonically non-decreasing percentage to subscribers.
type Tracker struct {
	mu      sync.Mutex
	percent int
	done    bool
	subs    []chan int
}

// New creates a tracker at 0%.
func New() *Tracker {
	return &Tracker{}
}

// Percent returns the current percentage.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Done reports whether Complete has been called.
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Report converts a byte count into a percentage. An unknown total (<= 0)
// leaves the percentage unchanged.
func (t *Tracker) Report(loaded, total int64) {
	if total <= 0 {
		return
	}
	if loaded > total {
		loaded = total
	}
	t.set(int(loaded*100/total), false)
}

// Complete moves the tracker to 100%.
func (t *Tracker) Complete() {
	t.set(100, true)
}

// Subscribe returns a channel that always holds the latest percentage.
// Intermediate values may be skipped but the sequence never decreases.
func (t *Tracker) Subscribe() <-chan int {
	ch := make(chan int, 1)

	t.mu.Lock()
	defer t.mu.Unlock()
	ch <- t.percent
	t.subs = append(t.subs, ch)
	return ch
}

// Unsubscribe stops delivery to a channel returned by Subscribe.
func (t *Tracker) Unsubscribe(ch <-chan int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, c := range t.subs {
		if c == ch {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return
		}
	}
}

func (t *Tracker) set(p int, complete bool) {
	if p < 0 {
		p = 0
	}
	if !complete && p > 99 {
		p = 99
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if complete {
		t.done = true
	}
	if p <= t.percent {
		return
	}
	t.percent = p

	for _, ch := range t.subs {
		// Replace any unread value with the newer one.
		select {
		case <-ch:
		default:
		}
		ch <- p
	}
}

// Reader counts bytes read through it and reports them to a Tracker.
type Reader struct {
	r       io.Reader
	total   int64
	read    int64
	tracker *Tracker
}

// NewReader wraps r. total is the expected size in bytes, or <= 0 if unknown.
func NewReader(r io.Reader, total int64, t *Tracker) *Reader {
	return &Reader{r: r, total: total, tracker: t}
}

// Read implements io.Reader.
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.tracker.Report(pr.read, pr.total)
	}
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (pr *Reader) BytesRead() int64 {
	return pr.read
}
