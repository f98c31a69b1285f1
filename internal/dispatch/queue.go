package dispatch

import (
	"sync"
	"time"

	"thoughtline/internal/actions"
	"thoughtline/internal/model"
)

// Queue collects actions scheduled from other goroutines (timers, sync).
// Only the owner of the Dispatcher calls Flush.
type Queue struct {
	mu      sync.Mutex
	pending []actions.Action
}

func (q *Queue) Enqueue(as ...actions.Action) {
	q.mu.Lock()
	q.pending = append(q.pending, as...)
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush dispatches everything queued so far, in order, and returns how many
// actions ran.
func (q *Queue) Flush(d *Dispatcher) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	if len(batch) > 0 {
		d.Dispatch(batch...)
	}
	return len(batch)
}

// Timer is the part of *time.Timer the hover expander needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// HoverExpander expands a thought after the pointer has rested on it for
// Delay. There is at most one pending expansion: a new hover replaces it
// and Leave cancels it. Firing only enqueues a SetExpanded action.
type HoverExpander struct {
	mu      sync.Mutex
	queue   *Queue
	delay   time.Duration
	after   AfterFunc
	timer   Timer
	target  model.Path
	gen     uint64
	pending bool
}

func NewHoverExpander(q *Queue, delay time.Duration, after AfterFunc) *HoverExpander {
	if after == nil {
		after = realAfterFunc
	}
	return &HoverExpander{queue: q, delay: delay, after: after}
}

// Hover starts the countdown for p. Hovering the pending target again keeps
// the running countdown.
func (h *HoverExpander) Hover(p model.Path) {
	if p.IsNull() {
		h.Leave()
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending && h.target.Equal(p) {
		return
	}
	h.cancelLocked()
	h.gen++
	gen := h.gen
	h.target = p
	h.pending = true
	h.timer = h.after(h.delay, func() { h.fire(gen) })
}

// Leave cancels any pending expansion.
func (h *HoverExpander) Leave() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
}

// Pending returns the path waiting to expand, if any.
func (h *HoverExpander) Pending() (model.Path, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target, h.pending
}

func (h *HoverExpander) cancelLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.gen++
	h.pending = false
	h.target = model.Path{}
}

func (h *HoverExpander) fire(gen uint64) {
	h.mu.Lock()
	if gen != h.gen || !h.pending {
		h.mu.Unlock()
		return
	}
	p := h.target
	h.pending = false
	h.timer = nil
	h.target = model.Path{}
	h.mu.Unlock()
	h.queue.Enqueue(actions.SetExpanded{Path: p, Expanded: true})
}
