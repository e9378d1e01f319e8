package scheduler

import (
	"sync"
	"time"
)

// Token identifies one scheduled callback.
type Token uint64

// Host is the only concurrency primitive the scheduler depends on.
// A host runs every callback on one logical thread, one at a time.
type Host interface {
	ScheduleNext(fn func()) Token
	Cancel(t Token)
}

// queue holds callbacks waiting for the next tick.
type queue struct {
	mu      sync.Mutex
	next    Token
	order   []Token
	pending map[Token]func()
}

func (q *queue) schedule(fn func()) Token {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending == nil {
		q.pending = make(map[Token]func())
	}
	q.next++
	q.order = append(q.order, q.next)
	q.pending[q.next] = fn
	return q.next
}

func (q *queue) cancel(t Token) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, t)
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// drain runs the callbacks queued before the call, in scheduling order.
// Callbacks scheduled while draining wait for the next drain; callbacks
// canceled while draining are skipped.
func (q *queue) drain() int {
	q.mu.Lock()
	order := q.order
	q.order = nil
	q.mu.Unlock()

	ran := 0
	for _, t := range order {
		q.mu.Lock()
		fn, ok := q.pending[t]
		delete(q.pending, t)
		q.mu.Unlock()

		if ok {
			fn()
			ran++
		}
	}
	return ran
}

// ManualHost runs callbacks only when its owner calls Tick.
// Headless rendering and tests drive it directly.
type ManualHost struct {
	q queue
}

func NewManualHost() *ManualHost {
	return &ManualHost{}
}

func (h *ManualHost) ScheduleNext(fn func()) Token { return h.q.schedule(fn) }

func (h *ManualHost) Cancel(t Token) { h.q.cancel(t) }

// Tick runs the callbacks scheduled so far and returns how many ran.
func (h *ManualHost) Tick() int { return h.q.drain() }

// RunTicks calls Tick n times, stopping early when nothing is pending.
func (h *ManualHost) RunTicks(n int) {
	for range n {
		if h.q.drain() == 0 {
			return
		}
	}
}

// Pending is the number of callbacks waiting for the next tick.
func (h *ManualHost) Pending() int { return h.q.len() }

// TickerHost runs queued callbacks on a single goroutine every interval,
// the way a browser runs animation frame callbacks.
type TickerHost struct {
	q        queue
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTickerHost starts the tick loop. Call Close to stop it.
func NewTickerHost(interval time.Duration) *TickerHost {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	h := &TickerHost{
		interval: interval,
		stopChan: make(chan struct{}),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

func (h *TickerHost) ScheduleNext(fn func()) Token { return h.q.schedule(fn) }

func (h *TickerHost) Cancel(t Token) { h.q.cancel(t) }

func (h *TickerHost) loop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopChan:
			return
		case <-ticker.C:
			h.q.drain()
		}
	}
}

// Close stops the tick loop and waits for a running tick to finish.
// Pending callbacks are dropped. Safe to call multiple times.
func (h *TickerHost) Close() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
		h.wg.Wait()
	})
}
