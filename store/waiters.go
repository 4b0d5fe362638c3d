package store

import "sync"

// waitList tracks receivers blocked on an empty queue. A receiver registers
// before parking and deregisters when it returns, regardless of outcome.
// Notification is decoupled from the queue's own mutex so that a parked
// receive never blocks the send that should wake it.
type waitList struct {
	mu      sync.Mutex
	nextID  int64
	waiters map[int64]chan struct{}
}

func newWaitList() *waitList {
	return &waitList{waiters: make(map[int64]chan struct{})}
}

// register adds a waiter and returns its wake channel together with a
// deregistration func. The channel has capacity 1 so a notify that races
// with the waiter's own deadline is never lost and never blocks the sender.
func (w *waitList) register() (<-chan struct{}, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	id := w.nextID
	ch := make(chan struct{}, 1)
	w.waiters[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.waiters, id)
	}
	return ch, cancel
}

// notify wakes every currently-registered waiter. Waking does not guarantee
// delivery; a woken receiver re-attempts and may still come back empty if a
// concurrent receive claimed the message first. Sends are non-blocking: a
// waiter with a pending wake doesn't need another one.
func (w *waitList) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.waiters {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// size reports the number of registered waiters.
func (w *waitList) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters)
}
