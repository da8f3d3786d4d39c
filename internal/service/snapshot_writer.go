package service

import (
	"sync"

	"charsheet/internal/domain"
	"charsheet/internal/persistence"
)

// snapshotWriter persists committed states off the mutation path.
// Only the newest pending state is written; older ones it supersedes are
// skipped, since every snapshot fully replaces the previous one.
type snapshotWriter struct {
	adapter *persistence.Adapter
	onError func(error)

	mu      sync.Mutex
	cond    *sync.Cond
	pending *domain.SheetState
	queued  uint64
	written uint64
	closed  bool
	done    chan struct{}
}

func newSnapshotWriter(adapter *persistence.Adapter, onError func(error)) *snapshotWriter {
	w := &snapshotWriter{
		adapter: adapter,
		onError: onError,
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

func (w *snapshotWriter) enqueue(state domain.SheetState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending = &state
	w.queued++
	w.cond.Broadcast()
}

func (w *snapshotWriter) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for w.pending == nil && !w.closed {
			w.cond.Wait()
		}
		if w.pending == nil {
			w.mu.Unlock()
			return
		}
		state := *w.pending
		seq := w.queued
		w.pending = nil
		w.mu.Unlock()

		if err := w.adapter.Save(state); err != nil && w.onError != nil {
			w.onError(err)
		}

		w.mu.Lock()
		w.written = seq
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

// flush blocks until every state enqueued so far has been written or skipped.
func (w *snapshotWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.written < w.queued {
		w.cond.Wait()
	}
}

// close writes whatever is pending and stops the writer.
func (w *snapshotWriter) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.cond.Broadcast()
	w.mu.Unlock()
	<-w.done
}
