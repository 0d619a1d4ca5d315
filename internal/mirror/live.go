// Package mirror keeps read-only in-memory copies of store query results and
// single documents up to date through push subscriptions.
//
// A mirror has at most one active subscription. Changing its target cancels
// the previous subscription before the new one is opened, and callbacks that
// belong to a superseded target are discarded.
package mirror

import (
	"sort"
	"sync"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
)

// live is the target-switching core shared by Collection and Document.
type live[S any] struct {
	switchMu sync.Mutex // serializes target changes, Retry and Close

	mu        sync.RWMutex
	key       string
	hasTarget bool
	gen       uint64
	cancel    func()
	open      func(gen uint64) docstore.Unsubscribe
	state     S
	closed    bool
	listeners map[uint64]func(S)
	nextL     uint64

	notifyMu sync.Mutex // keeps listener calls in mutation order
}

func newLive[S any](initial S) *live[S] {
	return &live[S]{state: initial, listeners: make(map[uint64]func(S))}
}

// switchTarget moves the mirror to the target identified by key. open is nil
// when there is no target. Switching to the current target is a no-op.
func (l *live[S]) switchTarget(key string, open func(gen uint64) docstore.Unsubscribe, reset func(*S)) {
	l.switchMu.Lock()
	defer l.switchMu.Unlock()

	hasTarget := open != nil
	l.mu.Lock()
	if l.closed || (l.hasTarget == hasTarget && l.key == key) {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.cancel = nil
	l.gen++
	gen := l.gen
	l.key = key
	l.hasTarget = hasTarget
	l.open = open
	reset(&l.state)
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.notify()

	if open != nil {
		l.install(gen, open)
	}
}

// reopen re-establishes the subscription for the current target.
func (l *live[S]) reopen(reset func(*S)) {
	l.switchMu.Lock()
	defer l.switchMu.Unlock()

	l.mu.Lock()
	if l.closed || l.open == nil {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.cancel = nil
	l.gen++
	gen := l.gen
	open := l.open
	reset(&l.state)
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.notify()
	l.install(gen, open)
}

func (l *live[S]) install(gen uint64, open func(gen uint64) docstore.Unsubscribe) {
	cancel := sync.OnceFunc(open(gen))
	l.mu.Lock()
	if l.gen != gen || l.closed {
		l.mu.Unlock()
		cancel()
		return
	}
	l.cancel = cancel
	l.mu.Unlock()
}

// apply mutates the state on behalf of a callback of generation gen. Late
// callbacks of superseded generations are dropped.
func (l *live[S]) apply(gen uint64, fn func(*S)) bool {
	l.mu.Lock()
	if l.gen != gen || l.closed {
		l.mu.Unlock()
		return false
	}
	fn(&l.state)
	st := l.state
	ls := l.snapshotListeners()
	l.notifyMu.Lock()
	l.mu.Unlock()

	for _, fn := range ls {
		fn(st)
	}
	l.notifyMu.Unlock()
	return true
}

func (l *live[S]) notify() {
	l.mu.Lock()
	st := l.state
	ls := l.snapshotListeners()
	l.notifyMu.Lock()
	l.mu.Unlock()

	for _, fn := range ls {
		fn(st)
	}
	l.notifyMu.Unlock()
}

func (l *live[S]) snapshotListeners() []func(S) {
	ids := make([]uint64, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	sortIDs(ids)
	out := make([]func(S), 0, len(ids))
	for _, id := range ids {
		out = append(out, l.listeners[id])
	}
	return out
}

func (l *live[S]) read() S {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *live[S]) identity() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.key, l.hasTarget
}

func (l *live[S]) onChange(fn func(S)) func() {
	l.mu.Lock()
	l.nextL++
	id := l.nextL
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

func (l *live[S]) close() {
	l.switchMu.Lock()
	defer l.switchMu.Unlock()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.gen++
	cancel := l.cancel
	l.cancel = nil
	l.open = nil
	l.listeners = make(map[uint64]func(S))
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func sortIDs(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
