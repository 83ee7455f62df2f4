/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package list implements the timer.Structure contract as a doubly linked
// list kept sorted by non-decreasing expiry, built on container/list.
package list

import (
	"container/list"
	"sync"

	libtimer "github.com/sabouaram/reactorhttp/timer"
)

// List is a sorted doubly linked list of timers, safe for concurrent use.
type List[T any] struct {
	mu    sync.Mutex
	order *list.List
	nodes map[*libtimer.Timer[T]]*list.Element
}

var _ libtimer.Structure[struct{}] = (*List[struct{}])(nil)

// New returns an empty sorted-list timer structure.
func New[T any]() *List[T] {
	return &List[T]{
		order: list.New(),
		nodes: make(map[*libtimer.Timer[T]]*list.Element),
	}
}

// Len reports the number of timers currently held.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

// Add inserts t, walking from the head to find its sorted position.
func (l *List[T]) Add(t *libtimer.Timer[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes[t] = l.insertLocked(t)
}

func (l *List[T]) insertLocked(t *libtimer.Timer[T]) *list.Element {
	for e := l.order.Front(); e != nil; e = e.Next() {
		if e.Value.(*libtimer.Timer[T]).Expire > t.Expire {
			return l.order.InsertBefore(t, e)
		}
	}
	return l.order.PushBack(t)
}

// Adjust repositions t after its Expire has been pushed further into the
// future: remove and reinsert, preserving sort order.
func (l *List[T]) Adjust(t *libtimer.Timer[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.nodes[t]; ok {
		l.order.Remove(e)
	}
	l.nodes[t] = l.insertLocked(t)
}

// Delete removes t; its Callback will never be invoked.
func (l *List[T]) Delete(t *libtimer.Timer[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.nodes[t]; ok {
		l.order.Remove(e)
		delete(l.nodes, t)
	}
}

// Tick pops every timer from the head while its Expire is <= now, invoking
// each Callback and removing it from the list.
func (l *List[T]) Tick(now int64) {
	var due []*libtimer.Timer[T]

	l.mu.Lock()
	for e := l.order.Front(); e != nil; {
		next := e.Next()
		t := e.Value.(*libtimer.Timer[T])
		if t.Expire > now {
			break
		}

		due = append(due, t)
		l.order.Remove(e)
		delete(l.nodes, t)
		e = next
	}
	l.mu.Unlock()

	for _, t := range due {
		if t.Callback != nil {
			t.Callback(t.Payload)
		}
	}
}
