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

// Package heap implements the timer.Structure contract as an array-backed
// binary min-heap on top of container/heap, each node recording its own
// slot so adjust can sift from its current position without a search.
//
// Deletion is eager: the removed node is swapped with the last element and
// the heap property restored immediately, rather than nulling its
// callback and leaving a stale slot behind (see Delete).
package heap

import (
	stdheap "container/heap"
	"sync"

	libtimer "github.com/sabouaram/reactorhttp/timer"
)

type node[T any] struct {
	timer *libtimer.Timer[T]
	idx   int
}

// ordered is the container/heap.Interface adapter; it is never used
// outside this file.
type ordered[T any] []*node[T]

func (o ordered[T]) Len() int { return len(o) }

func (o ordered[T]) Less(i, j int) bool {
	return o[i].timer.Expire < o[j].timer.Expire
}

func (o ordered[T]) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].idx = i
	o[j].idx = j
}

func (o *ordered[T]) Push(x interface{}) {
	n := x.(*node[T])
	n.idx = len(*o)
	*o = append(*o, n)
}

func (o *ordered[T]) Pop() interface{} {
	old := *o
	n := len(old)
	n0 := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	n0.idx = -1
	return n0
}

// Heap is a binary min-heap of timers ordered by expiry, safe for
// concurrent use.
type Heap[T any] struct {
	mu    sync.Mutex
	nodes ordered[T]
	index map[*libtimer.Timer[T]]*node[T]
}

var _ libtimer.Structure[struct{}] = (*Heap[struct{}])(nil)

// New returns an empty min-heap timer structure.
func New[T any]() *Heap[T] {
	return &Heap[T]{index: make(map[*libtimer.Timer[T]]*node[T])}
}

// Len reports the number of timers currently held.
func (h *Heap[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nodes.Len()
}

// Add inserts t into the heap.
func (h *Heap[T]) Add(t *libtimer.Timer[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := &node[T]{timer: t}
	h.index[t] = n
	stdheap.Push(&h.nodes, n)
}

// Adjust re-sifts t after its Expire has been increased. The timer's
// Callback and Payload are untouched: only its heap position moves.
func (h *Heap[T]) Adjust(t *libtimer.Timer[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.index[t]
	if !ok {
		return
	}
	stdheap.Fix(&h.nodes, n.idx)
}

// Delete removes t, swapping it with the heap's last element and
// restoring the heap property. Its Callback is never invoked.
func (h *Heap[T]) Delete(t *libtimer.Timer[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, ok := h.index[t]
	if !ok {
		return
	}
	stdheap.Remove(&h.nodes, n.idx)
	delete(h.index, t)
}

// Tick pops every timer with Expire <= now, invoking each Callback and
// removing it from the heap.
func (h *Heap[T]) Tick(now int64) {
	var due []*libtimer.Timer[T]

	h.mu.Lock()
	for h.nodes.Len() > 0 && h.nodes[0].timer.Expire <= now {
		n := stdheap.Pop(&h.nodes).(*node[T])
		delete(h.index, n.timer)
		due = append(due, n.timer)
	}
	h.mu.Unlock()

	for _, t := range due {
		if t.Callback != nil {
			t.Callback(t.Payload)
		}
	}
}
