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

// Package queue implements a fixed-capacity, thread-safe MPMC ring buffer.
// Two counting semaphores track empty and filled slots so Push never blocks
// past capacity and Pop never spins on an empty queue; a plain mutex
// protects the backing array. It backs the worker pool's task queue,
// which is the reactor's work queue.
package queue

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Bounded is a capacity-C ring buffer of T, safe for concurrent Push/Pop
// from any number of goroutines.
type Bounded[T any] struct {
	mu    sync.Mutex
	buf   []T
	front int
	size  int

	empty *semaphore.Weighted // acquireable slots left to fill
	full  *semaphore.Weighted // acquireable slots already filled
}

// NewBounded returns an empty queue of the given capacity. capacity must be
// at least 1.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}

	q := &Bounded[T]{
		buf:   make([]T, capacity),
		empty: semaphore.NewWeighted(int64(capacity)),
		full:  semaphore.NewWeighted(int64(capacity)),
	}

	// full starts at zero acquireable units: prime it by holding every
	// permit until Push releases one per item queued.
	_ = q.full.Acquire(context.Background(), int64(capacity))

	return q
}

// Cap returns the queue's fixed capacity.
func (q *Bounded[T]) Cap() int {
	return len(q.buf)
}

// Len returns the number of items currently queued.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *Bounded[T]) pushLocked(v T) {
	back := (q.front + q.size) % len(q.buf)
	q.buf[back] = v
	q.size++
}

func (q *Bounded[T]) popLocked() T {
	v := q.buf[q.front]

	var zero T
	q.buf[q.front] = zero

	q.front = (q.front + 1) % len(q.buf)
	q.size--
	return v
}

// Push appends v, blocking until a slot is free or ctx is done.
func (q *Bounded[T]) Push(ctx context.Context, v T) error {
	if err := q.empty.Acquire(ctx, 1); err != nil {
		return err
	}

	q.mu.Lock()
	q.pushLocked(v)
	q.mu.Unlock()

	q.full.Release(1)
	return nil
}

// TryPush appends v without blocking, reporting false (and leaving the
// queue untouched) if it is already at capacity.
func (q *Bounded[T]) TryPush(v T) bool {
	if !q.empty.TryAcquire(1) {
		return false
	}

	q.mu.Lock()
	q.pushLocked(v)
	q.mu.Unlock()

	q.full.Release(1)
	return true
}

// Pop removes and returns the oldest item, blocking until one is available
// or ctx is done.
func (q *Bounded[T]) Pop(ctx context.Context) (T, error) {
	if err := q.full.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, err
	}

	q.mu.Lock()
	v := q.popLocked()
	q.mu.Unlock()

	q.empty.Release(1)
	return v, nil
}

// PopTimeout is Pop with a relative deadline; ok is false if the deadline
// elapsed before an item arrived.
func (q *Bounded[T]) PopTimeout(d time.Duration) (v T, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	v, err := q.Pop(ctx)
	return v, err == nil
}
