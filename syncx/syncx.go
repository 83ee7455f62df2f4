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

// Package syncx re-exports the mutex and condition variable primitives the
// rest of this module builds on, and adds a counting semaphore on top of
// semaphore/sem so callers needing plain Acquire/Release semantics (no
// per-call context) don't have to hand one in at every call site.
package syncx

import (
	"context"
	"sync"

	libsem "github.com/sabouaram/reactorhttp/semaphore/sem"
)

// Mutex and RWMutex are used throughout this module exactly as sync.Mutex
// and sync.RWMutex; they are aliased here so packages under syncx's domain
// depend on one import instead of two.
type (
	Mutex   = sync.Mutex
	RWMutex = sync.RWMutex
	Cond    = sync.Cond
)

// NewCond returns a condition variable guarded by l.
func NewCond(l sync.Locker) *Cond {
	return sync.NewCond(l)
}

// Semaphore is a counting semaphore bound to a background context: Acquire
// blocks until a slot is free, Release gives one back. Close cancels the
// bound context, unblocking any Acquire still waiting.
type Semaphore struct {
	sem libsem.Sem
}

// NewSemaphore returns a semaphore with capacity n. n == 0 uses
// libsem.MaxSimultaneous(); n < 0 makes it effectively unbounded.
func NewSemaphore(n int64) *Semaphore {
	return &Semaphore{sem: libsem.New(context.Background(), n)}
}

// Acquire blocks until a slot is available or Close is called.
func (s *Semaphore) Acquire() error {
	return s.sem.NewWorker()
}

// TryAcquire reserves a slot without blocking, reporting success.
func (s *Semaphore) TryAcquire() bool {
	return s.sem.NewWorkerTry()
}

// Release gives back a slot reserved by Acquire/TryAcquire.
func (s *Semaphore) Release() {
	s.sem.DeferWorker()
}

// Len returns the configured capacity, or -1 if unbounded.
func (s *Semaphore) Len() int64 {
	return s.sem.Weighted()
}

// Close releases every goroutine blocked in Acquire.
func (s *Semaphore) Close() {
	s.sem.DeferMain()
}
