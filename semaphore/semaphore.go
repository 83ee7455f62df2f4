/*
 * MIT License
 *
 * Copyright (c) 2021 Nicolas JUHEL
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

// Package semaphore wraps golang.org/x/sync/semaphore into a simple
// worker-counting helper: a "main" goroutine calls NewWorker before spawning
// each worker, the worker calls DeferWorker when done, and the main goroutine
// calls WaitAll to block until every outstanding worker has finished.
package semaphore

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// MaxSimultaneous is used when a caller requests an unbounded (<=0) weight.
var MaxSimultaneous int64 = 1 << 20

// Sem is a counting semaphore bound to a context, used to cap the number of
// goroutines running concurrently and to let a main goroutine wait for all of
// them to finish.
type Sem interface {
	// NewWorker reserves one slot for an about-to-be-spawned worker. It blocks
	// if the semaphore is already at its weight, and returns an error only if
	// the bound context is done first.
	NewWorker() error

	// DeferWorker releases the slot reserved by NewWorker. Call it deferred
	// from the worker goroutine.
	DeferWorker()

	// DeferMain waits for every outstanding worker, as WaitAll does, and
	// discards its error. Call it deferred from the goroutine that created
	// the semaphore.
	DeferMain()

	// WaitAll blocks until every worker released its slot.
	WaitAll() error

	// Weighted returns the configured maximum weight.
	Weighted() int64
}

type sem struct {
	ctx context.Context
	n   int64
	s   *semaphore.Weighted
}

// New returns a semaphore bound to context.Background() with the given weight.
// A weight <= 0 is treated as MaxSimultaneous.
func New(n int64) Sem {
	return NewSemaphoreWithContext(context.Background(), n)
}

// NewSemaphoreWithContext returns a semaphore bound to the given context with
// the given weight. A weight <= 0 is treated as MaxSimultaneous.
func NewSemaphoreWithContext(ctx context.Context, n int64) Sem {
	if n <= 0 {
		n = MaxSimultaneous
	}

	return &sem{
		ctx: ctx,
		n:   n,
		s:   semaphore.NewWeighted(n),
	}
}

func (s *sem) NewWorker() error {
	return s.s.Acquire(s.ctx, 1)
}

func (s *sem) DeferWorker() {
	s.s.Release(1)
}

func (s *sem) DeferMain() {
	_ = s.WaitAll()
}

func (s *sem) WaitAll() error {
	if err := s.s.Acquire(s.ctx, s.n); err != nil {
		return err
	}

	s.s.Release(s.n)
	return nil
}

func (s *sem) Weighted() int64 {
	return s.n
}
