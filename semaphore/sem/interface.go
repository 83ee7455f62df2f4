/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package sem provides a worker-counting semaphore that doubles as a
// context.Context: cancelling it (DeferMain) cancels every NewWorker call
// still waiting for a slot. A positive weight is backed by
// golang.org/x/sync/semaphore; a negative weight means unlimited and is
// backed by a sync.WaitGroup.
package sem

import (
	"context"
	"runtime"
)

// Sem is both a context (Deadline/Done/Err/Value reflect the context it was
// built from, until DeferMain cancels it) and a worker-slot accountant.
type Sem interface {
	context.Context

	// NewWorker reserves a slot, blocking until one is free or the bound
	// context is done.
	NewWorker() error

	// NewWorkerTry reserves a slot without blocking, reporting whether one
	// was available.
	NewWorkerTry() bool

	// DeferWorker releases a slot reserved by NewWorker/NewWorkerTry.
	DeferWorker()

	// DeferMain cancels the semaphore's context. Safe to call more than
	// once.
	DeferMain()

	// WaitAll blocks until every outstanding worker has called DeferWorker.
	WaitAll() error

	// Weighted returns the configured weight, or -1 for an unlimited
	// semaphore.
	Weighted() int64

	// New returns a fresh semaphore of the same kind and weight, with its
	// context derived from this one.
	New() Sem
}

// MaxSimultaneous returns the default weight used when New is called with a
// weight of zero: the number of logical CPUs usable by the process.
func MaxSimultaneous() int {
	return runtime.GOMAXPROCS(0)
}

// SetSimultaneous clamps n to the [1, MaxSimultaneous()] range, returning
// MaxSimultaneous() for any n outside it.
func SetSimultaneous(n int64) int64 {
	max := int64(MaxSimultaneous())

	if n < 1 || n > max {
		return max
	}

	return n
}

// New returns a semaphore bound to ctx. n == 0 uses MaxSimultaneous(); n < 0
// requests an unlimited semaphore (reported as Weighted() == -1); n > 0
// caps concurrency at n.
func New(ctx context.Context, n int64) Sem {
	if n == 0 {
		n = int64(MaxSimultaneous())
	}

	if n < 0 {
		return newWaitGroup(ctx)
	}

	return newWeighted(ctx, n)
}
