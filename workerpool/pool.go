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

// Package workerpool runs a fixed number of goroutines draining a single
// bounded task queue, giving the reactor a place to hand off parsed
// connections without blocking its own event loop. Lifecycle is exposed
// through the same Start/Stop/Restart contract used across this module.
package workerpool

import (
	"context"
	"sync"
	"time"

	libatm "github.com/sabouaram/reactorhttp/atomic"
	libqueue "github.com/sabouaram/reactorhttp/queue"
	librun "github.com/sabouaram/reactorhttp/runner"
	libsts "github.com/sabouaram/reactorhttp/runner/startStop"
)

// Task is a unit of work submitted to the pool. It runs on one of the
// pool's fixed worker goroutines and must not block indefinitely: a task
// that never returns permanently occupies that worker.
type Task func(ctx context.Context)

// Pool is a fixed-size worker pool bound to one task queue.
type Pool struct {
	workers int
	queue   *libqueue.Bounded[Task]

	wg sync.WaitGroup
	r  libatm.Value[libsts.StartStop]
}

// New returns a pool with the given number of workers, each drawing from a
// bounded queue of the given capacity. workers and capacity are both
// clamped to at least 1.
func New(workers int, capacity int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		workers: workers,
		queue:   libqueue.NewBounded[Task](capacity),
		r:       libatm.NewValue[libsts.StartStop](),
	}
	p.r.Store(libsts.New(p.run, p.closeRun))
	return p
}

// Submit blocks until the task is queued or ctx is done.
func (p *Pool) Submit(ctx context.Context, t Task) error {
	return p.queue.Push(ctx, t)
}

// TrySubmit queues t without blocking, reporting false if the queue is
// currently full.
func (p *Pool) TrySubmit(t Task) bool {
	return p.queue.TryPush(t)
}

// Pending reports how many tasks are queued but not yet picked up.
func (p *Pool) Pending() int {
	return p.queue.Len()
}

func (p *Pool) run(ctx context.Context) error {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	<-ctx.Done()
	p.wg.Wait()
	return nil
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			librun.RecoveryCaller("workerpool.worker", rec)
		}
	}()

	for {
		t, err := p.queue.Pop(ctx)
		if err != nil {
			return
		}
		p.runTask(ctx, t)
	}
}

func (p *Pool) runTask(ctx context.Context, t Task) {
	defer func() {
		if rec := recover(); rec != nil {
			librun.RecoveryCaller("workerpool.task", rec)
		}
	}()
	t(ctx)
}

func (p *Pool) closeRun(_ context.Context) error {
	return nil
}

func (p *Pool) Start(ctx context.Context) error {
	return p.r.Load().Start(ctx)
}

func (p *Pool) Stop(ctx context.Context) error {
	return p.r.Load().Stop(ctx)
}

func (p *Pool) Restart(ctx context.Context) error {
	return p.r.Load().Restart(ctx)
}

func (p *Pool) IsRunning() bool {
	return p.r.Load().IsRunning()
}

func (p *Pool) Uptime() time.Duration {
	return p.r.Load().Uptime()
}

func (p *Pool) ErrorsLast() error {
	return p.r.Load().ErrorsLast()
}

func (p *Pool) ErrorsList() []error {
	return p.r.Load().ErrorsList()
}

var _ libsts.StartStop = (*Pool)(nil)
