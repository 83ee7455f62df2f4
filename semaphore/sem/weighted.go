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

package sem

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

type weighted struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	n   int64
	sem *semaphore.Weighted
}

func newWeighted(parent context.Context, n int64) Sem {
	c, cancel := context.WithCancel(parent)

	return &weighted{
		ctx:    c,
		cancel: cancel,
		n:      n,
		sem:    semaphore.NewWeighted(n),
	}
}

func (w *weighted) Deadline() (time.Time, bool) { return w.ctx.Deadline() }
func (w *weighted) Done() <-chan struct{}       { return w.ctx.Done() }
func (w *weighted) Err() error                  { return w.ctx.Err() }
func (w *weighted) Value(key interface{}) interface{} {
	return w.ctx.Value(key)
}

func (w *weighted) NewWorker() error {
	return w.sem.Acquire(w.ctx, 1)
}

func (w *weighted) NewWorkerTry() bool {
	return w.sem.TryAcquire(1)
}

func (w *weighted) DeferWorker() {
	w.sem.Release(1)
}

func (w *weighted) DeferMain() {
	w.once.Do(w.cancel)
}

func (w *weighted) WaitAll() error {
	if err := w.sem.Acquire(w.ctx, w.n); err != nil {
		return err
	}

	w.sem.Release(w.n)
	return nil
}

func (w *weighted) Weighted() int64 {
	return w.n
}

func (w *weighted) New() Sem {
	return newWeighted(w.ctx, w.n)
}
