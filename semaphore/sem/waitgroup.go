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
)

// waitgroup is the unlimited-weight flavor of Sem: it never blocks a
// worker, it only lets the caller wait for them all to finish.
type waitgroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	wg sync.WaitGroup
}

func newWaitGroup(parent context.Context) Sem {
	c, cancel := context.WithCancel(parent)

	return &waitgroup{
		ctx:    c,
		cancel: cancel,
	}
}

func (g *waitgroup) Deadline() (time.Time, bool) { return g.ctx.Deadline() }
func (g *waitgroup) Done() <-chan struct{}       { return g.ctx.Done() }
func (g *waitgroup) Err() error                  { return g.ctx.Err() }
func (g *waitgroup) Value(key interface{}) interface{} {
	return g.ctx.Value(key)
}

func (g *waitgroup) NewWorker() error {
	g.wg.Add(1)
	return nil
}

func (g *waitgroup) NewWorkerTry() bool {
	g.wg.Add(1)
	return true
}

func (g *waitgroup) DeferWorker() {
	g.wg.Done()
}

func (g *waitgroup) DeferMain() {
	g.once.Do(g.cancel)
}

func (g *waitgroup) WaitAll() error {
	g.wg.Wait()
	return nil
}

func (g *waitgroup) Weighted() int64 {
	return -1
}

func (g *waitgroup) New() Sem {
	return newWaitGroup(g.ctx)
}
