/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package startStop

import (
	"context"
	goErr "errors"
	"sync"
	"sync/atomic"
	"time"

	librun "github.com/sabouaram/reactorhttp/runner"
)

type runner struct {
	mu sync.Mutex

	fnStart FuncStart
	fnStop  FuncStop

	running atomic.Bool
	started atomic.Int64 // UnixNano of the current instance's start time, 0 when idle

	cancel context.CancelFunc
	done   chan struct{}

	errMu sync.Mutex
	errs  []error
}

func (r *runner) recordError(err error) {
	if err == nil {
		return
	}

	r.errMu.Lock()
	r.errs = append(r.errs, err)
	r.errMu.Unlock()
}

func (r *runner) resetErrors() {
	r.errMu.Lock()
	r.errs = nil
	r.errMu.Unlock()
}

func (r *runner) ErrorsLast() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()

	if len(r.errs) == 0 {
		return nil
	}

	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()

	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

func (r *runner) IsRunning() bool {
	return r.running.Load()
}

func (r *runner) Uptime() time.Duration {
	t := r.started.Load()
	if t == 0 {
		return 0
	}

	return time.Since(time.Unix(0, t))
}

// stopCurrent cancels the active instance (if any), waits for it to unwind,
// then runs the stop function. Caller must hold r.mu.
func (r *runner) stopCurrent(ctx context.Context) {
	if r.cancel == nil {
		return
	}

	cancel := r.cancel
	done := r.done
	fn := r.fnStop

	r.cancel = nil
	r.done = nil

	cancel()
	if done != nil {
		<-done
	}

	if fn == nil {
		r.recordError(goErr.New("invalid stop function"))
	} else if err := fn(ctx); err != nil {
		r.recordError(err)
	}

	r.running.Store(false)
	r.started.Store(0)
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopCurrent(ctx)
	r.resetErrors()

	cctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.cancel = cancel
	r.done = done
	r.running.Store(true)
	r.started.Store(time.Now().UnixNano())

	fn := r.fnStart

	go func() {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				librun.RecoveryCaller("runner/startStop.Start", rec)
			}
			r.running.Store(false)
			r.started.Store(0)
		}()

		if fn == nil {
			r.recordError(goErr.New("invalid start function"))
			return
		}

		if err := fn(cctx); err != nil {
			r.recordError(err)
		}
	}()

	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopCurrent(ctx)
	return nil
}

func (r *runner) Restart(ctx context.Context) error {
	_ = r.Stop(ctx)
	return r.Start(ctx)
}
