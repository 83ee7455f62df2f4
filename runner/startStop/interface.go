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

// Package startStop gives any component built from a blocking start function
// and a shutdown function a uniform Start/Stop/Restart lifecycle, with uptime
// tracking and captured-error reporting, so callers never need to invent
// their own goroutine bookkeeping.
package startStop

import (
	"context"
	"time"
)

// FuncStart is run in its own goroutine by Start. It must block until the
// context it receives is cancelled, and return once it has unwound.
type FuncStart func(ctx context.Context) error

// FuncStop is run synchronously by Stop, after the running FuncStart has been
// cancelled and has returned.
type FuncStop func(ctx context.Context) error

// StartStop supervises one instance of a FuncStart/FuncStop pair.
type StartStop interface {
	// Start cancels and waits for any instance already running, clears the
	// captured error history, then launches a fresh instance in a new
	// goroutine. It returns immediately; failures are reported through
	// ErrorsLast/ErrorsList rather than as a return value.
	Start(ctx context.Context) error

	// Stop cancels the running instance, waits for it to return, then runs
	// the stop function. It is idempotent: calling it when nothing is
	// running is a no-op.
	Stop(ctx context.Context) error

	// Restart is Stop followed by Start.
	Restart(ctx context.Context) error

	// IsRunning reports whether an instance is currently active.
	IsRunning() bool

	// Uptime returns how long the current instance has been running, or
	// zero if nothing is running.
	Uptime() time.Duration

	// ErrorsLast returns the most recent error captured from the start or
	// stop function, or nil if none occurred since the last Start.
	ErrorsLast() error

	// ErrorsList returns every error captured since the last Start, in the
	// order they occurred.
	ErrorsList() []error
}

// New returns a StartStop wrapping the given start and stop functions. Either
// may be nil: calling Start/Stop against a nil function records an "invalid
// start/stop function" error instead of panicking.
func New(start FuncStart, stop FuncStop) StartStop {
	return &runner{
		fnStart: start,
		fnStop:  stop,
	}
}
